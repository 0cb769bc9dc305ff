package models

import (
	"fmt"
	"math"
	"strings"
)

type SeverityLabel string

const (
	SeverityLow      SeverityLabel = "Low"
	SeverityModerate SeverityLabel = "Moderate"
	SeverityHigh     SeverityLabel = "High"
	SeverityCritical SeverityLabel = "Critical"
	SeverityUnknown  SeverityLabel = "Unknown"
)

// ParseSeverityLabel accepts the four cluster severities in any case.
func ParseSeverityLabel(s string) (SeverityLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "moderate":
		return SeverityModerate, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf("unknown severity label %q", s)
	}
}

type IndexCategory string

const (
	CategoryGood               IndexCategory = "Good"
	CategoryModerate           IndexCategory = "Moderate"
	CategoryUnhealthySensitive IndexCategory = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy          IndexCategory = "Unhealthy"
)

// Band lower bounds are inclusive; the last band is open-ended.
var indexBands = []struct {
	upper    float64
	category IndexCategory
}{
	{50, CategoryGood},
	{100, CategoryModerate},
	{150, CategoryUnhealthySensitive},
	{math.Inf(1), CategoryUnhealthy},
}

// CategorizeIndex buckets a pollution index into its display category.
func CategorizeIndex(index float64) IndexCategory {
	for _, b := range indexBands {
		if index < b.upper {
			return b.category
		}
	}
	return CategoryUnhealthy
}

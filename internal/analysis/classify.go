package analysis

import (
	"context"
	"strings"

	"github.com/mr1hm/airsense/internal/modelbank"
	"github.com/mr1hm/airsense/internal/models"
)

// ClassifyCity clusters the matching dataset row and labels its severity.
// No match is not an error: the result comes back with Found false.
func (h *Handler) ClassifyCity(ctx context.Context, country, city string) (*models.SeverityResult, error) {
	country, city = strings.TrimSpace(country), strings.TrimSpace(city)
	if country == "" {
		return nil, &ValidationError{Field: "country", Reason: "must not be empty"}
	}
	if city == "" {
		return nil, &ValidationError{Field: "city", Reason: "must not be empty"}
	}

	matches := h.data.MatchCountryCity(country, city)
	if len(matches) == 0 {
		return &models.SeverityResult{Found: false}, nil
	}

	row, err := h.pick(country, city, matches)
	if err != nil {
		return nil, err
	}

	x, err := modelbank.FeatureVector(row, h.clusterer.Features())
	if err != nil {
		return nil, &ModelInvocationError{Model: "clustering", Err: err}
	}
	cluster, err := h.clusterer.Predict(ctx, x)
	if err != nil {
		return nil, &ModelInvocationError{Model: "clustering", Err: err}
	}

	label, ok := h.severity.Lookup(cluster)
	if !ok {
		return nil, &UnmappedClusterError{Cluster: cluster}
	}

	return &models.SeverityResult{
		Found:              true,
		Country:            row.Country,
		City:               row.City,
		Year:               row.Year,
		PM10:               row.PM10,
		PM25:               row.PM25,
		NO2:                row.NO2,
		PollutionIndex:     row.PollutionIndex,
		PollutionPerPerson: row.PollutionPerPerson,
		ClusterID:          cluster,
		Severity:           label,
		MatchCount:         len(matches),
	}, nil
}

func (h *Handler) pick(country, city string, matches []models.PollutionRecord) (models.PollutionRecord, error) {
	switch h.policy {
	case MatchFirst:
		return matches[0], nil
	case MatchUnique:
		if len(matches) > 1 {
			return models.PollutionRecord{}, &AmbiguousMatchError{Country: country, City: city, Count: len(matches)}
		}
		return matches[0], nil
	default:
		// Latest year wins; the earlier row wins a tie.
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Year > best.Year {
				best = m
			}
		}
		return best, nil
	}
}

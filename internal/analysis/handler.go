// Package analysis answers the four air-quality questions (and the dashboard
// summaries) over an immutable dataset and model bank.
package analysis

import (
	"fmt"
	"strings"

	"github.com/mr1hm/airsense/internal/dataset"
	"github.com/mr1hm/airsense/internal/modelbank"
)

// MatchPolicy picks the row used when several rows share a country/city.
type MatchPolicy string

const (
	MatchLatest MatchPolicy = "latest"
	MatchFirst  MatchPolicy = "first"
	MatchUnique MatchPolicy = "unique"
)

func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MatchLatest, MatchFirst, MatchUnique:
		return p, nil
	case "":
		return MatchLatest, nil
	default:
		return "", fmt.Errorf("unknown match policy %q", s)
	}
}

// Context carries everything the handler reads. Anomalies is optional; when
// nil the main dataset is used if it carries anomaly flags.
type Context struct {
	Dataset     *dataset.Dataset
	Anomalies   *dataset.Dataset
	Regressor   modelbank.Regressor
	Clusterer   modelbank.Clusterer
	Severity    modelbank.SeverityMap
	MatchPolicy MatchPolicy
}

// FromBank fills the model fields from a loaded bank.
func (c Context) FromBank(b *modelbank.Bank) Context {
	c.Regressor = b.Regressor
	c.Clusterer = b.Clusterer
	c.Severity = b.Severity
	return c
}

// Handler is safe for concurrent use; it never mutates its inputs.
type Handler struct {
	data      *dataset.Dataset
	anomalies *dataset.Dataset
	regressor modelbank.Regressor
	clusterer modelbank.Clusterer
	severity  modelbank.SeverityMap
	policy    MatchPolicy
}

func New(c Context) (*Handler, error) {
	switch {
	case c.Dataset == nil:
		return nil, &DataUnavailableError{Resource: "dataset"}
	case c.Regressor == nil:
		return nil, &DataUnavailableError{Resource: "regression model"}
	case c.Clusterer == nil:
		return nil, &DataUnavailableError{Resource: "clustering model"}
	case len(c.Severity) == 0:
		return nil, &DataUnavailableError{Resource: "severity map"}
	}

	policy := c.MatchPolicy
	if policy == "" {
		policy = MatchLatest
	}
	if _, err := ParseMatchPolicy(string(policy)); err != nil {
		return nil, err
	}

	anomalies := c.Anomalies
	if anomalies == nil && c.Dataset.HasAnomalyFlags() {
		anomalies = c.Dataset
	}

	return &Handler{
		data:      c.Dataset,
		anomalies: anomalies,
		regressor: c.Regressor,
		clusterer: c.Clusterer,
		severity:  c.Severity.Clone(),
		policy:    policy,
	}, nil
}

// DatasetSize is the row count of the main dataset.
func (h *Handler) DatasetSize() int {
	return h.data.Len()
}

// HasAnomalies reports whether anomaly queries can be answered.
func (h *Handler) HasAnomalies() bool {
	return h.anomalies != nil
}

func (h *Handler) anomalyData() (*dataset.Dataset, error) {
	if h.anomalies == nil {
		return nil, &DataUnavailableError{Resource: "anomaly dataset"}
	}
	return h.anomalies, nil
}

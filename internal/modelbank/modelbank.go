// Package modelbank loads the pre-trained models used for inference and
// exposes each through a single Predict call.
package modelbank

import (
	"context"
	"fmt"

	"github.com/mr1hm/airsense/internal/models"
)

// Regressor maps the ordered pollutant vector [pm10, pm25, no2] to a
// pollution index.
type Regressor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// Clusterer assigns a feature vector to a cluster id. Features lists the
// record columns, in order, the model was trained on.
type Clusterer interface {
	Predict(ctx context.Context, features []float64) (int, error)
	Features() []string
}

const (
	FeaturePM10      = "pm10_concentration"
	FeaturePM25      = "pm25_concentration"
	FeatureNO2       = "no2_concentration"
	FeatureIndex     = "pollution_index"
	FeaturePerPerson = "pollution_per_person"
)

const (
	BackendFile = "file"
	BackendHTTP = "http"
)

// RegressionFeatures is the fixed input order of the index regressor.
var RegressionFeatures = []string{FeaturePM10, FeaturePM25, FeatureNO2}

// Clustering feature layouts. The 5-feature variant includes the observed
// pollution index.
var (
	ClusterFeatures4 = []string{FeaturePM10, FeaturePM25, FeatureNO2, FeaturePerPerson}
	ClusterFeatures5 = []string{FeaturePM10, FeaturePM25, FeatureNO2, FeatureIndex, FeaturePerPerson}
)

// FeatureVector projects a record onto the named columns.
func FeatureVector(r models.PollutionRecord, names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		switch n {
		case FeaturePM10:
			out[i] = r.PM10
		case FeaturePM25:
			out[i] = r.PM25
		case FeatureNO2:
			out[i] = r.NO2
		case FeatureIndex:
			out[i] = r.PollutionIndex
		case FeaturePerPerson:
			out[i] = r.PollutionPerPerson
		default:
			return nil, fmt.Errorf("unsupported feature %q", n)
		}
	}
	return out, nil
}

// Bank bundles the loaded artifacts. It is immutable after construction.
type Bank struct {
	Backend   string
	Regressor Regressor
	Clusterer Clusterer
	Severity  SeverityMap
}

type Paths struct {
	Regressor   string
	Clusterer   string
	SeverityMap string
}

// LoadFiles reads all three artifacts from disk.
func LoadFiles(p Paths) (*Bank, error) {
	reg, err := LoadTreeEnsemble(p.Regressor)
	if err != nil {
		return nil, err
	}
	cl, err := LoadCentroids(p.Clusterer)
	if err != nil {
		return nil, err
	}
	sev, err := LoadSeverityMap(p.SeverityMap)
	if err != nil {
		return nil, err
	}

	return &Bank{
		Backend:   BackendFile,
		Regressor: reg,
		Clusterer: cl,
		Severity:  sev,
	}, nil
}

package modelbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/mr1hm/airsense/internal/models"
	"gonum.org/v1/gonum/floats"
)

type scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type centroidArtifact struct {
	FeatureNames []string    `json:"feature_names"`
	Centroids    [][]float64 `json:"centroids"`
	Scaler       *scaler     `json:"scaler"`
}

// Centroids is a fitted k-means model: an optional standard scaler followed
// by nearest-centroid assignment. Cluster ids are centroid positions.
type Centroids struct {
	features  []string
	centroids [][]float64
	mean      []float64
	scale     []float64
}

func LoadCentroids(path string) (*Centroids, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clustering model: %w", err)
	}

	m, err := ParseCentroids(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded clustering model", "path", path, "clusters", len(m.centroids), "features", m.features)
	return m, nil
}

func ParseCentroids(data []byte) (*Centroids, error) {
	var a centroidArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal clustering model: %w", err)
	}
	if len(a.Centroids) == 0 {
		return nil, errors.New("clustering model has no centroids")
	}

	width := len(a.Centroids[0])
	for i, c := range a.Centroids {
		if len(c) != width {
			return nil, fmt.Errorf("centroid %d has %d values, want %d", i, len(c), width)
		}
	}

	features := a.FeatureNames
	if len(features) == 0 {
		switch width {
		case len(ClusterFeatures4):
			features = ClusterFeatures4
		case len(ClusterFeatures5):
			features = ClusterFeatures5
		default:
			return nil, fmt.Errorf("cannot infer feature names for %d-wide centroids", width)
		}
	}
	if len(features) != width {
		return nil, fmt.Errorf("model lists %d features but centroids have %d", len(features), width)
	}
	// Fail at load time rather than on the first request.
	if _, err := FeatureVector(models.PollutionRecord{}, features); err != nil {
		return nil, err
	}

	m := &Centroids{
		features:  slices.Clone(features),
		centroids: a.Centroids,
	}

	if a.Scaler != nil {
		if len(a.Scaler.Mean) != width || len(a.Scaler.Scale) != width {
			return nil, fmt.Errorf("scaler width mismatch: mean %d, scale %d, want %d",
				len(a.Scaler.Mean), len(a.Scaler.Scale), width)
		}
		m.mean = a.Scaler.Mean
		m.scale = make([]float64, width)
		for i, s := range a.Scaler.Scale {
			// sklearn stores 1 for zero-variance columns; older dumps store 0.
			if s == 0 {
				s = 1
			}
			m.scale[i] = s
		}
	}

	return m, nil
}

func (m *Centroids) Features() []string {
	return slices.Clone(m.features)
}

func (m *Centroids) Predict(ctx context.Context, features []float64) (int, error) {
	if len(features) != len(m.features) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.features), len(features))
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %s is not finite", m.features[i])
		}
	}

	x := features
	if m.mean != nil {
		x = make([]float64, len(features))
		floats.SubTo(x, features, m.mean)
		floats.DivTo(x, x, m.scale)
	}

	best, bestDist := 0, math.Inf(1)
	for id, c := range m.centroids {
		// Strict comparison keeps the lowest id on ties.
		if d := floats.Distance(x, c, 2); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, nil
}

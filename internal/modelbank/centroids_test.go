package modelbank

import (
	"context"
	"math"
	"testing"

	"github.com/mr1hm/airsense/internal/models"
)

func TestCentroids_NearestCentroid(t *testing.T) {
	m, err := ParseCentroids([]byte(`{
	  "centroids": [[0, 0, 0, 0], [10, 10, 10, 10], [100, 100, 100, 100]]
	}`))
	if err != nil {
		t.Fatalf("ParseCentroids failed: %v", err)
	}

	features := m.Features()
	if len(features) != 4 || features[3] != FeaturePerPerson {
		t.Errorf("expected 4-feature layout to be inferred, got %v", features)
	}

	tests := []struct {
		x    []float64
		want int
	}{
		{[]float64{1, 1, 1, 1}, 0},
		{[]float64{9, 9, 9, 9}, 1},
		{[]float64{80, 80, 80, 80}, 2},
		{[]float64{5, 5, 5, 5}, 0}, // equidistant from 0 and 1
	}
	for _, tt := range tests {
		got, err := m.Predict(context.Background(), tt.x)
		if err != nil {
			t.Fatalf("Predict(%v) failed: %v", tt.x, err)
		}
		if got != tt.want {
			t.Errorf("Predict(%v): expected cluster %d, got %d", tt.x, tt.want, got)
		}
	}
}

func TestCentroids_Scaler(t *testing.T) {
	// Without scaling, [0, 100] sits closer to centroid 1. Scaling the second
	// column by 100 moves it next to centroid 0.
	m, err := ParseCentroids([]byte(`{
	  "feature_names": ["pm10_concentration", "pm25_concentration"],
	  "centroids": [[0, 1], [50, 100]],
	  "scaler": {"mean": [0, 0], "scale": [1, 100]}
	}`))
	if err != nil {
		t.Fatalf("ParseCentroids failed: %v", err)
	}

	got, err := m.Predict(context.Background(), []float64{0, 100})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected scaled input to land in cluster 0, got %d", got)
	}
}

func TestCentroids_ZeroScale(t *testing.T) {
	m, err := ParseCentroids([]byte(`{
	  "feature_names": ["pm10_concentration"],
	  "centroids": [[0], [10]],
	  "scaler": {"mean": [5], "scale": [0]}
	}`))
	if err != nil {
		t.Fatalf("ParseCentroids failed: %v", err)
	}

	got, err := m.Predict(context.Background(), []float64{14})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 1 {
		t.Errorf("expected cluster 1, got %d", got)
	}
}

func TestCentroids_FiveFeatureVector(t *testing.T) {
	m, err := ParseCentroids([]byte(`{"centroids": [[1, 2, 3, 4, 5]]}`))
	if err != nil {
		t.Fatalf("ParseCentroids failed: %v", err)
	}

	r := models.PollutionRecord{PM10: 1, PM25: 2, NO2: 3, PollutionIndex: 4, PollutionPerPerson: 5}
	x, err := FeatureVector(r, m.Features())
	if err != nil {
		t.Fatalf("FeatureVector failed: %v", err)
	}
	want := []float64{1, 2, 3, 4, 5}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, x)
		}
	}
}

func TestCentroids_RejectsBadInput(t *testing.T) {
	m, err := ParseCentroids([]byte(`{"centroids": [[0, 0, 0, 0]]}`))
	if err != nil {
		t.Fatalf("ParseCentroids failed: %v", err)
	}

	if _, err := m.Predict(context.Background(), []float64{1, 2, 3}); err == nil {
		t.Error("expected error for short vector, got nil")
	}
	if _, err := m.Predict(context.Background(), []float64{1, math.Inf(1), 3, 4}); err == nil {
		t.Error("expected error for infinite feature, got nil")
	}
}

func TestParseCentroids_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"empty", `{"centroids": []}`},
		{"ragged", `{"centroids": [[1, 2, 3, 4], [1, 2]]}`},
		{"unknown width", `{"centroids": [[1, 2, 3]]}`},
		{"name mismatch", `{"feature_names": ["pm10_concentration"], "centroids": [[1, 2]]}`},
		{"unknown feature", `{"feature_names": ["ozone"], "centroids": [[1]]}`},
		{"scaler width", `{"feature_names": ["pm10_concentration"], "centroids": [[1]], "scaler": {"mean": [1, 2], "scale": [1]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCentroids([]byte(tt.model)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

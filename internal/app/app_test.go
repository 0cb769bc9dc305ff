package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr1hm/airsense/internal/analysis"
	"github.com/mr1hm/airsense/internal/config"
	"github.com/mr1hm/airsense/internal/modelbank"
)

const testCSV = `country_name,city,year,latitude,longitude,pm10_concentration,pm25_concentration,no2_concentration,pollution_index,pollution_per_person
India,Delhi,2017,28.6,77.2,170,100,55,150,0.1
China,Beijing,2015,39.9,116.4,80,55,40,80,0.05
`

const testAnomalyCSV = `country_name,city,year,latitude,longitude,pm10_concentration,pm25_concentration,no2_concentration,pollution_index,pollution_per_person,is_anomaly_dbscan
India,Delhi,2017,28.6,77.2,170,100,55,150,0.1,1
China,Beijing,2015,39.9,116.4,80,55,40,80,0.05,0
`

const testRegressor = `{"base_score": 0, "feature_names": ["pm10_concentration", "pm25_concentration", "no2_concentration"],
  "trees": [{"nodeid": 0, "leaf": 62}]}`

const testClusterer = `{"feature_names": ["pm10_concentration", "pm25_concentration", "no2_concentration", "pollution_per_person"],
  "centroids": [[0, 0, 0, 0], [200, 120, 60, 0.1]]}`

const testSeverity = `{"0": "Low", "1": "Critical"}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Data: config.DataConfig{
			Path:        writeFile(t, dir, "data.csv", testCSV),
			AnomalyPath: writeFile(t, dir, "anomalies.csv", testAnomalyCSV),
		},
		Models: config.ModelsConfig{
			Backend:         modelbank.BackendFile,
			RegressorPath:   writeFile(t, dir, "regressor.json", testRegressor),
			ClustererPath:   writeFile(t, dir, "clusterer.json", testClusterer),
			SeverityMapPath: writeFile(t, dir, "severity.json", testSeverity),
		},
		Analysis: config.AnalysisConfig{MatchPolicy: "latest"},
	}
}

func TestNewHandler(t *testing.T) {
	cfg := testConfig(t)

	h, bank, err := NewHandler(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	if bank.Backend != modelbank.BackendFile {
		t.Errorf("expected file backend, got %s", bank.Backend)
	}
	if h.DatasetSize() != 2 {
		t.Errorf("expected 2 records, got %d", h.DatasetSize())
	}
	if !h.HasAnomalies() {
		t.Error("expected anomaly data to be available")
	}

	res, err := h.ClassifyCity(context.Background(), "India", "Delhi")
	if err != nil {
		t.Fatalf("ClassifyCity failed: %v", err)
	}
	if res.Severity != "Critical" {
		t.Errorf("expected Critical, got %s", res.Severity)
	}
}

func TestNewHandler_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Path = filepath.Join(t.TempDir(), "missing.csv")

	_, _, err := NewHandler(context.Background(), cfg)
	var unavailable *analysis.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
	if unavailable.Resource != "dataset" {
		t.Errorf("expected resource 'dataset', got %s", unavailable.Resource)
	}
}

func TestNewHandler_MissingModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Models.ClustererPath = filepath.Join(t.TempDir(), "missing.json")

	_, _, err := NewHandler(context.Background(), cfg)
	var unavailable *analysis.DataUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Resource != "models" {
		t.Fatalf("expected models DataUnavailableError, got %v", err)
	}
}

func TestNewHandler_AnomalyDatasetOptional(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.AnomalyPath = filepath.Join(t.TempDir(), "missing.csv")

	h, _, err := NewHandler(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	if h.HasAnomalies() {
		t.Error("expected no anomaly data")
	}
}

func TestNewHandler_InvalidMatchPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.MatchPolicy = "random"

	if _, _, err := NewHandler(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown match policy, got nil")
	}
}

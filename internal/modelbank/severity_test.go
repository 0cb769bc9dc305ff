package modelbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mr1hm/airsense/internal/models"
)

func TestParseSeverityMap(t *testing.T) {
	m, err := ParseSeverityMap([]byte(`{"0": "Low", "1": "moderate", "2": "High", "3": "Critical"}`))
	if err != nil {
		t.Fatalf("ParseSeverityMap failed: %v", err)
	}

	if got, ok := m.Lookup(1); !ok || got != models.SeverityModerate {
		t.Errorf("expected Moderate for cluster 1, got %q (ok=%v)", got, ok)
	}
	if _, ok := m.Lookup(7); ok {
		t.Error("expected miss for cluster 7")
	}
}

func TestParseSeverityMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", `{}`},
		{"bad id", `{"zero": "Low"}`},
		{"unknown label", `{"0": "Severe"}`},
		{"not an object", `["Low"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeverityMap([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	p := Paths{
		Regressor:   write("xgboost_model.json", stumpModel),
		Clusterer:   write("kmeans_model.json", `{"centroids": [[0, 0, 0, 0], [50, 50, 50, 1]]}`),
		SeverityMap: write("cluster_severity_map.json", `{"0": "Low", "1": "High"}`),
	}

	bank, err := LoadFiles(p)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if bank.Backend != BackendFile {
		t.Errorf("expected backend %s, got %s", BackendFile, bank.Backend)
	}
	if len(bank.Severity) != 2 {
		t.Errorf("expected 2 severity entries, got %d", len(bank.Severity))
	}

	p.SeverityMap = filepath.Join(dir, "missing.json")
	if _, err := LoadFiles(p); err == nil {
		t.Error("expected error for missing severity map, got nil")
	}
}

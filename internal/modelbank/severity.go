package modelbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"

	"github.com/mr1hm/airsense/internal/models"
)

// SeverityMap translates cluster ids to severity labels.
type SeverityMap map[int]models.SeverityLabel

func (m SeverityMap) Lookup(cluster int) (models.SeverityLabel, bool) {
	l, ok := m[cluster]
	return l, ok
}

func LoadSeverityMap(path string) (SeverityMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read severity map: %w", err)
	}

	m, err := ParseSeverityMap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded severity map", "path", path, "clusters", len(m))
	return m, nil
}

// ParseSeverityMap reads the pickled dict's JSON form, e.g. {"0": "Low"}.
func ParseSeverityMap(data []byte) (SeverityMap, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal severity map: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("severity map is empty")
	}

	m := make(SeverityMap, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid cluster id %q", k)
		}
		label, err := models.ParseSeverityLabel(v)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", id, err)
		}
		m[id] = label
	}
	return m, nil
}

// Clone returns an independent copy.
func (m SeverityMap) Clone() SeverityMap {
	return maps.Clone(m)
}

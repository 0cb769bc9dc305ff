package dataset

import (
	"slices"
	"sort"
	"strings"

	"github.com/mr1hm/airsense/internal/models"
)

// Dataset is an immutable, in-memory snapshot of pollution records. All
// query methods return copies so callers cannot mutate the snapshot.
type Dataset struct {
	source        string
	records       []models.PollutionRecord
	anomalyColumn string // header that fed IsAnomaly; empty when the file has none
}

func New(records []models.PollutionRecord) *Dataset {
	return &Dataset{records: slices.Clone(records)}
}

// WithAnomalyFlags marks an in-memory dataset as carrying anomaly flags.
func (d *Dataset) WithAnomalyFlags() *Dataset {
	c := *d
	c.anomalyColumn = "is_anomaly"
	return &c
}

func (d *Dataset) Source() string {
	return d.source
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// HasAnomalyFlags reports whether the source carried an anomaly column.
func (d *Dataset) HasAnomalyFlags() bool {
	return d.anomalyColumn != ""
}

func (d *Dataset) AnomalyColumn() string {
	return d.anomalyColumn
}

func (d *Dataset) Records() []models.PollutionRecord {
	return slices.Clone(d.records)
}

// MatchCountryCity returns rows whose country and city equal the inputs
// after trimming and lower-casing both sides, in dataset order.
func (d *Dataset) MatchCountryCity(country, city string) []models.PollutionRecord {
	country, city = normalize(country), normalize(city)

	var matches []models.PollutionRecord
	for _, r := range d.records {
		if normalize(r.Country) == country && normalize(r.City) == city {
			matches = append(matches, r)
		}
	}
	return matches
}

// CityRecords returns rows whose city equals the trimmed input exactly.
func (d *Dataset) CityRecords(city string) []models.PollutionRecord {
	city = strings.TrimSpace(city)

	var matches []models.PollutionRecord
	for _, r := range d.records {
		if r.City == city {
			matches = append(matches, r)
		}
	}
	return matches
}

// Cities returns the sorted distinct city values.
func (d *Dataset) Cities() []string {
	return distinct(d.records, func(r models.PollutionRecord) string { return r.City })
}

// Countries returns the sorted distinct country values.
func (d *Dataset) Countries() []string {
	return distinct(d.records, func(r models.PollutionRecord) string { return r.Country })
}

func distinct(records []models.PollutionRecord, key func(models.PollutionRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

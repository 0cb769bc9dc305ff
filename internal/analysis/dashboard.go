package analysis

import (
	"cmp"
	"slices"

	"github.com/mr1hm/airsense/internal/models"
	"gonum.org/v1/gonum/stat"
)

const DefaultTopCities = 10

// Dashboard builds the overview page. Anomaly figures are zero when no
// anomaly-flagged data is loaded.
func (h *Handler) Dashboard(top int) *models.DashboardSummary {
	if top <= 0 {
		top = DefaultTopCities
	}

	records := h.data.Records()
	s := &models.DashboardSummary{
		Cities:           len(h.data.Cities()),
		Countries:        len(h.data.Countries()),
		YearlyTrend:      yearlyMeans(records),
		TopAnomalyCities: []models.CityCount{},
	}

	if len(records) > 0 {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = r.PollutionIndex
		}
		s.AvgPollutionIndex = stat.Mean(values, nil)
	}

	if d, err := h.anomalyData(); err == nil {
		counts := make(map[string]int)
		for _, r := range d.Records() {
			if r.IsAnomaly {
				s.Anomalies++
				counts[r.City]++
			}
		}
		s.TopAnomalyCities = topCities(counts, top)
	}

	return s
}

func yearlyMeans(records []models.PollutionRecord) []models.YearlyMean {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range records {
		sums[r.Year] += r.PollutionIndex
		counts[r.Year]++
	}

	out := make([]models.YearlyMean, 0, len(sums))
	for year, sum := range sums {
		out = append(out, models.YearlyMean{Year: year, PollutionIndex: sum / float64(counts[year])})
	}
	slices.SortFunc(out, func(a, b models.YearlyMean) int {
		return cmp.Compare(a.Year, b.Year)
	})
	return out
}

func topCities(counts map[string]int, n int) []models.CityCount {
	out := make([]models.CityCount, 0, len(counts))
	for city, c := range counts {
		out = append(out, models.CityCount{City: city, Count: c})
	}
	slices.SortFunc(out, func(a, b models.CityCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Cities lists the distinct city names for the trend selector.
func (h *Handler) Cities() []string {
	return h.data.Cities()
}

// SeverityLandscape projects rows onto the pm10/pm25 severity scatter.
func (h *Handler) SeverityLandscape() []models.SeverityPoint {
	records := h.data.Records()
	out := make([]models.SeverityPoint, 0, len(records))
	for _, r := range records {
		label := r.Severity
		if label == "" {
			label = models.SeverityUnknown
		}
		out = append(out, models.SeverityPoint{
			City:     r.City,
			PM10:     r.PM10,
			PM25:     r.PM25,
			Severity: label,
		})
	}
	return out
}

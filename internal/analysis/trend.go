package analysis

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mr1hm/airsense/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrendForCity returns the city's yearly series with summary statistics.
// An unknown city yields an empty series with nil stats.
func (h *Handler) TrendForCity(city string) *models.TrendSeries {
	rows := h.data.CityRecords(city)
	slices.SortStableFunc(rows, func(a, b models.PollutionRecord) int {
		return cmp.Compare(a.Year, b.Year)
	})

	series := &models.TrendSeries{
		City:   strings.TrimSpace(city),
		Points: make([]models.TrendPoint, 0, len(rows)),
	}
	if len(rows) == 0 {
		return series
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.PollutionIndex
		series.Points = append(series.Points, models.TrendPoint{
			Year:           r.Year,
			PollutionIndex: r.PollutionIndex,
			PredictedIndex: r.PredictedIndex,
		})
	}
	series.City = rows[0].City
	series.Stats = trendStats(values)

	return series
}

func trendStats(values []float64) *models.TrendStats {
	s := &models.TrendStats{
		Mean: stat.Mean(values, nil),
		Max:  floats.Max(values),
		Min:  floats.Min(values),
	}
	if len(values) >= 2 {
		sd := stat.StdDev(values, nil)
		s.StdDev = &sd
	}
	return s
}

package analysis

import (
	"github.com/mr1hm/airsense/internal/models"
)

// DetectAnomalies summarises the pre-computed anomaly flags and projects
// every row for the map.
func (h *Handler) DetectAnomalies() (*models.AnomalySummary, error) {
	d, err := h.anomalyData()
	if err != nil {
		return nil, err
	}

	records := d.Records()
	s := &models.AnomalySummary{
		Total:  len(records),
		Points: make([]models.AnomalyPoint, 0, len(records)),
	}

	var latSum, lonSum float64
	for _, r := range records {
		if r.IsAnomaly {
			s.Anomalies++
		}
		c := r.Coordinates()
		latSum += c.Latitude
		lonSum += c.Longitude
		s.Points = append(s.Points, models.AnomalyPoint{
			Latitude:       c.Latitude,
			Longitude:      c.Longitude,
			City:           r.City,
			PollutionIndex: r.PollutionIndex,
			IsAnomaly:      r.IsAnomaly,
		})
	}
	s.Normal = s.Total - s.Anomalies

	if s.Total > 0 {
		n := float64(s.Total)
		s.Rate = float64(s.Anomalies) / n
		s.Center = models.Coordinates{Latitude: latSum / n, Longitude: lonSum / n}
	}

	return s, nil
}

// ModelAnalysis reports the normal/anomaly split behind the DBSCAN card.
func (h *Handler) ModelAnalysis() (*models.AnomalyStats, error) {
	d, err := h.anomalyData()
	if err != nil {
		return nil, err
	}

	var stats models.AnomalyStats
	for _, r := range d.Records() {
		if r.IsAnomaly {
			stats.Anomalies++
		} else {
			stats.Normal++
		}
	}
	return &stats, nil
}

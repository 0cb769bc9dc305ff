package models

// IndexPrediction is the outcome of a regression query.
type IndexPrediction struct {
	PM10     float64       `json:"pm10"`
	PM25     float64       `json:"pm25"`
	NO2      float64       `json:"no2"`
	Index    float64       `json:"pollution_index"`
	Category IndexCategory `json:"category"`
}

// SeverityResult is the outcome of a city classification. Found is false
// when no dataset row matched; every other field is then zero.
type SeverityResult struct {
	Found              bool          `json:"found"`
	Country            string        `json:"country,omitempty"`
	City               string        `json:"city,omitempty"`
	Year               int           `json:"year"`
	PM10               float64       `json:"pm10"`
	PM25               float64       `json:"pm25"`
	NO2                float64       `json:"no2"`
	PollutionIndex     float64       `json:"pollution_index"`
	PollutionPerPerson float64       `json:"pollution_per_person"`
	ClusterID          int           `json:"cluster_id"`
	Severity           SeverityLabel `json:"severity,omitempty"`
	MatchCount         int           `json:"match_count"`
}

type AnomalyPoint struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	City           string  `json:"city"`
	PollutionIndex float64 `json:"pollution_index"`
	IsAnomaly      bool    `json:"is_anomaly"`
}

type AnomalySummary struct {
	Total     int            `json:"total"`
	Anomalies int            `json:"anomalies"`
	Normal    int            `json:"normal"`
	Rate      float64        `json:"rate"` // fraction in [0,1]
	Center    Coordinates    `json:"center"`
	Points    []AnomalyPoint `json:"points"`
}

type TrendPoint struct {
	Year           int      `json:"year"`
	PollutionIndex float64  `json:"pollution_index"`
	PredictedIndex *float64 `json:"predicted_pollution_index"`
}

// TrendStats are nil when the series is empty. StdDev is nil with fewer
// than two points.
type TrendStats struct {
	Mean   float64  `json:"mean"`
	Max    float64  `json:"max"`
	Min    float64  `json:"min"`
	StdDev *float64 `json:"stddev"`
}

type TrendSeries struct {
	City   string       `json:"city"`
	Points []TrendPoint `json:"points"`
	Stats  *TrendStats  `json:"stats"`
}

type YearlyMean struct {
	Year           int     `json:"year"`
	PollutionIndex float64 `json:"pollution_index"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type DashboardSummary struct {
	Cities            int          `json:"cities"`
	Countries         int          `json:"countries"`
	AvgPollutionIndex float64      `json:"avg_pollution_index"`
	Anomalies         int          `json:"anomalies"`
	YearlyTrend       []YearlyMean `json:"yearly_trend"`
	TopAnomalyCities  []CityCount  `json:"top_anomaly_cities"`
}

type AnomalyStats struct {
	Normal    int `json:"normal"`
	Anomalies int `json:"anomalies"`
}

type SeverityPoint struct {
	City     string        `json:"city"`
	PM10     float64       `json:"pm10"`
	PM25     float64       `json:"pm25"`
	Severity SeverityLabel `json:"severity"`
}

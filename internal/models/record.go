package models

type PollutionRecord struct {
	Country            string
	City               string
	Year               int
	Latitude           float64
	Longitude          float64
	PM10               float64 // μg/m³
	PM25               float64 // μg/m³
	NO2                float64 // μg/m³
	PollutionIndex     float64 // observed index aggregated upstream
	PollutionPerPerson float64
	PredictedIndex     *float64      // nil when the row has no historical forecast
	IsAnomaly          bool          // DBSCAN flag, pre-computed upstream
	Severity           SeverityLabel // empty when the dataset variant does not store it
}

type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (r *PollutionRecord) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

package models

import "strings"

// Intent selects which of the request handler's operations a query runs.
type Intent int

const (
	IntentUnspecified Intent = iota
	IntentPredictIndex
	IntentClassifyCity
	IntentDetectAnomalies
	IntentTrendForCity
)

func (i Intent) String() string {
	switch i {
	case IntentPredictIndex:
		return "predict_index"
	case IntentClassifyCity:
		return "classify_city"
	case IntentDetectAnomalies:
		return "detect_anomalies"
	case IntentTrendForCity:
		return "trend_for_city"
	default:
		return "unspecified"
	}
}

// ParseIntent maps a wire name (or the dashboard's objective title) to an Intent.
func ParseIntent(s string) Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "predict_index", "predict", "pollution index prediction":
		return IntentPredictIndex
	case "classify_city", "severity", "city severity classification":
		return IntentClassifyCity
	case "detect_anomalies", "anomalies", "anomaly detection":
		return IntentDetectAnomalies
	case "trend_for_city", "trend", "yearly trend forecast":
		return IntentTrendForCity
	default:
		return IntentUnspecified
	}
}

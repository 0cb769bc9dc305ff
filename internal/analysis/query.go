package analysis

import (
	"context"
	"fmt"

	"github.com/mr1hm/airsense/internal/models"
)

// Query is one of the four request kinds. The set is closed: only the types
// in this file implement it.
type Query interface {
	Intent() models.Intent
	isQuery()
}

type PredictIndexQuery struct {
	PM10 float64 `json:"pm10"`
	PM25 float64 `json:"pm25"`
	NO2  float64 `json:"no2"`
}

type ClassifyCityQuery struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

type DetectAnomaliesQuery struct{}

type TrendForCityQuery struct {
	City string `json:"city"`
}

func (PredictIndexQuery) Intent() models.Intent { return models.IntentPredictIndex }
func (ClassifyCityQuery) Intent() models.Intent { return models.IntentClassifyCity }
func (DetectAnomaliesQuery) Intent() models.Intent { return models.IntentDetectAnomalies }
func (TrendForCityQuery) Intent() models.Intent { return models.IntentTrendForCity }

// Pollutant inputs are clamped to the slider range of the dashboard.
const (
	MinConcentration = 0
	MaxConcentration = 500
)

// Clamped returns q with each concentration limited to
// [MinConcentration, MaxConcentration].
func (q PredictIndexQuery) Clamped() PredictIndexQuery {
	q.PM10 = min(max(q.PM10, MinConcentration), MaxConcentration)
	q.PM25 = min(max(q.PM25, MinConcentration), MaxConcentration)
	q.NO2 = min(max(q.NO2, MinConcentration), MaxConcentration)
	return q
}

func (PredictIndexQuery) isQuery() {}
func (ClassifyCityQuery) isQuery() {}
func (DetectAnomaliesQuery) isQuery() {}
func (TrendForCityQuery) isQuery() {}

// QueryInput is the flat wire form of a query. Only the fields the intent
// needs are read.
type QueryInput struct {
	Intent  string  `json:"intent" binding:"required"`
	PM10    float64 `json:"pm10"`
	PM25    float64 `json:"pm25"`
	NO2     float64 `json:"no2"`
	Country string  `json:"country"`
	City    string  `json:"city"`
}

// BuildQuery resolves the intent name and picks the matching query type.
func BuildQuery(in QueryInput) (Query, error) {
	switch intent := models.ParseIntent(in.Intent); intent {
	case models.IntentPredictIndex:
		return PredictIndexQuery{PM10: in.PM10, PM25: in.PM25, NO2: in.NO2}, nil
	case models.IntentClassifyCity:
		return ClassifyCityQuery{Country: in.Country, City: in.City}, nil
	case models.IntentDetectAnomalies:
		return DetectAnomaliesQuery{}, nil
	case models.IntentTrendForCity:
		return TrendForCityQuery{City: in.City}, nil
	default:
		return nil, &ValidationError{Field: "intent", Reason: fmt.Sprintf("unknown intent %q", in.Intent)}
	}
}

// Result holds the answer to a dispatched query. Exactly one payload field
// is set, matching Intent.
type Result struct {
	Intent     models.Intent           `json:"-"`
	IntentName string                  `json:"intent"`
	Prediction *models.IndexPrediction `json:"prediction,omitempty"`
	Severity   *models.SeverityResult  `json:"severity,omitempty"`
	Anomalies  *models.AnomalySummary  `json:"anomalies,omitempty"`
	Trend      *models.TrendSeries     `json:"trend,omitempty"`
}

// Dispatch runs q against the handler.
func (h *Handler) Dispatch(ctx context.Context, q Query) (*Result, error) {
	res := &Result{}

	switch q := q.(type) {
	case PredictIndexQuery:
		p, err := h.PredictIndex(ctx, q.PM10, q.PM25, q.NO2)
		if err != nil {
			return nil, err
		}
		res.Prediction = p
	case ClassifyCityQuery:
		s, err := h.ClassifyCity(ctx, q.Country, q.City)
		if err != nil {
			return nil, err
		}
		res.Severity = s
	case DetectAnomaliesQuery:
		a, err := h.DetectAnomalies()
		if err != nil {
			return nil, err
		}
		res.Anomalies = a
	case TrendForCityQuery:
		res.Trend = h.TrendForCity(q.City)
	default:
		return nil, &ValidationError{Field: "intent", Reason: fmt.Sprintf("unsupported query %T", q)}
	}

	res.Intent = q.Intent()
	res.IntentName = res.Intent.String()
	return res, nil
}

package analysis

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mr1hm/airsense/internal/models"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		in   QueryInput
		want Query
	}{
		{QueryInput{Intent: "predict_index", PM10: 1, PM25: 2, NO2: 3}, PredictIndexQuery{PM10: 1, PM25: 2, NO2: 3}},
		{QueryInput{Intent: "Pollution Index Prediction", PM10: 4}, PredictIndexQuery{PM10: 4}},
		{QueryInput{Intent: "classify_city", Country: "India", City: "Delhi"}, ClassifyCityQuery{Country: "India", City: "Delhi"}},
		{QueryInput{Intent: "anomalies"}, DetectAnomaliesQuery{}},
		{QueryInput{Intent: " TREND ", City: "Beijing"}, TrendForCityQuery{City: "Beijing"}},
	}

	for _, tt := range tests {
		got, err := BuildQuery(tt.in)
		if err != nil {
			t.Errorf("BuildQuery(%q) failed: %v", tt.in.Intent, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("BuildQuery(%q): expected %#v, got %#v", tt.in.Intent, tt.want, got)
		}
	}

	_, err := BuildQuery(QueryInput{Intent: "forecast_weather"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for unknown intent, got %v", err)
	}
}

func TestDispatch(t *testing.T) {
	h := newTestHandler(t, &fakeRegressor{out: 120}, &fakeClusterer{id: 1}, MatchLatest)
	ctx := context.Background()

	tests := []struct {
		q      Query
		intent models.Intent
		check  func(*Result) bool
	}{
		{PredictIndexQuery{PM10: 1, PM25: 2, NO2: 3}, models.IntentPredictIndex, func(r *Result) bool {
			return r.Prediction != nil && r.Prediction.Category == models.CategoryUnhealthySensitive
		}},
		{ClassifyCityQuery{Country: "china", City: "beijing"}, models.IntentClassifyCity, func(r *Result) bool {
			return r.Severity != nil && r.Severity.Severity == models.SeverityModerate
		}},
		{DetectAnomaliesQuery{}, models.IntentDetectAnomalies, func(r *Result) bool {
			return r.Anomalies != nil && r.Anomalies.Total == 6
		}},
		{TrendForCityQuery{City: "Delhi"}, models.IntentTrendForCity, func(r *Result) bool {
			return r.Trend != nil && len(r.Trend.Points) == 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.intent.String(), func(t *testing.T) {
			res, err := h.Dispatch(ctx, tt.q)
			if err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if res.Intent != tt.intent || res.IntentName != tt.intent.String() {
				t.Errorf("expected intent %s, got %s (%s)", tt.intent, res.Intent, res.IntentName)
			}
			if !tt.check(res) {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}
}

func TestDispatch_PropagatesErrors(t *testing.T) {
	h := newTestHandler(t, &fakeRegressor{}, &fakeClusterer{}, "")

	_, err := h.Dispatch(context.Background(), ClassifyCityQuery{City: "Delhi"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestDispatch_Idempotent(t *testing.T) {
	h := newTestHandler(t, &fakeRegressor{out: 77.7}, &fakeClusterer{id: 2}, "")
	ctx := context.Background()

	queries := []Query{
		PredictIndexQuery{PM10: 10, PM25: 20, NO2: 30},
		ClassifyCityQuery{Country: "India", City: "Delhi"},
		DetectAnomaliesQuery{},
		TrendForCityQuery{City: "Beijing"},
	}
	for _, q := range queries {
		a, errA := h.Dispatch(ctx, q)
		b, errB := h.Dispatch(ctx, q)
		if errA != nil || errB != nil {
			t.Fatalf("Dispatch(%T) failed: %v, %v", q, errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Dispatch(%T) not idempotent: %+v vs %+v", q, a, b)
		}
	}
}

func TestPredictIndexQuery_Clamped(t *testing.T) {
	got := PredictIndexQuery{PM10: -3, PM25: 720, NO2: 41.5}.Clamped()
	want := PredictIndexQuery{PM10: 0, PM25: 500, NO2: 41.5}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

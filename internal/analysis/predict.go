package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/mr1hm/airsense/internal/models"
)

// PredictIndex runs the regressor on [pm10, pm25, no2] and buckets the
// result. Inputs are not range-checked here; callers clamp them.
func (h *Handler) PredictIndex(ctx context.Context, pm10, pm25, no2 float64) (*models.IndexPrediction, error) {
	index, err := h.regressor.Predict(ctx, []float64{pm10, pm25, no2})
	if err != nil {
		return nil, &ModelInvocationError{Model: "regression", Err: err}
	}
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return nil, &ModelInvocationError{Model: "regression", Err: fmt.Errorf("non-finite output %v", index)}
	}

	return &models.IndexPrediction{
		PM10:     pm10,
		PM25:     pm25,
		NO2:      no2,
		Index:    index,
		Category: models.CategorizeIndex(index),
	}, nil
}

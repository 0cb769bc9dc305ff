package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr1hm/airsense/internal/analysis"
	"github.com/mr1hm/airsense/internal/history"
	"github.com/mr1hm/airsense/internal/models"
)

type Options struct {
	Backend   string
	TopCities int
}

type Handler struct {
	analysis *analysis.Handler
	history  *history.Recorder // nil when history is disabled
	opts     Options
}

func NewHandler(a *analysis.Handler, rec *history.Recorder, opts Options) *Handler {
	if opts.TopCities <= 0 {
		opts.TopCities = analysis.DefaultTopCities
	}
	return &Handler{
		analysis: a,
		history:  rec,
		opts:     opts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.POST("/predict", h.predict)
	v1.POST("/severity", h.classify)
	v1.GET("/severity/landscape", h.severityLandscape)
	v1.GET("/anomalies", h.anomalies)
	v1.GET("/anomalies/map", h.anomalyMap)
	v1.GET("/trend", h.trend)
	v1.GET("/cities", h.cities)
	v1.GET("/dashboard", h.dashboard)
	v1.GET("/model-analysis", h.modelAnalysis)
	v1.POST("/query", h.query)
	v1.GET("/history", h.listHistory)
	v1.GET("/history/:id", h.getHistory)
}

type predictRequest struct {
	PM10 *float64 `json:"pm10" binding:"required"`
	PM25 *float64 `json:"pm25" binding:"required"`
	NO2  *float64 `json:"no2" binding:"required"`
}

type severityRequest struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"records":       h.analysis.DatasetSize(),
		"anomaly_data":  h.analysis.HasAnomalies(),
		"model_backend": h.opts.Backend,
		"history":       h.history != nil,
	})
}

func (h *Handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &analysis.ValidationError{Reason: "pm10, pm25 and no2 are required numbers"})
		return
	}

	q := analysis.PredictIndexQuery{PM10: *req.PM10, PM25: *req.PM25, NO2: *req.NO2}.Clamped()
	start := time.Now()
	res, err := h.analysis.PredictIndex(c.Request.Context(), q.PM10, q.PM25, q.NO2)
	h.record(models.IntentPredictIndex, q, start, predictionSummary(res), false, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) classify(c *gin.Context) {
	var req severityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &analysis.ValidationError{Reason: "invalid JSON body"})
		return
	}

	start := time.Now()
	res, err := h.analysis.ClassifyCity(c.Request.Context(), req.Country, req.City)
	h.record(models.IntentClassifyCity, req, start, severitySummary(res), res != nil && !res.Found, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) anomalies(c *gin.Context) {
	start := time.Now()
	res, err := h.analysis.DetectAnomalies()
	h.record(models.IntentDetectAnomalies, struct{}{}, start, anomalySummary(res), false, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) anomalyMap(c *gin.Context) {
	res, err := h.analysis.DetectAnomalies()
	if err != nil {
		writeError(c, err)
		return
	}

	onlyAnomalies := c.Query("only") == "anomalies"
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(res.Points, onlyAnomalies))
}

func (h *Handler) trend(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		writeError(c, &analysis.ValidationError{Field: "city", Reason: "query parameter is required"})
		return
	}

	start := time.Now()
	res := h.analysis.TrendForCity(city)
	h.record(models.IntentTrendForCity, gin.H{"city": city}, start, trendSummary(res), len(res.Points) == 0, nil)

	c.JSON(http.StatusOK, res)
}

func (h *Handler) cities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": h.analysis.Cities()})
}

func (h *Handler) dashboard(c *gin.Context) {
	top := h.opts.TopCities
	if t := c.Query("top"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n < 1 || n > 100 {
			writeError(c, &analysis.ValidationError{Field: "top", Reason: "must be an integer between 1 and 100"})
			return
		}
		top = n
	}

	c.JSON(http.StatusOK, h.analysis.Dashboard(top))
}

func (h *Handler) modelAnalysis(c *gin.Context) {
	res, err := h.analysis.ModelAnalysis()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) severityLandscape(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"points": h.analysis.SeverityLandscape()})
}

func (h *Handler) query(c *gin.Context) {
	var in analysis.QueryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, &analysis.ValidationError{Field: "intent", Reason: "is required"})
		return
	}

	q, err := analysis.BuildQuery(in)
	if err != nil {
		writeError(c, err)
		return
	}
	if p, ok := q.(analysis.PredictIndexQuery); ok {
		q = p.Clamped()
	}

	start := time.Now()
	res, err := h.analysis.Dispatch(c.Request.Context(), q)
	notFound := res != nil && ((res.Severity != nil && !res.Severity.Found) || (res.Trend != nil && len(res.Trend.Points) == 0))
	h.record(q.Intent(), q, start, resultSummary(res), notFound, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) listHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query history is disabled"})
		return
	}

	filter := history.Filter{
		Limit: 20,
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if i := c.Query("intent"); i != "" {
		if intent := models.ParseIntent(i); intent != models.IntentUnspecified {
			filter.Intent = intent.String()
		}
	}
	if o := c.Query("outcome"); o != "" {
		filter.Outcome = models.QueryOutcome(o)
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}

	entries, err := h.history.Recent(c.Request.Context(), filter)
	if err != nil {
		slog.Error("failed to list history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) getHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query history is disabled"})
		return
	}

	e, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "history entry not found"})
		return
	}
	if err != nil {
		slog.Error("failed to get history entry", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history entry"})
		return
	}

	c.JSON(http.StatusOK, e)
}

func (h *Handler) record(intent models.Intent, params any, start time.Time, summary string, notFound bool, err error) {
	if h.history == nil {
		return
	}

	raw, mErr := json.Marshal(params)
	if mErr != nil {
		raw = []byte("{}")
	}

	e := models.HistoryEntry{
		Intent:  intent.String(),
		Params:  string(raw),
		Outcome: models.OutcomeOK,
		Summary: summary,
		Latency: time.Since(start),
	}
	switch {
	case err != nil:
		e.Outcome = models.OutcomeError
		e.Error = err.Error()
	case notFound:
		e.Outcome = models.OutcomeNotFound
	}
	h.history.Record(e)
}

// writeError maps handler errors to HTTP statuses. Anything unrecognised,
// including an unmapped cluster, is a 500.
func writeError(c *gin.Context, err error) {
	var (
		validation *analysis.ValidationError
		ambiguous  *analysis.AmbiguousMatchError
		missing    *analysis.DataUnavailableError
		model      *analysis.ModelInvocationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &ambiguous):
		status = http.StatusConflict
	case errors.As(err, &missing):
		status = http.StatusServiceUnavailable
	case errors.As(err, &model):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func predictionSummary(p *models.IndexPrediction) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f (%s)", p.Index, p.Category)
}

func severitySummary(s *models.SeverityResult) string {
	if s == nil || !s.Found {
		return ""
	}
	return fmt.Sprintf("%s, %s: %s", s.City, s.Country, s.Severity)
}

func anomalySummary(a *models.AnomalySummary) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%d of %d flagged", a.Anomalies, a.Total)
}

func trendSummary(t *models.TrendSeries) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%d points", len(t.Points))
}

func resultSummary(r *analysis.Result) string {
	if r == nil {
		return ""
	}
	switch {
	case r.Prediction != nil:
		return predictionSummary(r.Prediction)
	case r.Severity != nil:
		return severitySummary(r.Severity)
	case r.Anomalies != nil:
		return anomalySummary(r.Anomalies)
	case r.Trend != nil:
		return trendSummary(r.Trend)
	}
	return ""
}

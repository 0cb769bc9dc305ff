package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewHandler_Formats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "info", "json")).Info("loaded dataset", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "loaded dataset" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}

	buf.Reset()
	slog.New(NewHandler(&buf, "info", "text")).Info("loaded dataset", "rows", 3)
	if !strings.Contains(buf.String(), "rows=3") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNewHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn", "json"))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn record")
	}
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, "debug", "json")))
	defer slog.SetDefault(prev)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":404`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("expected warn access log with status 404, got %q", out)
	}
}

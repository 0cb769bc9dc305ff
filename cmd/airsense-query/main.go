// Command airsense-query answers a single query against the local datasets
// and models and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mr1hm/airsense/internal/analysis"
	"github.com/mr1hm/airsense/internal/app"
	"github.com/mr1hm/airsense/internal/config"
	"github.com/mr1hm/airsense/internal/logging"
)

func main() {
	var in analysis.QueryInput
	flag.StringVar(&in.Intent, "intent", "", "predict_index, classify_city, detect_anomalies or trend_for_city")
	flag.Float64Var(&in.PM10, "pm10", 0, "PM10 concentration")
	flag.Float64Var(&in.PM25, "pm25", 0, "PM2.5 concentration")
	flag.Float64Var(&in.NO2, "no2", 0, "NO2 concentration")
	flag.StringVar(&in.Country, "country", "", "country name")
	flag.StringVar(&in.City, "city", "", "city name")
	dashboard := flag.Bool("dashboard", false, "print the dashboard summary instead of running a query")
	top := flag.Int("top", analysis.DefaultTopCities, "number of cities in the dashboard ranking")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	// stdout carries the result.
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, _, err := app.NewHandler(ctx, cfg)
	if err != nil {
		logging.Fatalf("Failed to load data: %v", err)
	}

	var out any
	if *dashboard {
		out = h.Dashboard(*top)
	} else {
		out, err = runQuery(ctx, h, in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logging.Fatalf("failed to encode result: %v", err)
	}
}

func runQuery(ctx context.Context, h *analysis.Handler, in analysis.QueryInput) (*analysis.Result, error) {
	q, err := analysis.BuildQuery(in)
	if err != nil {
		return nil, err
	}
	if p, ok := q.(analysis.PredictIndexQuery); ok {
		q = p.Clamped()
	}
	return h.Dispatch(ctx, q)
}

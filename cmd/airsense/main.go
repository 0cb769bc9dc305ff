package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/airsense/internal/api"
	"github.com/mr1hm/airsense/internal/app"
	"github.com/mr1hm/airsense/internal/config"
	"github.com/mr1hm/airsense/internal/history"
	"github.com/mr1hm/airsense/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "model_backend", cfg.Models.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, bank, err := app.NewHandler(ctx, cfg)
	if err != nil {
		logging.Fatalf("Failed to load data: %v", err)
	}

	var recorder *history.Recorder
	if cfg.History.Enabled {
		repo, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			logging.Fatalf("Failed to initialize history store: %v", err)
		}
		defer repo.Close()

		recorder = history.NewRecorder(repo, cfg.Worker.Count, cfg.Worker.BufferSize)
		recorder.Start(ctx)
		slog.Info("query history enabled", "driver", cfg.History.Driver)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.GinLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS))

	api.NewHandler(handler, recorder, api.Options{
		Backend:   bank.Backend,
		TopCities: cfg.Analysis.TopCities,
	}).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Flush history before the workers' context is cancelled.
	if recorder != nil {
		recorder.Stop()
	}
	cancel()

	slog.Info("shutdown complete")
}

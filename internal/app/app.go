// Package app wires configuration into a ready analysis handler. Both
// commands share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mr1hm/airsense/internal/analysis"
	"github.com/mr1hm/airsense/internal/config"
	"github.com/mr1hm/airsense/internal/dataset"
	"github.com/mr1hm/airsense/internal/modelbank"
	"golang.org/x/sync/errgroup"
)

// LoadBank loads the models for the configured backend.
func LoadBank(ctx context.Context, cfg config.ModelsConfig) (*modelbank.Bank, error) {
	switch cfg.Backend {
	case modelbank.BackendHTTP:
		features := modelbank.ClusterFeatures5
		if cfg.ClusterFeatures == 4 {
			features = modelbank.ClusterFeatures4
		}
		remote := modelbank.NewRemote(cfg.ServiceURL, cfg.Timeout, features)
		if err := remote.Health(ctx); err != nil {
			// The sidecar may start after us; requests fail with 502 until it is up.
			slog.Warn("model service not reachable", "url", cfg.ServiceURL, "error", err)
		}
		return modelbank.LoadRemote(remote, cfg.SeverityMapPath)
	default:
		return modelbank.LoadFiles(modelbank.Paths{
			Regressor:   cfg.RegressorPath,
			Clusterer:   cfg.ClustererPath,
			SeverityMap: cfg.SeverityMapPath,
		})
	}
}

// NewHandler loads datasets and models concurrently. A missing main dataset
// or model is an error; a missing anomaly dataset is only logged.
func NewHandler(ctx context.Context, cfg *config.Config) (*analysis.Handler, *modelbank.Bank, error) {
	policy, err := analysis.ParseMatchPolicy(cfg.Analysis.MatchPolicy)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid match policy: %w", err)
	}

	var (
		data      *dataset.Dataset
		anomalies *dataset.Dataset
		bank      *modelbank.Bank
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := dataset.Load(gctx, cfg.Data.Path)
		if err != nil {
			return &analysis.DataUnavailableError{Resource: "dataset", Err: err}
		}
		data = d
		return nil
	})
	g.Go(func() error {
		b, err := LoadBank(gctx, cfg.Models)
		if err != nil {
			return &analysis.DataUnavailableError{Resource: "models", Err: err}
		}
		bank = b
		return nil
	})
	if cfg.Data.AnomalyPath != "" {
		g.Go(func() error {
			a, err := dataset.Load(gctx, cfg.Data.AnomalyPath)
			switch {
			case err != nil:
				slog.Warn("anomaly dataset not loaded", "path", cfg.Data.AnomalyPath, "error", err)
			case !a.HasAnomalyFlags():
				slog.Warn("anomaly dataset has no anomaly column", "path", cfg.Data.AnomalyPath)
			default:
				anomalies = a
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	h, err := analysis.New(analysis.Context{
		Dataset:     data,
		Anomalies:   anomalies,
		MatchPolicy: policy,
	}.FromBank(bank))
	if err != nil {
		return nil, nil, err
	}
	return h, bank, nil
}

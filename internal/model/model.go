// Package model holds the predictor adapters. Both treat the trained model
// as an opaque function from a feature record to kWh.
package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/config"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
)

// Handle is a loaded predictor.
type Handle interface {
	Predict(ctx context.Context, rec features.Record) (float64, error)
	Name() string
	Version() string
}

// Load builds the predictor selected by cfg. It is called once at startup.
func Load(ctx context.Context, cfg config.PredictorConfig) (Handle, error) {
	switch cfg.Kind {
	case config.PredictorLinear:
		l, err := LoadLinear(cfg.ArtifactPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded linear model artifact",
			"path", cfg.ArtifactPath,
			"name", l.Name(),
			"version", l.Version())
		return l, nil

	case config.PredictorRemote:
		r, err := NewRemote(ctx, RemoteConfig{Endpoint: cfg.Endpoint, Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		slog.Info("Connected to remote model endpoint", "endpoint", r.Version())
		return r, nil
	}

	return nil, errors.NewConfigurationError(fmt.Sprintf("unknown predictor kind %q", cfg.Kind), nil)
}

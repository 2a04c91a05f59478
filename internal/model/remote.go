package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
)

// RemoteConfig configures a model-serving endpoint
type RemoteConfig struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
}

// Remote calls a model-serving endpoint that speaks the MLflow scoring
// protocol. Failed calls are returned as-is; there is no retry.
type Remote struct {
	endpoint string
	client   *http.Client
}

type dataframeSplit struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

type invocationRequest struct {
	DataframeSplit dataframeSplit `json:"dataframe_split"`
}

type invocationResponse struct {
	Predictions []float64 `json:"predictions"`
}

// NewRemote probes the endpoint and returns a ready adapter. A failed probe
// is a configuration error.
func NewRemote(ctx context.Context, cfg RemoteConfig) (*Remote, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewConfigurationError("remote predictor endpoint is empty", nil)
	}

	client := cfg.Client
	if client == nil {
		client = newHTTPClient(cfg.Timeout)
	}

	r := &Remote{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   client,
	}

	if err := r.Ping(ctx); err != nil {
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("remote predictor %s is not reachable", r.endpoint), err)
	}
	return r, nil
}

// newHTTPClient returns a client with a pooled transport sized for a single
// upstream host.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          20,
		MaxConnsPerHost:       20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Ping checks the endpoint health route.
func (r *Remote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer errors.SafeClose(resp.Body, "ping response body")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned status %d", resp.StatusCode)
	}
	return nil
}

// Predict implements prediction.Predictor.
func (r *Remote) Predict(ctx context.Context, rec features.Record) (float64, error) {
	payload, err := json.Marshal(invocationRequest{
		DataframeSplit: dataframeSplit{
			Columns: rec.Columns(),
			Data:    [][]interface{}{rec.Values()},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("encode invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/invocations", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("invoke model: %w", err)
	}
	defer errors.SafeClose(resp.Body, "invocation response body")

	slog.Debug("Model invocation completed",
		"endpoint", r.endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("model endpoint error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out invocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode predictions: %w", err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

// Name identifies the adapter.
func (r *Remote) Name() string { return "remote" }

// Version returns the endpoint the adapter talks to.
func (r *Remote) Version() string { return r.endpoint }

// Close releases idle connections.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

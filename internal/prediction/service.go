// Package prediction runs one request through the pipeline:
// assemble, preprocess, predict, normalize.
package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/monitoring"
)

// Unit of every prediction.
const Unit = "kWh"

// Predictor is an opaque trained function from a record to kWh.
type Predictor interface {
	Predict(ctx context.Context, rec features.Record) (float64, error)
}

// Preprocessor transforms a record before it reaches the predictor.
type Preprocessor interface {
	Preprocess(rec features.Record) features.Record
}

// Identity is the preprocessing stage in use today. It returns the record
// unchanged.
type Identity struct{}

// Preprocess implements Preprocessor.
func (Identity) Preprocess(rec features.Record) features.Record { return rec }

// Result is the outcome of one prediction.
type Result struct {
	Record        features.Record            `json:"record"`
	Calendar      features.Calendar          `json:"calendar"`
	Prediction    float64                    `json:"prediction"`
	Formatted     string                     `json:"formatted"`
	Unit          string                     `json:"unit"`
	Contributions analysis.ContributionTable `json:"contributions"`
}

// Service wires the pipeline stages together. It holds no per-request state.
type Service struct {
	predictor     Predictor
	preprocessor  Preprocessor
	predictorName string
	logger        *monitoring.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPreprocessor replaces the identity stage.
func WithPreprocessor(p Preprocessor) Option {
	return func(s *Service) { s.preprocessor = p }
}

// WithLogger sets the logger used for prediction events.
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service around an initialized predictor.
func NewService(predictor Predictor, predictorName string, opts ...Option) *Service {
	s := &Service{
		predictor:     predictor,
		preprocessor:  Identity{},
		predictorName: predictorName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictorName returns the name of the wrapped predictor.
func (s *Service) PredictorName() string { return s.predictorName }

// Predict runs in through the pipeline. Predictor errors are returned
// wrapped but otherwise untouched; no fallback value is produced.
func (s *Service) Predict(ctx context.Context, in features.Input) (*Result, error) {
	rec := features.Assemble(in)
	processed := s.preprocessor.Preprocess(rec)

	start := time.Now()
	y, err := s.predictor.Predict(ctx, processed)
	elapsed := time.Since(start)
	if err != nil {
		monitoring.ObservePrediction(elapsed, monitoring.OutcomeError)
		if s.logger != nil {
			s.logger.ExternalAPILogger(s.predictorName, elapsed, err)
		}
		return nil, fmt.Errorf("predict: %w", err)
	}
	monitoring.ObservePrediction(elapsed, monitoring.OutcomeSuccess)

	table := analysis.Contributions(rec)
	if !table.Defined {
		monitoring.IncContributionsUndefined()
	}

	if s.logger != nil {
		s.logger.PredictionLogger(s.predictorName, rec.CampusBuilding, rec.Category, y, table.Defined, elapsed)
	}

	return &Result{
		Record:        rec,
		Calendar:      features.DeriveCalendar(in.Timestamp),
		Prediction:    y,
		Formatted:     Format(y),
		Unit:          Unit,
		Contributions: table,
	}, nil
}

// Format renders a prediction with three decimals.
func Format(y float64) string {
	return fmt.Sprintf("%.3f", y)
}

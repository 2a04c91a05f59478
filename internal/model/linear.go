package model

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
	"gopkg.in/yaml.v3"
)

// Artifact is the serialized form of a linear model. JSON artifacts are
// accepted too since JSON is valid YAML.
type Artifact struct {
	Name         string                        `yaml:"name" json:"name"`
	Version      string                        `yaml:"version" json:"version"`
	Features     []string                      `yaml:"features" json:"features"`
	Intercept    float64                       `yaml:"intercept" json:"intercept"`
	Coefficients map[string]float64            `yaml:"coefficients" json:"coefficients"`
	Levels       map[string]map[string]float64 `yaml:"levels" json:"levels"`
}

// Linear scores a record as intercept + Σ coef·value + level offsets.
// It is read-only once loaded.
type Linear struct {
	artifact    Artifact
	numeric     []string
	categorical []string
}

// LoadLinear reads and checks a linear artifact. Any failure is a
// configuration error.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("read model artifact %s", path), err)
	}

	var art Artifact
	if err := yaml.Unmarshal(data, &art); err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("parse model artifact %s", path), err)
	}

	return NewLinear(art)
}

// NewLinear checks art against the record schema.
func NewLinear(art Artifact) (*Linear, error) {
	if err := checkSchema(art); err != nil {
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("model artifact %q is incompatible: %v", art.Name, err), err)
	}

	l := &Linear{artifact: art}
	for _, col := range art.Features {
		if features.IsCategorical(col) {
			l.categorical = append(l.categorical, col)
		} else {
			l.numeric = append(l.numeric, col)
		}
	}
	return l, nil
}

func checkSchema(art Artifact) error {
	if len(art.Features) != len(features.Columns) {
		return fmt.Errorf("expected %d features, artifact lists %d", len(features.Columns), len(art.Features))
	}
	for i, col := range features.Columns {
		if art.Features[i] != col {
			return fmt.Errorf("feature %d is %q, expected %q", i, art.Features[i], col)
		}
	}

	var missing []string
	for _, col := range features.Columns {
		if features.IsCategorical(col) {
			continue
		}
		if _, ok := art.Coefficients[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing coefficients for %v", missing)
	}

	for col := range art.Coefficients {
		if features.IsCategorical(col) || !isColumn(col) {
			return fmt.Errorf("coefficient for unknown numeric column %q", col)
		}
	}
	for col := range art.Levels {
		if !features.IsCategorical(col) {
			return fmt.Errorf("levels for non-categorical column %q", col)
		}
	}
	return nil
}

func isColumn(name string) bool {
	for _, col := range features.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Predict implements prediction.Predictor. Unknown categorical levels
// contribute nothing.
func (l *Linear) Predict(ctx context.Context, rec features.Record) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	y := l.artifact.Intercept
	for _, col := range l.numeric {
		v, _ := rec.Numeric(col)
		y += l.artifact.Coefficients[col] * v
	}
	for _, col := range l.categorical {
		level, _ := rec.Categorical(col)
		y += l.artifact.Levels[col][level]
	}
	return y, nil
}

// Name returns the artifact name.
func (l *Linear) Name() string { return l.artifact.Name }

// Version returns the artifact version.
func (l *Linear) Version() string { return l.artifact.Version }

// Levels returns the known levels of a categorical column, sorted.
func (l *Linear) Levels(column string) []string {
	out := make([]string, 0, len(l.artifact.Levels[column]))
	for level := range l.artifact.Levels[column] {
		out = append(out, level)
	}
	sort.Strings(out)
	return out
}

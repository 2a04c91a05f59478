package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/prediction"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr string
	}{
		{"valid", validBody(t, nil), ""},
		{"missing field", validBody(t, func(m map[string]interface{}) { delete(m, "room_area") }), "room_area is required"},
		{"out of range", validBody(t, func(m map[string]interface{}) { m["wind_direction"] = 360 }), "wind_direction must be between 0 and 359"},
		{"malformed", []byte(`{`), "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeRequest(tt.body)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, req)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "req.json", []byte(`{"a":1}`))

	data, err := readInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	data, err = readInput("-", strings.NewReader(`{"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(data))

	_, err = readInput(filepath.Join(dir, "missing.json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input: ")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteReport(t *testing.T) {
	t.Run("defined", func(t *testing.T) {
		var buf bytes.Buffer
		res := &prediction.Result{
			Formatted: "42.000",
			Unit:      prediction.Unit,
			Contributions: analysis.ContributionTable{
				Defined:  true,
				RatioSum: 1,
				Contributors: []analysis.Contributor{
					{Name: "gross_floor_area", Value: 5459749, Max: 5459749, Ratio: 1, Contribution: 100},
				},
			},
		}
		require.NoError(t, writeReport(&buf, res))

		out := buf.String()
		assert.Contains(t, out, "Predicted energy consumption: 42.000 kWh")
		assert.Contains(t, out, "gross_floor_area")
		assert.Contains(t, out, "100.00")
	})

	t.Run("undefined", func(t *testing.T) {
		var buf bytes.Buffer
		res := &prediction.Result{Formatted: "7.000", Unit: prediction.Unit}
		require.NoError(t, writeReport(&buf, res))
		assert.Contains(t, buf.String(), "feature ratios sum to zero")
	})
}

func TestPredictCommand(t *testing.T) {
	artifact, err := filepath.Abs("../../configs/model.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", []byte(
		"predictor:\n  kind: linear\n  artifactPath: "+artifact+"\nlogging:\n  level: error\n"))
	inPath := writeFile(t, dir, "req.json", validBody(t, nil))

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		app := newCLI()
		app.Writer = &out
		app.ErrWriter = io.Discard

		require.NoError(t, app.Run([]string{"energy-predictor", "--config", cfgPath, "predict", "--input", inPath}))
		assert.Contains(t, out.String(), "Predicted energy consumption:")
		assert.Contains(t, out.String(), "CONTRIBUTION %")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		app := newCLI()
		app.Writer = &out
		app.ErrWriter = io.Discard

		require.NoError(t, app.Run([]string{"energy-predictor", "--config", cfgPath, "predict", "--input", inPath, "--json"}))

		var resp types.PredictResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, prediction.Format(resp.Prediction), resp.Formatted)
		assert.Equal(t, "campus-energy-linear", resp.Predictor)
		assert.True(t, resp.Contributions.Defined)
	})
}

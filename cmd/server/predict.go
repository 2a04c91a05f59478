package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/config"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/model"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/prediction"
	"github.com/ZanzyTHEbar/energy-o-meter/internal/types"
	"github.com/urfave/cli/v2"
)

func predictCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.Logging, c.App.ErrWriter)

	data, err := readInput(c.String("input"), os.Stdin)
	if err != nil {
		return err
	}

	req, err := decodeRequest(data)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	in, err := req.ToInput()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	predictor, err := model.Load(c.Context, cfg.Predictor)
	if err != nil {
		return err
	}
	if closer, ok := predictor.(io.Closer); ok {
		defer errors.SafeClose(closer, "predictor")
	}

	svc := prediction.NewService(predictor, predictor.Name(), prediction.WithLogger(logger))
	res, err := svc.Predict(c.Context, in)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(types.PredictResponse{
			Prediction:    res.Prediction,
			Formatted:     res.Formatted,
			Unit:          res.Unit,
			Predictor:     svc.PredictorName(),
			Record:        res.Record,
			Contributions: res.Contributions,
			Inputs:        types.Summarize(in),
			Timestamp:     time.Now().UTC(),
		})
	}
	return writeReport(c.App.Writer, res)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, "read input")
	}
	return data, nil
}

// decodeRequest applies the same checks as POST /api/predict
func decodeRequest(data []byte) (*types.PredictRequest, error) {
	var req types.PredictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fieldError(types.FieldErrors(err))
	}
	if err := req.Validate(); err != nil {
		return nil, fieldError(types.FieldErrors(err))
	}
	return &req, nil
}

func fieldError(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s %s", name, fields[name]))
	}
	return fmt.Errorf("invalid request:\n%s", strings.Join(lines, "\n"))
}

func writeReport(w io.Writer, res *prediction.Result) error {
	fmt.Fprintf(w, "Predicted energy consumption: %s %s\n\n", res.Formatted, res.Unit)

	if !res.Contributions.Defined {
		_, err := fmt.Fprintln(w, "Feature contributions are undefined: feature ratios sum to zero.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "FEATURE\tVALUE\tMAX\tCONTRIBUTION %\t")
	for _, c := range res.Contributions.Contributors {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%.2f\t\n", c.Name, c.Value, c.Max, c.Contribution)
	}
	return tw.Flush()
}

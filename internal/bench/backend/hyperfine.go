package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
	"github.com/DjordjeVuckovic/fineregr/internal/shell"
)

const DefaultHyperfine = "hyperfine"

// Hyperfine runs https://github.com/sharkdp/hyperfine and reads back its
// JSON export.
type Hyperfine struct {
	runner shell.Runner
	bin    string
	args   []string
}

func NewHyperfine(runner shell.Runner, bin string, extraArgs []string) *Hyperfine {
	if bin == "" {
		bin = DefaultHyperfine
	}
	return &Hyperfine{runner: runner, bin: bin, args: extraArgs}
}

func (h *Hyperfine) Name() string { return h.bin }

func (h *Hyperfine) Measure(ctx context.Context, command, dir string, warmup int) (*record.Success, error) {
	f, err := os.CreateTemp("", "fineregr-*.json")
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	export := f.Name()
	f.Close()
	defer os.Remove(export)

	args := []string{"--export-json", export, "--warmup", fmt.Sprint(warmup), "--style", "none"}
	args = append(args, h.args...)
	args = append(args, "--", command)

	res, err := h.runner.Run(ctx, dir, h.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.bin, err)
	}
	if !res.Success() {
		slog.Warn("benchmark failed", "command", command, "exit", res.ExitCode, "output", res.Tail(10))
		return nil, apperr.NewMeasurement(apperr.StageMeasure, command, res.ExitCode)
	}

	data, err := os.ReadFile(export)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}
	s, err := record.FromBackend(command, data)
	if err != nil {
		return nil, apperr.NewMeasurementWrap(apperr.StageMeasure, command, err)
	}
	return s, nil
}

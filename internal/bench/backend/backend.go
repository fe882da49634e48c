package backend

import (
	"context"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
)

// Backend measures a command's wall-clock time.
//
// Failures of the command itself, or output the backend could not make sense
// of, are returned as *apperr.MeasurementError. Any other error means the
// backend could not be run at all.
type Backend interface {
	Measure(ctx context.Context, command, dir string, warmup int) (*record.Success, error)
	Name() string
}

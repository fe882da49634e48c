package backend

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportRunner pretends to be hyperfine: it writes export to the path given
// after --export-json and exits with code.
type exportRunner struct {
	export string
	code   int
	err    error

	dir  string
	args []string
}

func (r *exportRunner) Run(_ context.Context, dir string, name string, args ...string) (shell.Result, error) {
	r.dir = dir
	r.args = append([]string{name}, args...)
	if r.err != nil {
		return shell.Result{}, r.err
	}
	if i := slices.Index(args, "--export-json"); i >= 0 && r.export != "" {
		if err := os.WriteFile(args[i+1], []byte(r.export), 0o644); err != nil {
			return shell.Result{}, err
		}
	}
	return shell.Result{ExitCode: r.code, Stderr: "Command terminated with non-zero exit code"}, nil
}

func TestHyperfine_Measure(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		r := &exportRunner{export: `{"results":[{"command":"sleep 0.1","mean":0.1,"times":[0.1,0.11]}]}`}
		h := NewHyperfine(r, "", []string{"--runs", "2"})

		s, err := h.Measure(ctx, "sleep 0.1", "/work", 5)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.11}, s.Times)
		assert.Equal(t, "/work", r.dir)
		assert.Equal(t, "hyperfine", r.args[0])
		assert.Contains(t, r.args, "--warmup")
		assert.Equal(t, "5", r.args[slices.Index(r.args, "--warmup")+1])
		assert.Equal(t, []string{"--runs", "2", "--", "sleep 0.1"}, r.args[len(r.args)-4:])
	})

	t.Run("non-zero exit is a measurement error", func(t *testing.T) {
		h := NewHyperfine(&exportRunner{code: 1}, "", nil)
		_, err := h.Measure(ctx, "false", "/work", 0)
		require.Error(t, err)
		var me *apperr.MeasurementError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, apperr.StageMeasure, me.Stage)
		assert.Equal(t, 1, me.ExitCode)
	})

	t.Run("malformed export is a measurement error", func(t *testing.T) {
		h := NewHyperfine(&exportRunner{export: `{"results":[]}`}, "", nil)
		_, err := h.Measure(ctx, "true", "/work", 0)
		assert.True(t, apperr.IsMeasurement(err))
	})

	t.Run("spawn failure is not a measurement error", func(t *testing.T) {
		h := NewHyperfine(&exportRunner{err: shell.ErrSpawn}, "", nil)
		_, err := h.Measure(ctx, "true", "/work", 0)
		require.Error(t, err)
		assert.False(t, apperr.IsMeasurement(err))
		assert.True(t, errors.Is(err, shell.ErrSpawn))
	})
}

// Package sweep measures every configured benchmark at every selected
// revision, recording each outcome exactly once in the result cache.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/backend"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/cache"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
	"github.com/DjordjeVuckovic/fineregr/internal/shell"
	"github.com/DjordjeVuckovic/fineregr/internal/vcs"
	"github.com/google/uuid"
)

// Hook runs after a new result has been written.
type Hook func(ctx context.Context) error

type Stats struct {
	// Revisions is the number of revisions that were checked out.
	Revisions int
	// Skipped counts revisions with every benchmark already cached.
	Skipped  int
	Hits     int
	Measured int
	Failures int
}

type Driver struct {
	config  Config
	source  vcs.Source
	store   *cache.Store
	backend backend.Backend
	runner  shell.Runner
	hook    Hook
}

func New(cfg Config, source vcs.Source, store *cache.Store, be backend.Backend, runner shell.Runner) *Driver {
	return &Driver{
		config:  cfg,
		source:  source,
		store:   store,
		backend: be,
		runner:  runner,
	}
}

// OnRecord installs a hook called after every newly recorded pair.
// Hook errors are logged and otherwise ignored.
func (d *Driver) OnRecord(h Hook) {
	d.hook = h
}

type benchmark struct {
	command string
	id      cache.BenchmarkID
}

// Run performs one sweep. Measurement failures are recorded and the sweep
// moves on. Any other error stops the sweep and is returned.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	var st Stats
	log := slog.With("sweep_id", uuid.NewString())

	if err := d.source.Sync(ctx); err != nil {
		return st, fmt.Errorf("sync repository: %w", err)
	}
	all, err := d.source.Revisions(ctx)
	if err != nil {
		return st, fmt.Errorf("list revisions: %w", err)
	}
	revs := Select(all, d.config.MaxRevisions, d.config.OldestFirst)

	benches := make([]benchmark, len(d.config.Benchmarks))
	for i, cmd := range d.config.Benchmarks {
		benches[i] = benchmark{command: cmd, id: cache.ID(cmd)}
	}

	log.Info("sweep started",
		"revisions", len(revs),
		"available", len(all),
		"benchmarks", len(benches),
		"backend", d.backend.Name(),
	)

	for i, rev := range revs {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		pending, err := d.pending(benches, rev)
		if err != nil {
			return st, err
		}
		st.Hits += len(benches) - len(pending)
		if len(pending) == 0 {
			st.Skipped++
			log.Debug("revision fully cached", "rev", rev)
			continue
		}

		if err := d.source.Checkout(ctx, rev); err != nil {
			return st, fmt.Errorf("checkout %s: %w", rev, err)
		}
		st.Revisions++
		log.Info("measuring revision", "rev", rev, "position", i+1, "of", len(revs), "pending", len(pending))

		var meta *vcs.Metadata
		for _, b := range pending {
			var rec record.Record
			failed := false
			s, err := d.measure(ctx, b.command)
			switch {
			case err == nil:
				log.Debug("benchmark measured", "rev", rev, "benchmark", b.command, "samples", len(s.Times))
				rec = s
			case apperr.IsMeasurement(err):
				if meta == nil {
					m, err := d.source.Metadata(ctx, rev)
					if err != nil {
						return st, fmt.Errorf("fetch metadata for %s: %w", rev, err)
					}
					meta = &m
				}
				log.Warn("benchmark failed, recording failure", "rev", rev, "benchmark", b.command, "error", err)
				rec = &record.Failure{Command: b.command, Revision: rev, Message: meta.Message, Date: meta.Date}
				failed = true
			default:
				return st, fmt.Errorf("benchmark %q at %s: %w", b.command, rev, err)
			}

			if err := d.store.Put(b.id, rev, rec); err != nil {
				if !errors.Is(err, cache.ErrExists) {
					return st, fmt.Errorf("record %q at %s: %w", b.command, rev, err)
				}
				log.Warn("result recorded concurrently, keeping existing", "rev", rev, "benchmark", b.command)
				continue
			}
			if failed {
				st.Failures++
			} else {
				st.Measured++
			}

			if d.hook != nil {
				if err := d.hook(ctx); err != nil {
					log.Warn("record hook failed", "rev", rev, "error", err)
				}
			}
		}
	}

	log.Info("sweep finished",
		"checked_out", st.Revisions,
		"skipped", st.Skipped,
		"hits", st.Hits,
		"measured", st.Measured,
		"failures", st.Failures,
	)
	return st, nil
}

func (d *Driver) pending(benches []benchmark, rev string) ([]benchmark, error) {
	var out []benchmark
	for _, b := range benches {
		ok, err := d.store.Has(b.id, rev)
		if err != nil {
			return nil, fmt.Errorf("check cache for %s: %w", rev, err)
		}
		if !ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (d *Driver) measure(ctx context.Context, command string) (*record.Success, error) {
	for _, p := range d.config.Prepare {
		res, err := shell.Sh(ctx, d.runner, d.config.Dir, p)
		if err != nil {
			return nil, fmt.Errorf("prepare %q: %w", p, err)
		}
		if !res.Success() {
			slog.Warn("prepare failed", "command", p, "exit", res.ExitCode, "output", res.Tail(10))
			return nil, apperr.NewMeasurement(apperr.StagePrepare, p, res.ExitCode)
		}
	}
	return d.backend.Measure(ctx, command, d.config.Dir, d.config.Warmup)
}

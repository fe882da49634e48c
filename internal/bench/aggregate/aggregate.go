// Package aggregate flattens the result cache into plot rows joined with
// revision metadata.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/cache"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
	"github.com/DjordjeVuckovic/fineregr/internal/vcs"
)

// PlotRow is one point of the chart. Time is nil for a failed measurement.
type PlotRow struct {
	GitSHA  string   `json:"git_sha"`
	GitMsg  string   `json:"git_msg"`
	GitDate string   `json:"git_date"`
	Command string   `json:"command"`
	Time    *float64 `json:"time"`
}

func (r PlotRow) Failed() bool { return r.Time == nil }

type MetadataSource interface {
	Metadata(ctx context.Context, rev string) (vcs.Metadata, error)
}

type Aggregator struct {
	store  *cache.Store
	source MetadataSource
}

func New(store *cache.Store, source MetadataSource) *Aggregator {
	return &Aggregator{store: store, source: source}
}

// Aggregate reads every result file. Rows come out in no particular order.
// Unreadable files are skipped with a warning.
func (a *Aggregator) Aggregate(ctx context.Context) ([]PlotRow, error) {
	var (
		rows    []PlotRow
		files   int
		skipped int
		meta    = make(map[string]vcs.Metadata)
	)

	err := a.store.Walk(func(e cache.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files++

		recs, err := a.store.Read(e)
		if err != nil {
			skipped++
			slog.Warn("skipping unreadable result", "path", e.Path, "error", err)
			return nil
		}

		m, ok := meta[e.Revision]
		if !ok {
			m, err = a.source.Metadata(ctx, e.Revision)
			switch {
			case errors.Is(err, vcs.ErrUnknownRevision):
				slog.Warn("revision not in repository", "rev", e.Revision, "path", e.Path)
			case err != nil:
				return fmt.Errorf("metadata for %s: %w", e.Revision, err)
			}
			meta[e.Revision] = m
		}

		for _, rec := range recs {
			rows = append(rows, expand(e.Revision, m, rec)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("results aggregated", "files", files, "skipped", skipped, "rows", len(rows))
	return rows, nil
}

func expand(rev string, m vcs.Metadata, rec record.Record) []PlotRow {
	base := PlotRow{
		GitSHA:  rev,
		GitMsg:  m.Message,
		GitDate: m.Date,
		Command: rec.Cmd(),
	}
	switch r := rec.(type) {
	case *record.Success:
		rows := make([]PlotRow, len(r.Times))
		for i := range r.Times {
			rows[i] = base
			rows[i].Time = &r.Times[i]
		}
		return rows
	case *record.Failure:
		// Keep what was stored when the repository no longer knows the revision.
		if base.GitMsg == "" && base.GitDate == "" {
			base.GitMsg, base.GitDate = r.Message, r.Date
		}
		return []PlotRow{base}
	}
	return nil
}

// Package export mirrors aggregated rows into external stores.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/DjordjeVuckovic/fineregr/internal/config"
	"github.com/DjordjeVuckovic/fineregr/internal/vcs"
	"golang.org/x/sync/errgroup"
)

// Exporter replaces the contents of one sink with the given rows.
type Exporter interface {
	Name() string
	Export(ctx context.Context, rows []aggregate.PlotRow) error
	Close() error
}

// FromConfig connects to every configured sink. It returns no exporters when
// none are configured.
func FromConfig(ctx context.Context, cfg config.ExportConfig) ([]Exporter, error) {
	var out []Exporter
	if pg := cfg.Postgres; pg != nil {
		e, err := NewPostgres(ctx, PostgresConfig{ConnStr: pg.Connection, Table: pg.Table})
		if err != nil {
			return nil, fmt.Errorf("postgres exporter: %w", err)
		}
		out = append(out, e)
	}
	if es := cfg.Elasticsearch; es != nil {
		e, err := NewElasticsearch(ctx, ElasticsearchConfig{
			Addresses: es.Addresses,
			IndexName: es.Index,
			Username:  es.Username,
			Password:  es.Password,
		})
		if err != nil {
			CloseAll(out)
			return nil, fmt.Errorf("elasticsearch exporter: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ExportAll runs every exporter concurrently. rows must not be modified
// until it returns.
func ExportAll(ctx context.Context, exporters []Exporter, rows []aggregate.PlotRow) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range exporters {
		g.Go(func() error {
			start := time.Now()
			if err := e.Export(ctx, rows); err != nil {
				return fmt.Errorf("export to %s: %w", e.Name(), err)
			}
			slog.Info("rows exported", "sink", e.Name(), "rows", len(rows), "elapsed", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}

func CloseAll(exporters []Exporter) error {
	var errs []error
	for _, e := range exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Ordinals numbers the samples of each (command, revision) pair in the order
// they appear in rows.
func Ordinals(rows []aggregate.PlotRow) []int {
	type key struct{ command, sha string }
	next := make(map[key]int)
	out := make([]int, len(rows))
	for i, r := range rows {
		k := key{r.Command, r.GitSHA}
		out[i] = next[k]
		next[k]++
	}
	return out
}

// DocumentID identifies a row across exports, so re-exporting overwrites.
func DocumentID(r aggregate.PlotRow, ordinal int) string {
	h := sha256.New()
	h.Write([]byte(r.Command))
	h.Write([]byte{0})
	h.Write([]byte(r.GitSHA))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(ordinal)))
	return hex.EncodeToString(h.Sum(nil))
}

// parseDate returns nil for dates git did not produce.
func parseDate(s string) *time.Time {
	t, err := time.Parse(vcs.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

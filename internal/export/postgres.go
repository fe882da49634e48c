package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresConfig struct {
	ConnStr string
	Table   string
}

var pgColumns = []string{"git_sha", "git_msg", "git_date", "command", "ordinal", "time_s"}

// Postgres keeps a table that mirrors the latest aggregation.
type Postgres struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return &Postgres{pool: pool, table: pgx.Identifier{cfg.Table}}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Export(ctx context.Context, rows []aggregate.PlotRow) error {
	table := p.table.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	git_sha  TEXT NOT NULL,
	git_msg  TEXT NOT NULL,
	git_date TIMESTAMPTZ,
	command  TEXT NOT NULL,
	ordinal  INTEGER NOT NULL,
	time_s   DOUBLE PRECISION,
	PRIMARY KEY (command, git_sha, ordinal)
)`, table)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
		return fmt.Errorf("truncate table: %w", err)
	}
	n, err := tx.CopyFrom(ctx, p.table, pgColumns, pgx.CopyFromRows(pgRows(rows)))
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Debug("postgres table replaced", "table", table, "rows", n)
	return nil
}

func pgRows(rows []aggregate.PlotRow) [][]any {
	ords := Ordinals(rows)
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.GitSHA, r.GitMsg, parseDate(r.GitDate), r.Command, ords[i], r.Time}
	}
	return out
}

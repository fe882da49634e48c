//go:build integration

package export

import (
	"context"
	"testing"

	pkgtesting "github.com/DjordjeVuckovic/fineregr/pkg/testing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Integration(t *testing.T) {
	ctx := context.Background()
	pg := pkgtesting.NewPGContainerWithCleanup(ctx, t)

	exp, err := NewPostgres(ctx, PostgresConfig{ConnStr: pg.ConnString, Table: "plot_rows"})
	require.NoError(t, err)
	defer exp.Close()

	require.NoError(t, exp.Export(ctx, rows()))
	// A second export replaces the table contents.
	require.NoError(t, exp.Export(ctx, rows()[:2]))

	pool, err := pgxpool.New(ctx, pg.ConnString)
	require.NoError(t, err)
	defer pool.Close()

	var total, failed int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*), count(*) FILTER (WHERE time_s IS NULL) FROM plot_rows`).Scan(&total, &failed))
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, failed)
}

func TestElasticsearch_Integration(t *testing.T) {
	ctx := context.Background()
	es := pkgtesting.NewESContainer(ctx, t)

	exp, err := NewElasticsearch(ctx, ElasticsearchConfig{Addresses: []string{es.Address}, IndexName: "fineregr"})
	require.NoError(t, err)

	require.NoError(t, exp.Export(ctx, rows()))
	require.NoError(t, exp.Export(ctx, rows()))

	_, err = exp.client.Indices.Refresh().Index("fineregr").Do(ctx)
	require.NoError(t, err)
	res, err := exp.client.Count().Index("fineregr").Do(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Count, "re-export overwrites by id")
}

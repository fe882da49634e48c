package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(sha, date, cmd string, t ...float64) []aggregate.PlotRow {
	if len(t) == 0 {
		return []aggregate.PlotRow{{GitSHA: sha, GitDate: date, Command: cmd}}
	}
	var rows []aggregate.PlotRow
	for i := range t {
		rows = append(rows, aggregate.PlotRow{GitSHA: sha, GitDate: date, Command: cmd, Time: &t[i]})
	}
	return rows
}

func fixture() []aggregate.PlotRow {
	var rows []aggregate.PlotRow
	rows = append(rows, row("ccc", "2024-01-03 00:00:00 +0000", "bench a", 0.15, 0.15)...)
	rows = append(rows, row("aaa", "2024-01-01 00:00:00 +0000", "bench a", 0.1, 0.1, 0.1)...)
	rows = append(rows, row("bbb", "2024-01-02 00:00:00 +0000", "bench a")...)
	rows = append(rows, row("aaa", "2024-01-01 00:00:00 +0000", "bench b")...)
	return rows
}

func TestBuild(t *testing.T) {
	rep := Build(fixture())

	assert.Equal(t, 7, rep.Meta.Rows)
	require.Len(t, rep.Benchmarks, 2)

	a := rep.Benchmarks[0]
	assert.Equal(t, "bench a", a.Command)
	assert.Equal(t, 3, a.Revisions)
	assert.Equal(t, 1, a.Failures)
	require.NotNil(t, a.Oldest)
	require.NotNil(t, a.Newest)
	assert.Equal(t, "aaa", a.Oldest.GitSHA)
	assert.Equal(t, "ccc", a.Newest.GitSHA)
	assert.Equal(t, 3, a.Oldest.Stats.SampleCount)
	require.NotNil(t, a.MedianChange)
	assert.Equal(t, 50.0, *a.MedianChange)

	b := rep.Benchmarks[1]
	assert.Equal(t, "bench b", b.Command)
	assert.Equal(t, 1, b.Revisions)
	assert.Equal(t, 1, b.Failures)
	assert.Nil(t, b.Oldest)
	assert.Nil(t, b.MedianChange)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(Build(fixture()), &buf)

	out := buf.String()
	assert.Contains(t, out, "fineregr summary (7 rows)")
	assert.Contains(t, out, "bench a")
	assert.Contains(t, out, "100.00ms")
	assert.Contains(t, out, "150.00ms")
	assert.Contains(t, out, "+50.00%")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(Build(fixture()), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Benchmarks, 2)
	assert.Equal(t, "bench a", got.Benchmarks[0].Command)
	assert.NotEmpty(t, got.Meta.Environment.GoVersion)
}

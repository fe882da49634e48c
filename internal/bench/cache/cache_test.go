package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ID("sleep 0.1"), ID("sleep 0.1"))
	})

	t.Run("distinct commands differ", func(t *testing.T) {
		assert.NotEqual(t, ID("sleep 0.1"), ID("sleep 0.1 "))
		assert.NotEqual(t, ID("a"), ID("b"))
	})

	t.Run("known digest", func(t *testing.T) {
		// SHA-256 of the empty string.
		id := ID("")
		assert.Equal(t, BenchmarkID("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"), id)
		assert.True(t, id.Valid())
	})

	t.Run("valid", func(t *testing.T) {
		assert.True(t, ID("x").Valid())
		assert.False(t, BenchmarkID("abc").Valid())
		assert.False(t, BenchmarkID(strings.Repeat("g", 64)).Valid())
		assert.False(t, BenchmarkID(strings.ToUpper(string(ID("x")))).Valid())
	})
}

func TestStore_PutHas(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	id := ID("sleep 0.1")

	ok, err := s.Has(id, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := &record.Success{Command: "sleep 0.1", Times: []float64{0.1}}
	require.NoError(t, s.Put(id, "abc", rec))

	ok, err = s.Has(id, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	path := filepath.Join(root, string(id), "abc.json")
	assert.Equal(t, path, s.Path(id, "abc"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"command":"sleep 0.1","times":[0.1]}]}`, string(data))

	entries, err := os.ReadDir(filepath.Join(root, string(id)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestStore_PutIsWriteOnce(t *testing.T) {
	s := New(t.TempDir())
	id := ID("make bench")

	first := &record.Failure{Command: "make bench", Revision: "r1", Message: "first"}
	require.NoError(t, s.Put(id, "r1", first))

	second := &record.Success{Command: "make bench", Times: []float64{1}}
	err := s.Put(id, "r1", second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))

	recs, err := s.Read(Entry{ID: id, Revision: "r1", Path: s.Path(id, "r1")})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, first, recs[0])
}

func TestStore_PutConcurrentWriters(t *testing.T) {
	s := New(t.TempDir())
	id := ID("x")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Put(id, "rev", &record.Success{Command: "x", Times: []float64{float64(i)}})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exists int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrExists):
			exists++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, exists)
}

func TestStore_PutRejectsBadRevision(t *testing.T) {
	s := New(t.TempDir())
	rec := &record.Success{Command: "x", Times: []float64{1}}
	for _, rev := range []string{"", ".", "..", "a/b", ".tmp-x"} {
		assert.Error(t, s.Put(ID("x"), rev, rec), "revision %q", rev)
	}
}

func TestStore_Walk(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	a, b := ID("a"), ID("b")
	rec := &record.Success{Command: "a", Times: []float64{1}}
	require.NoError(t, s.Put(a, "r1", rec))
	require.NoError(t, s.Put(a, "r2", rec))
	require.NoError(t, s.Put(b, "r1", rec))

	// Noise that must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, string(a), ".tmp-123"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, string(a), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-benchmark"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "not-a-benchmark", "r1.json"), []byte("{}"), 0o644))

	var got []string
	err := s.Walk(func(e Entry) error {
		got = append(got, string(e.ID)[:4]+"/"+e.Revision)
		assert.Equal(t, s.Path(e.ID, e.Revision), e.Path)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		string(a)[:4] + "/r1",
		string(a)[:4] + "/r2",
		string(b)[:4] + "/r1",
	}, got)
}

func TestStore_WalkMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	calls := 0
	err := s.Walk(func(Entry) error { calls++; return nil })
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestStore_WalkStopsOnError(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Put(ID("a"), "r1", &record.Success{Command: "a", Times: []float64{1}}))

	boom := errors.New("boom")
	err := s.Walk(func(Entry) error { return boom })
	assert.True(t, errors.Is(err, boom))
}

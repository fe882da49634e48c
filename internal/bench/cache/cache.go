// Package cache stores one result file per (benchmark, revision) pair under
//
//	<root>/<hex sha256 of the benchmark command>/<revision>.json
//
// Files are written once and never modified. Deleting a file is the only way
// to have a pair measured again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DjordjeVuckovic/fineregr/internal/bench/record"
	"github.com/google/uuid"
)

const (
	fileExt   = ".json"
	tmpPrefix = ".tmp-"
)

var ErrExists = errors.New("result already recorded")

// BenchmarkID is the directory name of a benchmark command.
type BenchmarkID string

// ID returns the identifier of command: the hex SHA-256 of its exact bytes.
func ID(command string) BenchmarkID {
	sum := sha256.Sum256([]byte(command))
	return BenchmarkID(hex.EncodeToString(sum[:]))
}

func (id BenchmarkID) Valid() bool {
	if len(id) != sha256.Size*2 {
		return false
	}
	for _, c := range id {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Root() string { return s.root }

func (s *Store) Path(id BenchmarkID, rev string) string {
	return filepath.Join(s.root, string(id), rev+fileExt)
}

// Has reports whether the pair has a result file.
func (s *Store) Has(id BenchmarkID, rev string) (bool, error) {
	_, err := os.Stat(s.Path(id, rev))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat result: %w", err)
}

// Put writes rec for the pair unless a result already exists, in which case
// it returns ErrExists and leaves the existing file alone. Readers never see
// a partially written file.
func (s *Store) Put(id BenchmarkID, rev string, rec record.Record) error {
	if err := checkRevision(rev); err != nil {
		return err
	}
	data, err := record.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	dir := filepath.Join(s.root, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create benchmark dir: %w", err)
	}

	tmp := filepath.Join(dir, tmpPrefix+uuid.NewString())
	if err := writeSync(tmp, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write result: %w", err)
	}
	defer os.Remove(tmp)

	final := s.Path(id, rev)
	err = os.Link(tmp, final)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s/%s: %w", id, rev, ErrExists)
	}

	// Some filesystems do not support hard links. Fall back to rename, which
	// is still atomic but cannot refuse to replace a file created in between.
	if ok, herr := s.Has(id, rev); herr != nil {
		return herr
	} else if ok {
		return fmt.Errorf("%s/%s: %w", id, rev, ErrExists)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

func writeSync(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func checkRevision(rev string) error {
	if rev == "" || rev == "." || rev == ".." || strings.ContainsAny(rev, `/\`) || strings.HasPrefix(rev, tmpPrefix) {
		return fmt.Errorf("invalid revision id %q", rev)
	}
	return nil
}

// Entry is one result file found by Walk.
type Entry struct {
	ID       BenchmarkID
	Revision string
	Path     string
}

// Walk calls fn for every result file under the root. Files and directories
// that do not follow the layout are ignored. A missing root is not an error.
func (s *Store) Walk(fn func(Entry) error) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if path == s.root {
			return nil
		}
		if d.IsDir() {
			if filepath.Dir(path) != s.root || !BenchmarkID(d.Name()).Valid() {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Dir(path) == s.root {
			return nil
		}
		name := d.Name()
		if !d.Type().IsRegular() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, fileExt) {
			return nil
		}
		rev := strings.TrimSuffix(name, fileExt)
		if rev == "" {
			return nil
		}
		return fn(Entry{
			ID:       BenchmarkID(filepath.Base(filepath.Dir(path))),
			Revision: rev,
			Path:     path,
		})
	})
	if err != nil {
		return fmt.Errorf("walk results: %w", err)
	}
	return nil
}

// Read returns the records stored in the file of e.
func (s *Store) Read(e Entry) ([]record.Record, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	return record.Decode(data)
}

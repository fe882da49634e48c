// Package record defines the persisted outcome of measuring one benchmark at
// one revision, and its JSON encoding.
//
// Both shapes share the document layout the benchmark backend exports:
//
//	{"results":[{"command":"...","times":[0.1,0.2]}]}
//	{"results":[{"command":"...","git_sha":"...","git_msg":"...","git_date":"..."}]}
//
// An entry with a "times" key is a Success, one without is a Failure.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrMalformed = errors.New("malformed result document")

// Record is either a Success or a Failure.
type Record interface {
	Cmd() string
	// Samples returns the timings in seconds; nil for a Failure.
	Samples() []float64
	isRecord()
}

// Success holds the timings of a benchmark that ran to completion.
type Success struct {
	Command string
	Times   []float64

	// raw is the document as exported by the backend. It is written back
	// unchanged so statistics the backend adds beyond times are kept.
	raw []byte
}

func (s *Success) Cmd() string        { return s.Command }
func (s *Success) Samples() []float64 { return s.Times }
func (*Success) isRecord()            {}

// Failure marks a pair whose preparation or measurement did not complete.
type Failure struct {
	Command  string
	Revision string
	Message  string
	Date     string
}

func (f *Failure) Cmd() string      { return f.Command }
func (*Failure) Samples() []float64 { return nil }
func (*Failure) isRecord()          {}

type document struct {
	Results []entry `json:"results"`
}

type entry struct {
	Command string     `json:"command"`
	Times   *[]float64 `json:"times,omitempty"`
	GitSHA  *string    `json:"git_sha,omitempty"`
	GitMsg  *string    `json:"git_msg,omitempty"`
	GitDate *string    `json:"git_date,omitempty"`
}

// Encode returns the on-disk form of r.
func Encode(r Record) ([]byte, error) {
	switch r := r.(type) {
	case *Success:
		if len(r.raw) > 0 {
			return r.raw, nil
		}
		if err := validTimes(r.Times); err != nil {
			return nil, err
		}
		times := r.Times
		return json.Marshal(document{Results: []entry{{Command: r.Command, Times: &times}}})
	case *Failure:
		return json.Marshal(document{Results: []entry{{
			Command: r.Command,
			GitSHA:  &r.Revision,
			GitMsg:  &r.Message,
			GitDate: &r.Date,
		}}})
	default:
		return nil, fmt.Errorf("encode record: unsupported type %T", r)
	}
}

// Decode parses a result file. A document may hold several entries; each
// becomes one Record.
func Decode(data []byte) ([]Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(doc.Results) == 0 {
		return nil, fmt.Errorf("%w: no results", ErrMalformed)
	}

	recs := make([]Record, 0, len(doc.Results))
	for i, e := range doc.Results {
		if e.Times == nil {
			recs = append(recs, &Failure{
				Command:  e.Command,
				Revision: deref(e.GitSHA),
				Message:  deref(e.GitMsg),
				Date:     deref(e.GitDate),
			})
			continue
		}
		if err := validTimes(*e.Times); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		recs = append(recs, &Success{Command: e.Command, Times: *e.Times})
	}
	return recs, nil
}

// FromBackend validates a document produced by the benchmark backend for
// command and returns it as a Success that re-encodes to the same bytes.
// The command recorded by the backend wins over the one passed in, since the
// backend may have been asked to name it differently.
func FromBackend(command string, data []byte) (*Success, error) {
	recs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 result, got %d", ErrMalformed, len(recs))
	}
	s, ok := recs[0].(*Success)
	if !ok {
		return nil, fmt.Errorf("%w: result has no times", ErrMalformed)
	}
	if s.Command == "" {
		// Re-encode canonically so the file names its command.
		s.Command = command
		return s, nil
	}
	s.raw = bytes.Clone(data)
	return s, nil
}

func validTimes(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("%w: empty times", ErrMalformed)
	}
	for _, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return fmt.Errorf("%w: invalid sample %v", ErrMalformed, t)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package vcs reads revision history and moves the shared working copy.
package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/DjordjeVuckovic/fineregr/internal/shell"
)

// DateLayout matches git's %ci format.
const DateLayout = "2006-01-02 15:04:05 -0700"

var ErrUnknownRevision = errors.New("unknown revision")

type Metadata struct {
	Date    string
	Message string
}

// Source is a repository working copy.
//
// Sync and Checkout mutate the working copy. Only the sweep may call them,
// and never concurrently with anything else that reads files in the copy.
type Source interface {
	// Sync clones the repository if the working copy is missing, otherwise
	// moves it to the tip of the main line.
	Sync(ctx context.Context) error
	// Revisions lists the main line, newest first.
	Revisions(ctx context.Context) ([]string, error)
	Checkout(ctx context.Context, rev string) error
	// Metadata returns ErrUnknownRevision when rev is not in the repository.
	Metadata(ctx context.Context, rev string) (Metadata, error)
}

type Kind string

const (
	KindGit   Kind = "git"
	KindGoGit Kind = "go-git"
)

type Options struct {
	Kind       Kind
	Repository string
	Branch     string
	Dir        string
	// Runner is used by the git implementation.
	Runner shell.Runner
}

func New(opts Options) (Source, error) {
	switch opts.Kind {
	case KindGit, "":
		r := opts.Runner
		if r == nil {
			r = shell.NewLocal()
		}
		return NewGit(r, opts.Repository, opts.Branch, opts.Dir), nil
	case KindGoGit:
		return NewGoGit(opts.Repository, opts.Branch, opts.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported vcs %q", opts.Kind)
	}
}

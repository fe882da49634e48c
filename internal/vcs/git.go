// Git interactions through the git command line.

package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DjordjeVuckovic/fineregr/internal/shell"
)

type Git struct {
	runner shell.Runner
	repo   string
	branch string
	dir    string
}

func NewGit(runner shell.Runner, repo, branch, dir string) *Git {
	return &Git{runner: runner, repo: repo, branch: branch, dir: dir}
}

func (g *Git) git(ctx context.Context, dir string, args ...string) (string, error) {
	return shell.Output(ctx, g.runner, dir, "git", args...)
}

func (g *Git) Sync(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat working copy: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(g.dir), 0o755); err != nil {
			return fmt.Errorf("create working copy parent: %w", err)
		}
		if _, err := g.git(ctx, "", "clone", "--quiet", "--branch", g.branch, g.repo, g.dir); err != nil {
			return fmt.Errorf("git clone %s: %w", g.repo, err)
		}
		return nil
	}

	// A previous sweep leaves HEAD detached at some old revision.
	if _, err := g.git(ctx, g.dir, "checkout", "--quiet", "--force", g.branch, "--"); err != nil {
		return fmt.Errorf("git checkout %s: %w", g.branch, err)
	}
	if _, err := g.git(ctx, g.dir, "pull", "--quiet", "--ff-only"); err != nil {
		return fmt.Errorf("git pull: %w", err)
	}
	return nil
}

func (g *Git) Revisions(ctx context.Context) ([]string, error) {
	out, err := g.git(ctx, g.dir, "rev-list", g.branch, "--")
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", g.branch, err)
	}
	return strings.Fields(out), nil
}

func (g *Git) Checkout(ctx context.Context, rev string) error {
	if _, err := g.git(ctx, g.dir, "checkout", "--quiet", "--force", "--detach", rev, "--"); err != nil {
		return fmt.Errorf("git checkout %s: %w", rev, err)
	}
	return nil
}

func (g *Git) Metadata(ctx context.Context, rev string) (Metadata, error) {
	out, err := g.git(ctx, g.dir, "log", "-n", "1", "--format=%ci%x00%B", rev, "--")
	if err != nil {
		var ee *shell.ExitError
		if errors.As(err, &ee) {
			return Metadata{}, fmt.Errorf("%s: %w: %w", rev, ErrUnknownRevision, err)
		}
		return Metadata{}, fmt.Errorf("git log %s: %w", rev, err)
	}
	date, msg, ok := strings.Cut(out, "\x00")
	if !ok {
		return Metadata{}, fmt.Errorf("%s: %w", rev, ErrUnknownRevision)
	}
	return Metadata{
		Date:    strings.TrimSpace(date),
		Message: strings.TrimRight(msg, "\n"),
	}, nil
}

// In-process git access through go-git, for hosts without a git binary.

package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGit serialises every call: a go-git Repository is not safe for concurrent use.
type GoGit struct {
	repoURL string
	branch  plumbing.ReferenceName
	dir     string

	mu   sync.Mutex
	repo *git.Repository
}

func NewGoGit(repoURL, branch, dir string) *GoGit {
	return &GoGit{
		repoURL: repoURL,
		branch:  plumbing.NewBranchReferenceName(branch),
		dir:     dir,
	}
}

// open must be called with g.mu held.
func (g *GoGit) open() (*git.Repository, error) {
	if g.repo != nil {
		return g.repo, nil
	}
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", g.dir, err)
	}
	g.repo = repo
	return repo, nil
}

func (g *GoGit) Sync(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo, err := git.PlainOpen(g.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Info("cloning repository", "repository", g.repoURL, "dir", g.dir)
		repo, err = git.PlainCloneContext(ctx, g.dir, false, &git.CloneOptions{
			URL:           g.repoURL,
			ReferenceName: g.branch,
			SingleBranch:  true,
		})
		if err != nil {
			return fmt.Errorf("clone %s: %w", g.repoURL, err)
		}
		g.repo = repo
		return nil
	}
	if err != nil {
		return fmt.Errorf("open repository %s: %w", g.dir, err)
	}
	g.repo = repo

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: g.branch, Force: true}); err != nil {
		return fmt.Errorf("checkout %s: %w", g.branch.Short(), err)
	}

	if _, err := repo.Remote(git.DefaultRemoteName); errors.Is(err, git.ErrRemoteNotFound) {
		slog.Debug("working copy has no remote, skipping pull", "dir", g.dir)
		return nil
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: g.branch,
		SingleBranch:  true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

func (g *GoGit) Revisions(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo, err := g.open()
	if err != nil {
		return nil, err
	}
	ref, err := repo.Reference(g.branch, true)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", g.branch.Short(), err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", g.branch.Short(), err)
	}
	defer iter.Close()

	var revs []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		revs = append(revs, c.Hash.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", g.branch.Short(), err)
	}
	return revs, nil
}

func (g *GoGit) Checkout(_ context.Context, rev string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo, err := g.open()
	if err != nil {
		return err
	}
	hash, err := g.resolve(repo, rev)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("checkout %s: %w", rev, err)
	}
	return nil
}

func (g *GoGit) Metadata(_ context.Context, rev string) (Metadata, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo, err := g.open()
	if err != nil {
		return Metadata{}, err
	}
	hash, err := g.resolve(repo, rev)
	if err != nil {
		return Metadata{}, err
	}
	c, err := repo.CommitObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return Metadata{}, fmt.Errorf("%s: %w", rev, ErrUnknownRevision)
		}
		return Metadata{}, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return Metadata{
		Date:    c.Committer.When.Format(DateLayout),
		Message: strings.TrimRight(c.Message, "\n"),
	}, nil
}

func (g *GoGit) resolve(repo *git.Repository, rev string) (plumbing.Hash, error) {
	if !plumbing.IsHash(rev) {
		h, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("%s: %w: %w", rev, ErrUnknownRevision, err)
		}
		return *h, nil
	}
	return plumbing.NewHash(rev), nil
}

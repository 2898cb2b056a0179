package vcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when a path is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// History summarizes the commit log reachable from HEAD. It is the
// maturity signal reported next to the static metrics.
type History struct {
	Commits int       `json:"commits"`
	Authors int       `json:"authors"`
	First   time.Time `json:"first,omitempty"`
	Last    time.Time `json:"last,omitempty"`
}

// Age returns the span between the first and last commit.
func (h History) Age() time.Duration {
	if h.First.IsZero() || h.Last.IsZero() {
		return 0
	}
	return h.Last.Sub(h.First)
}

// ReadHistory walks the log of the repository containing path. A repository
// without commits yields an empty History.
func ReadHistory(ctx context.Context, opener Opener, path string) (History, error) {
	repo, err := opener.PlainOpenWithDetect(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return History{}, fmt.Errorf("%s: %w", path, ErrNotRepository)
		}
		return History{}, fmt.Errorf("open repository: %w", err)
	}

	if _, err := repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return History{}, nil
		}
		return History{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := repo.Log(nil)
	if err != nil {
		return History{}, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var h History
	authors := make(map[string]struct{})
	err = iter.ForEach(func(c Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.Commits++
		authors[c.AuthorEmail()] = struct{}{}
		when := c.When()
		if h.First.IsZero() || when.Before(h.First) {
			h.First = when
		}
		if when.After(h.Last) {
			h.Last = when
		}
		return nil
	})
	if err != nil {
		return History{}, err
	}
	h.Authors = len(authors)
	return h, nil
}

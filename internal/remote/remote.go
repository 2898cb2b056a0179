// Package remote resolves repository references that are not local paths
// and clones them into temporary directories for analysis.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	// SSH URLs carry an @ before the host, so the ref separator is only
	// looked for after the last slash or colon.
	ref := ""
	tail := strings.LastIndexAny(path, "/:")
	if idx := strings.LastIndex(path, "@"); idx > tail {
		ref = path[idx+1:]
		path = path[:idx]
		if ref == "" {
			return nil, fmt.Errorf("%s@: empty ref", path)
		}
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "git://"),
		strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// isHostPath returns true for host/owner/repo references without a scheme.
func isHostPath(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx <= 0 || strings.HasPrefix(path, ".") || strings.Count(path, "/") < 2 {
		return false
	}
	return strings.Contains(path[:slashIdx], ".")
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// No dots before the slash (would indicate a domain)
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the repository into a new temporary directory and checks out
// Ref. A shallow clone fetches only the tip commit, which is enough for
// static metrics but leaves no history to report.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	if s.Ref == "" {
		return s.clone(ctx, &git.CloneOptions{URL: s.URL, Progress: progress, Depth: depth(shallow)})
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(s.Ref),
		plumbing.NewTagReferenceName(s.Ref),
	} {
		err := s.clone(ctx, &git.CloneOptions{
			URL:           s.URL,
			Progress:      progress,
			Depth:         depth(shallow),
			ReferenceName: name,
			SingleBranch:  true,
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) && !isNoMatchingRef(err) {
			return err
		}
	}

	// Not a branch or tag: treat the ref as a commit, which needs the full
	// history to be reachable.
	if err := s.clone(ctx, &git.CloneOptions{URL: s.URL, Progress: progress}); err != nil {
		return err
	}
	repo, err := git.PlainOpen(s.CloneDir)
	if err != nil {
		return s.fail(err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(s.Ref))
	if err != nil {
		return s.fail(fmt.Errorf("resolve %s: %w", s.Ref, err))
	}
	wt, err := repo.Worktree()
	if err != nil {
		return s.fail(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return s.fail(fmt.Errorf("checkout %s: %w", s.Ref, err))
	}
	return nil
}

func (s *Source) clone(ctx context.Context, opts *git.CloneOptions) error {
	dir, err := os.MkdirTemp("", "qametrics-clone-*")
	if err != nil {
		return err
	}
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}
	s.CloneDir = dir
	return nil
}

func (s *Source) fail(err error) error {
	s.Cleanup()
	return err
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		_ = os.RemoveAll(s.CloneDir)
		s.CloneDir = ""
	}
}

func depth(shallow bool) int {
	if shallow {
		return 1
	}
	return 0
}

func isNoMatchingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch)
}

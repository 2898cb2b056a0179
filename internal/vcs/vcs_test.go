package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestNewGitOpener(t *testing.T) {
	opener := NewGitOpener()
	if opener == nil {
		t.Fatal("NewGitOpener() returned nil")
	}
}

func TestGitOpener_PlainOpen(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if repo.RepoPath() != repoPath {
		t.Errorf("RepoPath() = %q, want %q", repo.RepoPath(), repoPath)
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	opener := NewGitOpener()
	_, err := opener.PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should return error for non-existent path")
	}
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath := initTestRepo(t)

	subDir := filepath.Join(repoPath, "src", "main")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	opener := NewGitOpener()
	repo, err := opener.PlainOpenWithDetect(subDir)
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error = %v", err)
	}
	if repo.RepoPath() != repoPath {
		t.Errorf("RepoPath() = %q, want repository root %q", repo.RepoPath(), repoPath)
	}
}

func TestGitRepository_Head(t *testing.T) {
	repoPath := initTestRepoWithCommits(t, 1)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.Hash().IsZero() {
		t.Error("Hash() returned zero hash")
	}
}

func TestGitRepository_Log_WithSince(t *testing.T) {
	repoPath := initTestRepoWithCommits(t, 2)

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	future := time.Now().Add(24 * time.Hour)
	iter, err := repo.Log(&LogOptions{Since: &future})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	defer iter.Close()

	count := 0
	iter.ForEach(func(c Commit) error {
		count++
		return nil
	})
	if count != 0 {
		t.Errorf("Expected no commits after %v, got %d", future, count)
	}
}

func TestReadHistory(t *testing.T) {
	repoPath := initTestRepoWithCommits(t, 3)

	h, err := ReadHistory(context.Background(), NewGitOpener(), repoPath)
	if err != nil {
		t.Fatalf("ReadHistory() error = %v", err)
	}
	if h.Commits != 3 {
		t.Errorf("Commits = %d, want 3", h.Commits)
	}
	if h.Authors != 1 {
		t.Errorf("Authors = %d, want 1", h.Authors)
	}
	if h.First.After(h.Last) {
		t.Errorf("First %v after Last %v", h.First, h.Last)
	}
	if h.Age() < 0 {
		t.Errorf("Age() = %v, want >= 0", h.Age())
	}
}

func TestReadHistory_EmptyRepository(t *testing.T) {
	repoPath := initTestRepo(t)

	h, err := ReadHistory(context.Background(), NewGitOpener(), repoPath)
	if err != nil {
		t.Fatalf("ReadHistory() error = %v", err)
	}
	if h.Commits != 0 || h.Age() != 0 {
		t.Errorf("ReadHistory() = %+v, want empty", h)
	}
}

func TestReadHistory_NotRepository(t *testing.T) {
	_, err := ReadHistory(context.Background(), NewGitOpener(), t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("ReadHistory() error = %v, want ErrNotRepository", err)
	}
}

func TestReadHistory_Cancelled(t *testing.T) {
	repoPath := initTestRepoWithCommits(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadHistory(ctx, NewGitOpener(), repoPath)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadHistory() error = %v, want context.Canceled", err)
	}
}

func TestReadHistory_DefaultOpener(t *testing.T) {
	repoPath := initTestRepoWithCommits(t, 2)

	h, err := ReadHistory(context.Background(), DefaultOpener(), repoPath)
	if err != nil {
		t.Fatalf("ReadHistory() error = %v", err)
	}
	if h.Commits != 2 {
		t.Errorf("Commits = %d, want 2", h.Commits)
	}
}

type fakeOpener struct {
	err error
}

func (f fakeOpener) PlainOpen(path string) (Repository, error) {
	return nil, f.err
}

func (f fakeOpener) PlainOpenWithDetect(path string) (Repository, error) {
	return nil, f.err
}

func TestSetDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	boom := errors.New("boom")
	SetDefaultOpener(fakeOpener{err: boom})

	if _, err := ReadHistory(context.Background(), DefaultOpener(), "."); !errors.Is(err, boom) {
		t.Errorf("ReadHistory() error = %v, want wrapped boom", err)
	}
}

func initTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	_, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	return repoPath
}

func initTestRepoWithCommits(t *testing.T, n int) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	w, _ := repo.Worktree()
	testFile := filepath.Join(repoPath, "Main.java")
	start := time.Now().Add(-time.Duration(n) * time.Hour)

	for i := 0; i < n; i++ {
		content := []byte("class Main {}\n" + string(rune('a'+i)) + "\n")
		if err := os.WriteFile(testFile, content, 0644); err != nil {
			t.Fatal(err)
		}
		w.Add("Main.java")
		_, err = w.Commit("commit", &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test",
				Email: "test@example.com",
				When:  start.Add(time.Duration(i) * time.Hour),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return repoPath
}

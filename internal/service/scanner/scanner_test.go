package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qalab/qametrics/internal/testutil"
	"github.com/qalab/qametrics/internal/vcs"
	"github.com/qalab/qametrics/pkg/config"
)

type failingOpener struct{}

func (failingOpener) PlainOpen(string) (vcs.Repository, error) {
	return nil, errors.New("no repository")
}

func (failingOpener) PlainOpenWithDetect(string) (vcs.Repository, error) {
	return nil, errors.New("no repository")
}

func TestNew(t *testing.T) {
	svc := New()
	if svc == nil || svc.config == nil || svc.opener == nil {
		t.Fatal("New() returned nil or has nil config/opener")
	}
}

func TestNewWithOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opener := failingOpener{}
	svc := New(WithConfig(cfg), WithOpener(opener))
	if svc.config != cfg {
		t.Error("WithConfig did not set config")
	}
	if svc.opener != vcs.Opener(opener) {
		t.Error("WithOpener did not set opener")
	}
}

func TestScanPaths_InvalidPath(t *testing.T) {
	svc := New(WithConfig(config.DefaultConfig()))
	_, err := svc.ScanPaths([]string{"/nonexistent/path/that/does/not/exist"})

	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("PathError should unwrap to os.ErrNotExist")
	}
}

func TestScanPaths_ValidDir(t *testing.T) {
	tmpDir := t.TempDir()
	javaFile := filepath.Join(tmpDir, "src", "Main.java")
	testutil.WriteFile(t, javaFile, "class Main {}\n")
	testutil.WriteFile(t, filepath.Join(tmpDir, "README.md"), "# readme\n")

	svc := New(WithConfig(config.DefaultConfig()))
	result, err := svc.ScanPaths([]string{tmpDir})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != javaFile {
		t.Fatalf("Files = %v, want [%s]", result.Files, javaFile)
	}
	if got := result.ByDir[filepath.Dir(javaFile)]; len(got) != 1 {
		t.Errorf("ByDir = %v", result.ByDir)
	}
}

func TestScanPaths_FilesAndDirsDeduplicated(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "A.java")
	b := filepath.Join(tmpDir, "pkg", "B.java")
	testutil.WriteFile(t, a, "class A {}\n")
	testutil.WriteFile(t, b, "class B {}\n")
	notes := filepath.Join(tmpDir, "notes.txt")
	testutil.WriteFile(t, notes, "x")

	svc := New(WithConfig(config.DefaultConfig()))
	result, err := svc.ScanPaths([]string{b, tmpDir, a, notes})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if len(result.Files) != 2 || result.Files[0] != a || result.Files[1] != b {
		t.Errorf("Files = %v, want [%s %s]", result.Files, a, b)
	}
}

func TestScanPaths_MaxFileSize(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(tmpDir, "Small.java"), "class Small {}\n")
	testutil.WriteFile(t, filepath.Join(tmpDir, "Big.java"), "class Big {"+strings.Repeat(" ", 200)+"}\n")

	cfg := config.DefaultConfig()
	cfg.Analysis.MaxFileSize = 100
	result, err := New(WithConfig(cfg)).ScanPaths([]string{tmpDir})
	if err != nil {
		t.Fatalf("ScanPaths() error = %v", err)
	}
	if len(result.Files) != 1 || filepath.Base(result.Files[0]) != "Small.java" {
		t.Errorf("Files = %v, want only Small.java", result.Files)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
}

func TestScanPathsForGit_NotGitRepo(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(tmpDir, "A.java"), "class A {}\n")

	svc := New(WithConfig(config.DefaultConfig()), WithOpener(failingOpener{}))
	result, err := svc.ScanPathsForGit([]string{tmpDir}, false)
	if err != nil {
		t.Fatalf("ScanPathsForGit() error = %v", err)
	}
	if result.RepoRoot != "" {
		t.Errorf("RepoRoot = %q, want empty", result.RepoRoot)
	}

	_, err = svc.ScanPathsForGit([]string{tmpDir}, true)
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		t.Errorf("expected GitError when git is required, got %v", err)
	}
}

func TestScanPathsForGit_InGitRepo(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.InitRepo(t, tmpDir)
	file := filepath.Join(tmpDir, "src", "A.java")
	testutil.WriteFile(t, file, "class A {}\n")

	svc := New(WithConfig(config.DefaultConfig()))
	result, err := svc.ScanPathsForGit([]string{file}, true)
	if err != nil {
		t.Fatalf("ScanPathsForGit() error = %v", err)
	}
	if result.RepoRoot != tmpDir {
		t.Errorf("RepoRoot = %q, want %q", result.RepoRoot, tmpDir)
	}
}

func TestErrors(t *testing.T) {
	inner := errors.New("boom")

	if got := (&PathError{Path: "x", Err: inner}).Error(); got != "invalid path x: boom" {
		t.Errorf("PathError = %q", got)
	}
	if got := (&ScanError{Path: "x", Err: inner}).Error(); got != "failed to scan x: boom" {
		t.Errorf("ScanError = %q", got)
	}
	if got := (&GitError{Err: inner}).Error(); got != "not a git repository (or any parent): boom" {
		t.Errorf("GitError = %q", got)
	}
	if !errors.Is(&ScanError{Err: inner}, inner) || !errors.Is(&GitError{Err: inner}, inner) {
		t.Error("errors should unwrap")
	}
}

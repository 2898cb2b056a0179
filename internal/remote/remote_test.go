package remote

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/qalab/qametrics/internal/testutil"
)

func TestParse_LocalPath(t *testing.T) {
	dir := t.TempDir()

	src, err := Parse(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != nil {
		t.Errorf("expected nil for local path, got %+v", src)
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{"missing", "./missing/dir/x", "/no/such/dir", "../a/b"} {
		src, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", input, err)
		}
		if src != nil {
			t.Errorf("Parse(%q) = %+v, want nil", input, src)
		}
	}
}

func TestParse_GitHubShorthand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "simple owner/repo",
			input:   "apache/commons-lang",
			wantURL: "https://github.com/apache/commons-lang",
		},
		{
			name:    "with ref suffix",
			input:   "apache/commons-lang@3.14.0",
			wantURL: "https://github.com/apache/commons-lang",
			wantRef: "3.14.0",
		},
		{
			name:    "with branch ref",
			input:   "owner/repo@feature-branch",
			wantURL: "https://github.com/owner/repo",
			wantRef: "feature-branch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_FullURLs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "github.com without scheme",
			input:   "github.com/junit-team/junit5",
			wantURL: "https://github.com/junit-team/junit5",
		},
		{
			name:    "https URL",
			input:   "https://github.com/spring-projects/spring-boot",
			wantURL: "https://github.com/spring-projects/spring-boot",
		},
		{
			name:    "gitlab URL",
			input:   "https://gitlab.com/group/project",
			wantURL: "https://gitlab.com/group/project",
		},
		{
			name:    "SSH URL",
			input:   "git@github.com:owner/repo.git",
			wantURL: "git@github.com:owner/repo.git",
		},
		{
			name:    "URL with ref",
			input:   "github.com/junit-team/junit5@r5.10.0",
			wantURL: "https://github.com/junit-team/junit5",
			wantRef: "r5.10.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_EmptyRef(t *testing.T) {
	if _, err := Parse("owner/repo@"); err == nil {
		t.Error("expected error for empty ref")
	}
}

// newOriginRepo creates a local repository with two commits, a tag on the
// first and a feature branch, to clone from without network access.
func newOriginRepo(t *testing.T) (dir string, first plumbing.Hash) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary required for local clone transport")
	}
	dir = t.TempDir()
	repo := testutil.InitRepo(t, dir)
	start := time.Now().Add(-time.Hour)

	testutil.WriteFile(t, filepath.Join(dir, "Main.java"), "public class Main {}\n")
	first = testutil.CommitAll(t, repo, "add Main", "test", start)
	if _, err := repo.CreateTag("v1", first, nil); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, filepath.Join(dir, "Util.java"), "class Util {}\n")
	second := testutil.CommitAll(t, repo, "add Util", "test", start.Add(time.Minute))
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), second)); err != nil {
		t.Fatal(err)
	}
	return dir, first
}

func TestSource_Clone(t *testing.T) {
	origin, _ := newOriginRepo(t)
	src := &Source{URL: origin}

	if err := src.Clone(context.Background(), io.Discard, false); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer src.Cleanup()

	if src.CloneDir == "" {
		t.Fatal("CloneDir not set")
	}
	if _, err := os.Stat(filepath.Join(src.CloneDir, "Util.java")); err != nil {
		t.Errorf("Util.java not checked out: %v", err)
	}
}

func TestSource_Clone_WithBranch(t *testing.T) {
	origin, _ := newOriginRepo(t)
	src := &Source{URL: origin, Ref: "feature"}

	if err := src.Clone(context.Background(), io.Discard, false); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer src.Cleanup()

	repo, err := git.PlainOpen(src.CloneDir)
	if err != nil {
		t.Fatalf("open cloned repo: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("get HEAD: %v", err)
	}
	if !head.Name().IsBranch() || head.Name().Short() != "feature" {
		t.Errorf("expected branch feature, got %s", head.Name())
	}
}

func TestSource_Clone_WithTag(t *testing.T) {
	origin, _ := newOriginRepo(t)
	src := &Source{URL: origin, Ref: "v1"}

	if err := src.Clone(context.Background(), io.Discard, false); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer src.Cleanup()

	if _, err := os.Stat(filepath.Join(src.CloneDir, "Util.java")); !os.IsNotExist(err) {
		t.Error("tag v1 predates Util.java")
	}
}

func TestSource_Clone_WithCommit(t *testing.T) {
	origin, first := newOriginRepo(t)
	src := &Source{URL: origin, Ref: first.String()}

	if err := src.Clone(context.Background(), io.Discard, false); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer src.Cleanup()

	repo, err := git.PlainOpen(src.CloneDir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head.Hash() != first {
		t.Errorf("HEAD = %s, want %s", head.Hash(), first)
	}
}

func TestSource_Cleanup(t *testing.T) {
	dir := t.TempDir()
	cloneDir := filepath.Join(dir, "clone")
	if err := os.Mkdir(cloneDir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := &Source{CloneDir: cloneDir}
	src.Cleanup()

	if _, err := os.Stat(cloneDir); !os.IsNotExist(err) {
		t.Error("clone directory still exists")
	}
	if src.CloneDir != "" {
		t.Error("CloneDir not reset")
	}
	src.Cleanup()
}

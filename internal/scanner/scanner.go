package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config  *config.Config
	parser  *parser.Parser
	matcher gitignore.Matcher
	// ignoreBase is the directory .gitignore patterns are relative to.
	ignoreBase string
}

// NewScanner creates a new file scanner. Files are selected by the
// configured extensions.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{
		config: cfg,
		parser: parser.New(parser.WithExtensions(cfg.Analysis.Extensions...)),
	}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore below the repository root, or below
// root when it is not inside a repository.
func (s *Scanner) loadGitignore(root string) {
	s.matcher = nil
	if !s.config.Exclude.Gitignore {
		return
	}

	base := findGitRoot(root)
	if base == "" {
		base = root
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(base), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
	s.ignoreBase = base
}

// isIgnored checks an absolute path against the loaded .gitignore patterns.
func (s *Scanner) isIgnored(absPath string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	rel, err := filepath.Rel(s.ignoreBase, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

// ScanDir recursively scans a directory for source files.
// Uses filepath.WalkDir for better performance (avoids stat calls).
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}
		absPath := filepath.Join(absRoot, relPath)

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.config.ShouldExclude(relPath+string(filepath.Separator)) || s.isIgnored(absPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.accept(relPath) || s.isIgnored(absPath, false) {
			return nil
		}
		files = append(files, path)

		return nil
	})

	return files, walkErr
}

// accept applies the extension, exclusion and inclusion rules to a path
// relative to the scanned root.
func (s *Scanner) accept(relPath string) bool {
	return s.parser.Supports(relPath) &&
		!s.config.ShouldExclude(relPath) &&
		s.config.ShouldInclude(relPath)
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// ScanFile checks if a single file should be analyzed. Include globs are not
// applied, since an explicitly named file is always wanted.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		return false, nil
	}

	base := filepath.Base(path)
	if !s.parser.Supports(base) || s.config.ShouldExclude(base) {
		return false, nil
	}

	if s.matcher == nil {
		if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
			s.loadGitignore(abs)
		}
	}
	if abs, err := filepath.Abs(path); err == nil && s.isIgnored(abs, false) {
		return false, nil
	}

	return true, nil
}

// GroupByDir groups files by their parent directory, which for Java sources
// mirrors the package layout.
func GroupByDir(files []string) map[string][]string {
	groups := make(map[string][]string)
	for _, f := range files {
		dir := filepath.Dir(f)
		groups[dir] = append(groups[dir], f)
	}
	return groups
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			skipped++
			continue
		}
		if info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}

// Package locator resolves a user-supplied focus (a path, glob, file name or
// class name) to a single source file.
package locator

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/qalab/qametrics/pkg/models"
)

// TargetType indicates whether the focus resolved to a file or a class.
type TargetType string

const (
	TargetFile  TargetType = "file"
	TargetClass TargetType = "class"
)

// Class is a declared class a focus can resolve to.
type Class struct {
	Name string // qualified name
	Path string
}

// ClassIndex lists the classes known under the base directory. It is only
// called when the focus does not resolve to a file.
type ClassIndex func() ([]Class, error)

// Candidate represents an ambiguous match option.
type Candidate struct {
	Path  string
	Class string
}

// Result contains the resolved target or error information.
type Result struct {
	Type       TargetType
	Path       string
	Class      string
	Candidates []Candidate
}

var (
	ErrNotFound       = errors.New("no file or class found")
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// Options configures the Locate behavior.
type Options struct {
	BaseDir string
}

// Option is a functional option for Locate.
type Option func(*Options)

// WithBaseDir sets the base directory for glob and basename searches.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// Locate resolves a focus target to a file.
// Resolution order: exact path -> glob -> basename -> class name
func Locate(focus string, index ClassIndex, opts ...Option) (*Result, error) {
	options := &Options{
		BaseDir: ".",
	}
	for _, opt := range opts {
		opt(options)
	}

	if info, err := os.Stat(focus); err == nil && !info.IsDir() {
		return &Result{
			Type: TargetFile,
			Path: focus,
		}, nil
	}

	if containsGlobChars(focus) {
		return locateByGlob(focus, options.BaseDir)
	}

	// Qualified class names look like file names too, so a basename miss
	// falls through to the class search.
	if looksLikeFilename(focus) {
		result, err := locateByBasename(focus, options.BaseDir)
		if !errors.Is(err, ErrNotFound) {
			return result, err
		}
	}

	if index != nil {
		classes, err := index()
		if err != nil {
			return nil, err
		}
		return locateByClass(focus, classes)
	}

	return nil, ErrNotFound
}

// ClassesOf lists every declaration in files.
func ClassesOf(files []*models.SourceFile) []Class {
	var classes []Class
	for _, f := range files {
		for i := range f.Classes {
			classes = append(classes, Class{Name: f.Classes[i].QualifiedName(), Path: f.Path})
		}
	}
	return classes
}

func containsGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func locateByGlob(pattern, baseDir string) (*Result, error) {
	matches, err := doublestar.Glob(os.DirFS(baseDir), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(baseDir, filepath.FromSlash(m))
	}
	sort.Strings(paths)

	if len(paths) == 1 {
		return &Result{
			Type: TargetFile,
			Path: paths[0],
		}, nil
	}

	candidates := make([]Candidate, len(paths))
	for i, p := range paths {
		candidates[i] = Candidate{Path: p}
	}
	return &Result{Candidates: candidates}, ErrAmbiguousMatch
}

func looksLikeFilename(s string) bool {
	ext := filepath.Ext(s)
	return ext != "" && !strings.ContainsRune(s, filepath.Separator)
}

func locateByBasename(filename, baseDir string) (*Result, error) {
	return locateByGlob("**/"+filename, baseDir)
}

// locateByClass matches the qualified name first, then the simple name.
func locateByClass(name string, classes []Class) (*Result, error) {
	var matches []Class
	for _, c := range classes {
		if c.Name == name {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		for _, c := range classes {
			if models.LastSegment(c.Name) == name {
				matches = append(matches, c)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &Result{
			Type:  TargetClass,
			Path:  matches[0].Path,
			Class: matches[0].Name,
		}, nil
	}

	candidates := make([]Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = Candidate{Path: m.Path, Class: m.Name}
	}
	return &Result{Candidates: candidates}, ErrAmbiguousMatch
}

// Package parser turns brace-delimited, semicolon-terminated source text into
// a block tree and derives declarations and complexity from it. It does not
// tokenize or parse a grammar; all recognition is done with patterns over
// statement text.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qalab/qametrics/pkg/models"
)

// ErrUnsupportedFile is returned for files whose extension is not analyzed.
var ErrUnsupportedFile = errors.New("unsupported file type")

// DefaultExtensions are the file extensions analyzed when none are configured.
var DefaultExtensions = []string{".java"}

// Parser runs the per-file pipeline. It holds only configuration and is safe
// for concurrent use.
type Parser struct {
	calc       *Calculator
	extensions map[string]bool
}

// Option is a functional option for configuring Parser.
type Option func(*Parser)

// WithPolicy sets the complexity counting policy.
func WithPolicy(p Policy) Option {
	return func(ps *Parser) {
		ps.calc = NewCalculator(p)
	}
}

// WithExtensions replaces the set of analyzed extensions.
func WithExtensions(exts ...string) Option {
	return func(ps *Parser) {
		if len(exts) == 0 {
			return
		}
		ps.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			ps.extensions[ext] = true
		}
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{calc: NewCalculator(PolicyEveryMatch)}
	WithExtensions(DefaultExtensions...)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Calculator returns the parser's complexity calculator.
func (p *Parser) Calculator() *Calculator {
	return p.calc
}

// Supports reports whether path has an analyzed extension.
func (p *Parser) Supports(path string) bool {
	return p.extensions[strings.ToLower(filepath.Ext(path))]
}

// ParseFile reads and analyzes one file.
func (p *Parser) ParseFile(path string) (*models.SourceFile, error) {
	if !p.Supports(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(source, path), nil
}

// Parse analyzes already-read source text.
func (p *Parser) Parse(source []byte, path string) *models.SourceFile {
	norm := Normalize(string(source))
	tree := Build(norm.Text)
	pkg := PackageName(tree)
	imports := Imports(tree)

	return &models.SourceFile{
		Path:       path,
		Package:    pkg,
		Lines:      norm.Lines,
		Imports:    imports,
		Asserts:    Asserts(tree),
		Classes:    ExtractClasses(tree, pkg, path, imports, WithCalculator(p.calc)),
		Complexity: p.calc.FileComplexity(tree),
		Statements: tree.NumStatements(Root),
	}
}

// ParseTree normalizes source text and returns its block tree without
// deriving a SourceFile.
func (p *Parser) ParseTree(source []byte) (*Tree, Normalized) {
	norm := Normalize(string(source))
	return Build(norm.Text), norm
}

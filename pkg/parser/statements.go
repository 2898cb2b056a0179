package parser

import (
	"regexp"
	"strings"
)

var (
	packagePattern = regexp.MustCompile(`^package\s+([\w$.\s]+)$`)
	importPattern  = regexp.MustCompile(`^import\s+(?:static\s+)?([\w$.\s]+?(?:\s*\.\s*\*)?)$`)
	assertPattern  = regexp.MustCompile(`^assert\b|\b(?:assert\w*|fail)\s*\(`)
)

// PackageName returns the package declared at file scope, or "".
func PackageName(t *Tree) string {
	for _, s := range t.blocks[Root].Statements {
		if m := packagePattern.FindStringSubmatch(s); m != nil {
			return squeeze(m[1])
		}
	}
	return ""
}

// Imports returns the fully qualified names imported at file scope, in
// order. Static imports are recorded without the static keyword.
func Imports(t *Tree) []string {
	var out []string
	for _, s := range t.blocks[Root].Statements {
		if m := importPattern.FindStringSubmatch(s); m != nil {
			out = append(out, squeeze(m[1]))
		}
	}
	return out
}

// Asserts returns every assert statement or assertion call in the tree, in
// document order. Leading statements are included because an assertion
// taking a lambda body opens a block.
func Asserts(t *Tree) []string {
	var out []string
	t.Walk(func(id BlockID, _ int) bool {
		b := &t.blocks[id]
		if id != Root && assertPattern.MatchString(b.Leading) {
			out = append(out, b.Leading)
		}
		for _, s := range b.Statements {
			if assertPattern.MatchString(s) {
				out = append(out, s)
			}
		}
		return true
	})
	return out
}

// squeeze drops all whitespace from a dotted name.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), "")
}

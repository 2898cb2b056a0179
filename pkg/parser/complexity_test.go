package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{input: "", expected: PolicyEveryMatch},
		{input: "every_match", expected: PolicyEveryMatch},
		{input: " ONCE_PER_STATEMENT ", expected: PolicyOncePerStatement},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestMatchBranchPatterns(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		inSwitch  bool
		expected  []BranchPattern
	}{
		{name: "plain assignment", statement: "x = y", expected: nil},
		{name: "inline if with predicate", statement: "if (a == b) x = 1", expected: []BranchPattern{PatternKeyword, PatternPredicate}},
		{name: "ternary", statement: "int v = a > b ? a : b", expected: []BranchPattern{PatternTernary}},
		{name: "ternary with predicate", statement: "return a >= b ? x : y", expected: []BranchPattern{PatternTernary, PatternPredicate}},
		{name: "else statement", statement: "else x = 1", expected: []BranchPattern{PatternKeyword}},
		{name: "keyword inside identifier", statement: "notify()", expected: nil},
		{name: "generic type", statement: "List<Foo> list", expected: nil},
		{name: "not equal", statement: "ok = a != null", expected: []BranchPattern{PatternPredicate}},
		{name: "case label in switch", statement: "case 1: a()", inSwitch: true, expected: []BranchPattern{PatternCaseLabel}},
		{name: "case label outside switch", statement: "case 1: a()", expected: nil},
		{name: "default label in switch", statement: "default: b()", inSwitch: true, expected: []BranchPattern{PatternCaseLabel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchBranchPatterns(tt.statement, tt.inSwitch))
		})
	}
}

func TestCalculator_StatementUnitsPolicy(t *testing.T) {
	every := NewCalculator(PolicyEveryMatch)
	once := NewCalculator(PolicyOncePerStatement)

	assert.Equal(t, 2, every.StatementUnits("if (a == b) x = 1", false))
	assert.Equal(t, 1, once.StatementUnits("if (a == b) x = 1", false))
	assert.Equal(t, 0, once.StatementUnits("x = 1", false))
	assert.Equal(t, 1, once.StatementUnits("x = c ? 1 : 2", false))
}

func TestNewCalculator_DefaultsToEveryMatch(t *testing.T) {
	assert.Equal(t, PolicyEveryMatch, NewCalculator("").Policy())
}

func TestCalculator_Score(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		policy   Policy
		block    BlockID
		expected int
		file     int
	}{
		{
			name:     "nested if",
			source:   `class Foo { void bar() { if (x > 1) { y = 2; } } }`,
			block:    2,
			expected: 1,
			file:     2,
		},
		{
			name:     "switch labels",
			source:   `void f() { switch (k) { case 1: a(); break; default: b(); } }`,
			block:    2,
			expected: 2,
			file:     3,
		},
		{
			name:     "double counted inline if",
			source:   `void g() { if (a == b) x = 1; }`,
			block:    1,
			expected: 2,
			file:     3,
		},
		{
			name:     "inline if once per statement",
			source:   `void g() { if (a == b) x = 1; }`,
			policy:   PolicyOncePerStatement,
			block:    1,
			expected: 1,
			file:     2,
		},
		{
			name:     "header predicate is not counted twice",
			source:   `if (a == b) { x = 1; }`,
			block:    1,
			expected: 1,
			file:     2,
		},
		{
			name:     "else if chain",
			source:   `if (a) { x(); } else if (b) { y(); } else { z(); }`,
			block:    Root,
			expected: 2,
			file:     3,
		},
		{
			name:     "root leading text is not a header",
			source:   `if (a) x(); { }`,
			block:    Root,
			expected: 1,
			file:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(tt.policy)
			tree := Build(Normalize(tt.source).Text)

			assert.Equal(t, tt.expected, calc.Score(tree, tt.block))
			assert.Equal(t, tt.file, calc.FileComplexity(tree))
		})
	}
}

func TestCalculator_ClassWMCExcludesNestedDeclarations(t *testing.T) {
	source := `class A { int f; void m() { if (x) { } } class Inner { void n() { while (y) { } } } }`
	tree := Build(Normalize(source).Text)
	calc := NewCalculator(PolicyEveryMatch)

	require.Equal(t, 7, tree.Len())
	assert.Equal(t, "class Inner", tree.Leading(4))
	assert.Equal(t, 1, calc.ClassWMC(tree, 1))
	assert.Equal(t, 2, calc.Score(tree, 1))
	assert.Equal(t, 1, calc.ClassWMC(tree, 4))
}

func TestCalculator_ScoresMatchesScore(t *testing.T) {
	source := `
package p;
public class A {
    int v = a > b ? a : b;
    void m() {
        for (int i = 0; i < n; i++) {
            if (i == 2) { continue; }
            switch (i) { case 1: x(); break; default: y(); }
        }
        while (ok) { ok = next() != null; }
    }
}
`
	tree := Build(Normalize(source).Text)

	for _, policy := range []Policy{PolicyEveryMatch, PolicyOncePerStatement} {
		calc := NewCalculator(policy)
		scores := calc.Scores(tree)
		require.Len(t, scores, tree.Len())
		for id := 0; id < tree.Len(); id++ {
			assert.Equal(t, calc.Score(tree, BlockID(id)), scores[id], "policy %s block %d", policy, id)
		}
	}
}

package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Policy decides how many units a statement matching several branching
// patterns contributes.
type Policy string

const (
	// PolicyEveryMatch adds one unit per matched pattern, so a statement such
	// as `if (a == b) x = 1` counts twice. This is the default.
	PolicyEveryMatch Policy = "every_match"
	// PolicyOncePerStatement adds at most one unit per statement.
	PolicyOncePerStatement Policy = "once_per_statement"
)

// ParsePolicy converts a configuration value to a Policy. The empty string
// selects the default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyEveryMatch:
		return PolicyEveryMatch, nil
	case PolicyOncePerStatement:
		return PolicyOncePerStatement, nil
	default:
		return "", fmt.Errorf("unknown complexity policy %q", s)
	}
}

// BranchPattern names one of the statement patterns that count towards
// complexity.
type BranchPattern string

const (
	PatternKeyword   BranchPattern = "keyword"
	PatternTernary   BranchPattern = "ternary"
	PatternPredicate BranchPattern = "predicate"
	PatternCaseLabel BranchPattern = "case_label"
)

var (
	branchKeywordPattern = regexp.MustCompile(`\b(?:if|else|while|for)\b`)
	ternaryPattern       = regexp.MustCompile(`\?[^?:]+:`)
	predicatePattern     = regexp.MustCompile(`==|!=|>=|<=`)
)

// MatchBranchPatterns lists the patterns a contained statement matches.
// Case labels only count inside a switch body.
func MatchBranchPatterns(statement string, inSwitch bool) []BranchPattern {
	var matched []BranchPattern
	if branchKeywordPattern.MatchString(statement) {
		matched = append(matched, PatternKeyword)
	}
	if ternaryPattern.MatchString(statement) {
		matched = append(matched, PatternTernary)
	}
	if predicatePattern.MatchString(statement) {
		matched = append(matched, PatternPredicate)
	}
	if inSwitch && labelPattern.MatchString(strings.TrimSpace(statement)) {
		matched = append(matched, PatternCaseLabel)
	}
	return matched
}

// Calculator scores blocks of a Tree. It holds no per-tree state and may be
// shared.
type Calculator struct {
	policy Policy
}

// NewCalculator returns a calculator using the given policy; an empty policy
// selects PolicyEveryMatch.
func NewCalculator(policy Policy) *Calculator {
	if policy == "" {
		policy = PolicyEveryMatch
	}
	return &Calculator{policy: policy}
}

// Policy returns the counting policy in use.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// HeaderUnits is 1 when a leading statement is a branching header.
func (c *Calculator) HeaderUnits(leading string) int {
	if Classify(leading).Kind == KindControlHeader {
		return 1
	}
	return 0
}

// StatementUnits scores one contained statement under the policy.
func (c *Calculator) StatementUnits(statement string, inSwitch bool) int {
	n := len(MatchBranchPatterns(statement, inSwitch))
	if c.policy == PolicyOncePerStatement && n > 1 {
		return 1
	}
	return n
}

// Score returns the complexity of a block including its whole subtree. The
// root's leading statement is file-scope text and is never scored as a
// header.
func (c *Calculator) Score(t *Tree, id BlockID) int {
	b := &t.blocks[id]
	score := 0
	if id != Root {
		score += c.HeaderUnits(b.Leading)
	}
	inSwitch := IsSwitchHeader(b.Leading)
	for _, s := range b.Statements {
		score += c.StatementUnits(s, inSwitch)
	}
	for _, child := range b.Children {
		score += c.Score(t, child)
	}
	return score
}

// FileComplexity is one plus the score of the root block.
func (c *Calculator) FileComplexity(t *Tree) int {
	return 1 + c.Score(t, Root)
}

// ClassWMC sums the scores of a class block's method-blocks: its direct
// children that are not themselves declarations.
func (c *Calculator) ClassWMC(t *Tree, class BlockID) int {
	wmc := 0
	for _, child := range t.blocks[class].Children {
		if Classify(t.blocks[child].Leading).Kind == KindDeclaration {
			continue
		}
		wmc += c.Score(t, child)
	}
	return wmc
}

// Scores computes the score of every block in one bottom-up pass, indexed by
// BlockID.
func (c *Calculator) Scores(t *Tree) []int {
	scores := make([]int, len(t.blocks))
	// Children always have larger ids than their parents.
	for id := len(t.blocks) - 1; id >= 0; id-- {
		b := &t.blocks[id]
		s := 0
		if BlockID(id) != Root {
			s += c.HeaderUnits(b.Leading)
		}
		inSwitch := IsSwitchHeader(b.Leading)
		for _, st := range b.Statements {
			s += c.StatementUnits(st, inSwitch)
		}
		for _, child := range b.Children {
			s += scores[child]
		}
		scores[id] = s
	}
	return scores
}

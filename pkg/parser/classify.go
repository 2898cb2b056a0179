package parser

import (
	"regexp"
	"strings"

	"github.com/qalab/qametrics/pkg/models"
)

// StatementKind tags what a piece of statement text looks like to the
// structural heuristics.
type StatementKind int

const (
	KindPlain StatementKind = iota
	KindDeclaration
	KindControlHeader
	KindLabel
)

func (k StatementKind) String() string {
	switch k {
	case KindDeclaration:
		return "declaration"
	case KindControlHeader:
		return "control-header"
	case KindLabel:
		return "label"
	default:
		return "plain"
	}
}

// Declaration describes a class, interface or enum header.
type Declaration struct {
	Kind models.DeclarationKind
	Name string
	// Modifiers is the text before the declaration keyword.
	Modifiers string
	// Candidates are the names listed after extends/implements, unresolved.
	Candidates []string
}

// Statement is a classified piece of statement text. Decl is set only for
// KindDeclaration.
type Statement struct {
	Kind StatementKind
	Text string
	Decl *Declaration
}

var (
	// The keyword must not follow a dot, so Foo.class is not a declaration.
	declarationPattern   = regexp.MustCompile(`(?:^|[^\w.$])(class|interface|enum)\s+([A-Za-z_$][\w$]*)`)
	controlHeaderPattern = regexp.MustCompile(`^(?:if|else\s+if|while|for)\b`)
	labelPattern         = regexp.MustCompile(`^(?:case\s*[\w.'"$-]+\s*|default\s*):`)
	switchPattern        = regexp.MustCompile(`^switch\b`)

	inheritancePattern = regexp.MustCompile(`\b(?:extends|implements)\s+`)
	clauseEndPattern   = regexp.MustCompile(`\b(?:extends|implements|permits|throws)\b`)
	typeNamePattern    = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\s*\.\s*[A-Za-z_$][\w$]*)*`)

	publicPattern    = regexp.MustCompile(`\bpublic\b`)
	protectedPattern = regexp.MustCompile(`\bprotected\b`)
)

// Classify tags statement text as a declaration, a control header, a switch
// label or a plain statement, in that order of precedence.
func Classify(text string) Statement {
	text = strings.TrimSpace(text)
	if decl := parseDeclaration(text); decl != nil {
		return Statement{Kind: KindDeclaration, Text: text, Decl: decl}
	}
	if controlHeaderPattern.MatchString(text) {
		return Statement{Kind: KindControlHeader, Text: text}
	}
	if labelPattern.MatchString(text) {
		return Statement{Kind: KindLabel, Text: text}
	}
	return Statement{Kind: KindPlain, Text: text}
}

// IsSwitchHeader reports whether a leading statement opens a switch body.
func IsSwitchHeader(text string) bool {
	return switchPattern.MatchString(strings.TrimSpace(text))
}

func parseDeclaration(text string) *Declaration {
	m := declarationPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return nil
	}
	return &Declaration{
		Kind:       models.DeclarationKind(text[m[2]:m[3]]),
		Name:       text[m[4]:m[5]],
		Modifiers:  strings.TrimSpace(text[:m[2]]),
		Candidates: inheritanceCandidates(text[m[5]:]),
	}
}

// Visibility maps the declaration's modifiers to an access level. Anything
// without an explicit public or protected modifier is private.
func (d *Declaration) Visibility() models.Visibility {
	switch {
	case publicPattern.MatchString(d.Modifiers):
		return models.VisibilityPublic
	case protectedPattern.MatchString(d.Modifiers):
		return models.VisibilityProtected
	default:
		return models.VisibilityPrivate
	}
}

// inheritanceCandidates collects every comma-separated type name following
// extends or implements in the remainder of a declaration header.
func inheritanceCandidates(rest string) []string {
	rest = stripGenerics(rest)

	var out []string
	for _, loc := range inheritancePattern.FindAllStringIndex(rest, -1) {
		clause := rest[loc[1]:]
		if end := clauseEndPattern.FindStringIndex(clause); end != nil {
			clause = clause[:end[0]]
		}
		for _, part := range strings.Split(clause, ",") {
			name := typeNamePattern.FindString(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			out = append(out, strings.Join(strings.Fields(name), ""))
		}
	}
	return out
}

// stripGenerics removes type argument lists, including nested ones.
func stripGenerics(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			} else {
				b.WriteByte(s[i])
			}
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}

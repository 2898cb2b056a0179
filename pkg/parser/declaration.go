package parser

import (
	"regexp"
	"strings"

	"github.com/qalab/qametrics/pkg/models"
)

var (
	annotationPattern = regexp.MustCompile(`@[\w$.]+(?:\s*\([^)]*\))?`)
	methodNamePattern = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)
	identPattern      = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
	testMarkerPattern = regexp.MustCompile(`@Test\b`)
	staticInitPattern = regexp.MustCompile(`^static$`)
	nonFieldPattern   = regexp.MustCompile(`^(?:return|throw|import|package|assert|break|continue|case|default)\b`)
)

// ExtractOption configures ExtractClasses.
type ExtractOption func(*extractor)

// WithCalculator sets the calculator used for method and class scores.
func WithCalculator(c *Calculator) ExtractOption {
	return func(e *extractor) {
		e.calc = c
	}
}

// ExtractClasses walks the tree in pre-order and returns one ParsedClass per
// declaration block, in document order. packageName may be empty. Inheritance
// candidates are resolved against imports by trailing segment; candidates
// without a matching import are dropped. The first declaration is the file's
// main class and becomes the implicit parent of every later declaration that
// has no resolved parent.
func ExtractClasses(t *Tree, packageName, path string, imports []string, opts ...ExtractOption) []models.ParsedClass {
	e := &extractor{
		tree:    t,
		path:    path,
		imports: imports,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.calc == nil {
		e.calc = NewCalculator(PolicyEveryMatch)
	}

	// The root is the file scope; its leading text is never a declaration.
	for _, child := range t.blocks[Root].Children {
		e.walk(child, packageName)
	}
	return e.classes
}

type extractor struct {
	tree      *Tree
	calc      *Calculator
	path      string
	imports   []string
	mainClass string
	classes   []models.ParsedClass
}

func (e *extractor) walk(id BlockID, prefix string) {
	if st := Classify(e.tree.blocks[id].Leading); st.Kind == KindDeclaration {
		cls := e.newClass(id, st.Decl, prefix)
		e.classes = append(e.classes, cls)
		prefix = cls.QualifiedName()
	}
	for _, child := range e.tree.blocks[id].Children {
		e.walk(child, prefix)
	}
}

func (e *extractor) newClass(id BlockID, decl *Declaration, prefix string) models.ParsedClass {
	cls := models.ParsedClass{
		Name:       decl.Name,
		Kind:       decl.Kind,
		Visibility: decl.Visibility(),
		Package:    prefix,
		Path:       e.path,
	}

	for _, candidate := range decl.Candidates {
		if parent, ok := ResolveCandidate(candidate, e.imports); ok {
			cls.AddParent(parent)
		}
	}

	switch {
	case e.mainClass == "" && e.tree.blocks[id].Parent == Root:
		e.mainClass = cls.QualifiedName()
	case e.mainClass != "" && len(cls.Parents) == 0:
		cls.AddParent(e.mainClass)
	}

	e.describeMembers(&cls, id)
	return cls
}

// ResolveCandidate maps a name from an extends/implements clause to a
// qualified name using the file's imports. A dotted candidate whose head is
// imported is expanded from that import; one whose head is a lower-case
// package segment is taken as already qualified.
//
// A candidate resolved either way is an explicit parent, so its class never
// receives the implicit main-class edge.
func ResolveCandidate(candidate string, imports []string) (string, bool) {
	head, tail, dotted := strings.Cut(candidate, ".")
	if imp, ok := lookupImport(head, imports); ok {
		if dotted {
			return imp + "." + tail, true
		}
		return imp, true
	}
	if dotted && head != "" && strings.ToLower(head[:1]) == head[:1] {
		return candidate, true
	}
	return "", false
}

func lookupImport(name string, imports []string) (string, bool) {
	for _, imp := range imports {
		if models.LastSegment(imp) == name {
			return imp, true
		}
	}
	return "", false
}

// describeMembers fills in fields, method-blocks and the class scores.
func (e *extractor) describeMembers(cls *models.ParsedClass, id BlockID) {
	block := &e.tree.blocks[id]

	for _, s := range block.Statements {
		cls.Fields = append(cls.Fields, fieldNames(s)...)
	}

	var methodBlocks []BlockID
	for _, child := range block.Children {
		if Classify(e.tree.blocks[child].Leading).Kind == KindDeclaration {
			continue
		}
		methodBlocks = append(methodBlocks, child)
		leading := e.tree.blocks[child].Leading
		cls.Methods = append(cls.Methods, models.Method{
			Name:       methodName(leading),
			Complexity: e.calc.Score(e.tree, child),
			Statements: e.tree.NumStatements(child),
			IsTest:     testMarkerPattern.MatchString(leading),
		})
	}

	for i, child := range methodBlocks {
		tokens := e.bodyTokens(child)
		m := &cls.Methods[i]
		for _, f := range cls.Fields {
			if tokens.idents[f] {
				m.FieldRefs = appendUnique(m.FieldRefs, f)
			}
		}
		for _, other := range cls.Methods {
			if other.Name != m.Name && tokens.calls[other.Name] {
				m.Calls = appendUnique(m.Calls, other.Name)
			}
		}
		cls.WMC += m.Complexity
	}

	cls.Complexity = e.calc.Score(e.tree, id)
}

type bodyTokens struct {
	idents map[string]bool
	calls  map[string]bool
}

// bodyTokens collects the identifiers and call names used inside a method
// block. The method's own leading statement is skipped, since its parameters
// shadow fields; leading statements of nested blocks are included.
func (e *extractor) bodyTokens(id BlockID) bodyTokens {
	tok := bodyTokens{idents: map[string]bool{}, calls: map[string]bool{}}
	add := func(s string) {
		for _, ident := range identPattern.FindAllString(s, -1) {
			tok.idents[ident] = true
		}
		for _, m := range methodNamePattern.FindAllStringSubmatch(s, -1) {
			tok.calls[m[1]] = true
		}
	}

	var visit func(BlockID, bool)
	visit = func(b BlockID, own bool) {
		block := &e.tree.blocks[b]
		if !own {
			add(block.Leading)
		}
		for _, s := range block.Statements {
			add(s)
		}
		for _, child := range block.Children {
			visit(child, false)
		}
	}
	visit(id, true)
	return tok
}

// methodName extracts a method or constructor name from a method-block's
// leading statement. Initializer blocks have no name of their own.
func methodName(leading string) string {
	stripped := strings.TrimSpace(annotationPattern.ReplaceAllString(leading, ""))
	if m := methodNamePattern.FindStringSubmatch(stripped); m != nil {
		return m[1]
	}
	if staticInitPattern.MatchString(stripped) {
		return "<clinit>"
	}
	return "<init>"
}

// fieldNames returns the variables declared by a class-body statement such
// as `private int a, b = 2`. Statements that are not declarations return nil.
func fieldNames(statement string) []string {
	s := strings.TrimSpace(annotationPattern.ReplaceAllString(statement, ""))
	if s == "" || nonFieldPattern.MatchString(s) {
		return nil
	}

	lhs := s
	if i := strings.IndexByte(s, '='); i >= 0 {
		lhs = s[:i]
	}
	if strings.ContainsAny(lhs, "()") {
		return nil
	}
	lhs = strings.ReplaceAll(stripGenerics(lhs), "[]", " ")

	parts := strings.Split(lhs, ",")
	first := identPattern.FindAllString(parts[0], -1)
	if len(first) < 2 {
		return nil
	}

	names := []string{first[len(first)-1]}
	for _, p := range parts[1:] {
		if ids := identPattern.FindAllString(p, -1); len(ids) > 0 {
			names = append(names, ids[len(ids)-1])
		}
	}
	return names
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

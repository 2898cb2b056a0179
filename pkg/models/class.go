package models

import "strings"

// Visibility is the access level of a declared class.
type Visibility string

const (
	VisibilityPublic    Visibility = "PUBLIC"
	VisibilityProtected Visibility = "PROTECTED"
	VisibilityPrivate   Visibility = "PRIVATE"
)

// DeclarationKind is the keyword a declaration was introduced with.
type DeclarationKind string

const (
	KindClass     DeclarationKind = "class"
	KindInterface DeclarationKind = "interface"
	KindEnum      DeclarationKind = "enum"
)

// Method summarizes one method-block of a class: a direct child block of the
// class that is not itself a nested declaration.
type Method struct {
	Name       string   `json:"name"`
	Complexity int      `json:"complexity"`
	Statements int      `json:"statements"`
	IsTest     bool     `json:"is_test,omitempty"`
	FieldRefs  []string `json:"field_refs,omitempty"`
	Calls      []string `json:"calls,omitempty"`
}

// ParsedClass is a class, interface or enum declaration recovered from a
// source file. Parents are qualified names; they are resolved to concrete
// classes only by the repository linking pass.
type ParsedClass struct {
	Name       string          `json:"name"`
	Kind       DeclarationKind `json:"kind"`
	Visibility Visibility      `json:"visibility"`
	Package    string          `json:"package,omitempty"`
	Path       string          `json:"path"`
	Parents    []string        `json:"parents,omitempty"`

	Methods []Method `json:"methods,omitempty"`
	Fields  []string `json:"fields,omitempty"`

	// WMC is the sum of the complexity of the class's method-blocks.
	WMC int `json:"wmc"`
	// Complexity is the score of the class block including nested declarations.
	Complexity int `json:"complexity"`
}

// QualifiedName joins the enclosing package (or enclosing declaration) with
// the class name.
func (c *ParsedClass) QualifiedName() string {
	return Qualify(c.Package, c.Name)
}

// AddParent appends a parent edge unless it is already recorded.
func (c *ParsedClass) AddParent(name string) {
	if name == "" {
		return
	}
	for _, p := range c.Parents {
		if p == name {
			return
		}
	}
	c.Parents = append(c.Parents, name)
}

// HasParent reports whether name is one of the class's parent edges.
func (c *ParsedClass) HasParent(name string) bool {
	for _, p := range c.Parents {
		if p == name {
			return true
		}
	}
	return false
}

// NumMethods returns the number of method-blocks.
func (c *ParsedClass) NumMethods() int {
	return len(c.Methods)
}

// Qualify joins a dotted prefix and a simple name.
func Qualify(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// LastSegment returns the part of a dotted name after the final dot.
func LastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

package models

// LineCounts classifies every line of a file exactly once.
type LineCounts struct {
	Total   int `json:"total"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// Add accumulates another set of counts.
func (l *LineCounts) Add(other LineCounts) {
	l.Total += other.Total
	l.Blank += other.Blank
	l.Comment += other.Comment
	l.Code += other.Code
}

// CommentDensity is the share of non-blank lines that are comments.
// Returns 0 when there are no non-blank lines.
func (l LineCounts) CommentDensity() float64 {
	nonBlank := l.Comment + l.Code
	if nonBlank == 0 {
		return 0
	}
	return float64(l.Comment) / float64(nonBlank)
}

// SourceFile is the complete analysis record for one file. It is built once
// and then only read.
type SourceFile struct {
	Path       string        `json:"path"`
	Package    string        `json:"package,omitempty"`
	Lines      LineCounts    `json:"lines"`
	Imports    []string      `json:"imports,omitempty"`
	Asserts    []string      `json:"asserts,omitempty"`
	Classes    []ParsedClass `json:"classes"`
	Complexity int           `json:"complexity"`
	Statements int           `json:"statements"`
}

// NumAsserts returns the number of assert/test statements in the file.
func (s *SourceFile) NumAsserts() int {
	return len(s.Asserts)
}

// MainClass returns the first declaration of the file, or nil.
func (s *SourceFile) MainClass() *ParsedClass {
	if len(s.Classes) == 0 {
		return nil
	}
	return &s.Classes[0]
}

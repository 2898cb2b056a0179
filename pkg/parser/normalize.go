package parser

import (
	"strings"

	"github.com/qalab/qametrics/pkg/models"
)

// Placeholders substituted for literal contents. They never contain
// structural characters, quotes or comment markers.
const (
	stringPlaceholder = "_"
	charPlaceholder   = "_"
)

// Normalized is source text prepared for structural scanning.
type Normalized struct {
	// Text has literals masked, comments and blank lines removed, and line
	// breaks collapsed into single spaces.
	Text  string
	Lines models.LineCounts
}

// Normalize cleans raw source text and classifies its lines. The order of the
// steps matters: a line that only becomes empty once its comment is removed
// is a comment line, not a blank line.
func Normalize(raw string) Normalized {
	var n Normalized

	text := cleanUp(raw)
	n.Lines.Total = countLines(text)

	text = maskLiterals(text)

	text = dropBlankLines(text)
	remaining := countLines(text)
	n.Lines.Blank = n.Lines.Total - remaining

	text = dropBlankLines(stripComments(text))
	n.Lines.Comment = remaining - countLines(text)
	n.Lines.Code = n.Lines.Total - n.Lines.Blank - n.Lines.Comment

	n.Text = strings.ReplaceAll(text, "\n", " ")
	return n
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "")

// cleanUp normalizes line endings and drops NUL bytes and a leading BOM.
func cleanUp(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	return lineEndings.Replace(raw)
}

// countLines counts lines the way an editor does: a trailing newline
// terminates the last line rather than starting a new one.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func dropBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// maskLiterals replaces the contents of string, char and text-block literals.
// Comments are copied through untouched so that quotes inside them do not open
// a literal; they are removed later by stripComments.
func maskLiterals(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text)
			} else {
				end += i
			}
			b.WriteString(text[i:end])
			i = end
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = len(text)
			} else {
				end += i + 4
			}
			b.WriteString(text[i:end])
			i = end
		case strings.HasPrefix(text[i:], `"""`):
			i = maskTextBlock(&b, text, i)
		case c == '"':
			i = maskQuoted(&b, text, i, '"', stringPlaceholder)
		case c == '\'':
			i = maskQuoted(&b, text, i, '\'', charPlaceholder)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// maskQuoted writes a masked single-line literal starting at text[start] and
// returns the index just past it. An unterminated literal ends at the line
// break, which is left in place.
func maskQuoted(b *strings.Builder, text string, start int, quote byte, placeholder string) int {
	b.WriteByte(quote)
	b.WriteString(placeholder)
	b.WriteByte(quote)

	for j := start + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if j+1 < len(text) && text[j+1] != '\n' {
				j++
			}
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(text)
}

// maskTextBlock masks a triple-quoted literal, keeping one placeholder per
// non-blank line so that line counts are unaffected.
func maskTextBlock(b *strings.Builder, text string, start int) int {
	b.WriteString(`"""`)
	content := false
	flush := func() {
		if content {
			b.WriteString(stringPlaceholder)
			content = false
		}
	}

	for j := start + 3; j < len(text); {
		switch {
		case text[j] == '\\':
			content = true
			if j+1 < len(text) && text[j+1] != '\n' {
				j += 2
			} else {
				j++
			}
		case strings.HasPrefix(text[j:], `"""`):
			flush()
			b.WriteString(`"""`)
			return j + 3
		case text[j] == '\n':
			flush()
			if j == len(text)-1 {
				// Unterminated at end of input: close before the final
				// line break so no line is added.
				b.WriteString(`"""`)
				b.WriteByte('\n')
				return len(text)
			}
			b.WriteByte('\n')
			j++
		default:
			if text[j] != ' ' && text[j] != '\t' {
				content = true
			}
			j++
		}
	}
	flush()
	b.WriteString(`"""`)
	return len(text)
}

// stripComments removes line and block comments. Line breaks inside block
// comments are kept so that each physical line survives until blank-line
// removal.
func stripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] == '/' && i+1 < len(text) {
			switch text[i+1] {
			case '/':
				end := strings.IndexByte(text[i:], '\n')
				if end < 0 {
					return b.String()
				}
				i += end
				continue
			case '*':
				end := strings.Index(text[i+2:], "*/")
				body := text[i+2:]
				if end >= 0 {
					body = body[:end]
				}
				b.WriteString(strings.Repeat("\n", strings.Count(body, "\n")))
				if end < 0 {
					return b.String()
				}
				i += end + 4
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

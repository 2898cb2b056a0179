package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const indentUnit = "    "

// Fprint writes the tree as re-indented source, one statement per line.
// Declaration blocks are preceded by a `(CLASS: ...)` note listing their
// unresolved extends/implements names. When calc is non-nil each block's
// opening line is annotated with its complexity score.
func Fprint(w io.Writer, t *Tree, calc *Calculator) error {
	bw := bufio.NewWriter(w)
	var scores []int
	if calc != nil {
		scores = calc.Scores(t)
	}

	var write func(id BlockID, indent string)
	write = func(id BlockID, indent string) {
		b := &t.blocks[id]
		if id != Root {
			if st := Classify(b.Leading); st.Kind == KindDeclaration {
				fmt.Fprintf(bw, "\n%s(CLASS: %s", indent, st.Decl.Name)
				if len(st.Decl.Candidates) > 0 {
					fmt.Fprintf(bw, ", with parents: %s", strings.Join(st.Decl.Candidates, ","))
				}
				fmt.Fprintln(bw, ")")
			}
		}

		fmt.Fprintf(bw, "%s%s {", indent, b.Leading)
		if scores != nil {
			fmt.Fprintf(bw, " // complexity %d", scores[id])
		}
		fmt.Fprintln(bw)
		for _, s := range b.Statements {
			fmt.Fprintf(bw, "%s%s%s;\n", indent, indentUnit, s)
		}
		for _, child := range b.Children {
			write(child, indent+indentUnit)
		}
		fmt.Fprintf(bw, "%s}\n", indent)
	}
	write(Root, "")

	return bw.Flush()
}

package repository

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qalab/qametrics/internal/output"
)

var _ output.Renderable = (*Report)(nil)

// RenderData returns the report itself for structured formats.
func (r *Report) RenderData() any {
	return r
}

// RenderText writes the report as titled sections followed by a class table.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	return r.document(colored).RenderText(w, colored)
}

// RenderMarkdown writes the report as markdown.
func (r *Report) RenderMarkdown(w io.Writer) error {
	return r.document(false).RenderMarkdown(w)
}

func (r *Report) document(colored bool) *output.Report {
	s := r.Summary
	sections := []output.Renderable{
		&output.Section{
			Title: "Statistics",
			Content: fmt.Sprintf(
				"Consists of %d source files, %d classes, %d methods, %d assert statements.\n"+
					"Lines: %d code, %d comments, %d empty. In total: %d lines.",
				s.Files, s.Classes, s.Methods, s.Asserts,
				s.Lines.Code, s.Lines.Comment, s.Lines.Blank, s.Lines.Total),
		},
		&output.Section{Title: "Complexity", Content: r.complexityText()},
		&output.Section{Title: "Modularity", Content: r.modularityText()},
		&output.Section{Title: "Maturity", Content: r.maturityText()},
		&output.Section{
			Title: "Reliability",
			Content: fmt.Sprintf(
				"Average assert statements per method: %.2f\n"+
					"Percentage of methods not tested (PMNT): %.1f%%\n"+
					"Percentage of method statements in test methods: %.1f%%",
				s.AssertsPerMethod, s.PMNT, s.TestStatementShare),
		},
	}

	if len(r.Classes) > 0 {
		sections = append(sections, r.classTable())
	}
	if len(r.Violations) > 0 {
		sections = append(sections, r.violationTable(colored))
	}

	title := "Repository metrics"
	if r.Root != "" {
		title += ": " + r.Root
	}
	return &output.Report{Title: title, Sections: sections}
}

func (r *Report) complexityText() string {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Comment density (CD): %.1f%%\n", 100*s.CommentDensity)
	fmt.Fprintf(&b, "Weighted methods per class (WMC): mean %.1f, median %.1f, stddev %.1f",
		s.WMC.Mean, s.WMC.Median, s.WMC.StdDev)
	if s.MostComplex != nil {
		fmt.Fprintf(&b, "\nMost complex class: %s (WMC %d, total complexity %d)",
			s.MostComplex.Name, s.MostComplex.WMC, s.MostComplex.Complexity)
	}
	return b.String()
}

func (r *Report) modularityText() string {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Lack of cohesion in methods (LCOM4): mean %.1f, max %d, %d classes above 1",
		s.LCOM.Mean, s.LCOM.Max, s.LowCohesionCount)
	if s.LeastCohesive != nil {
		fmt.Fprintf(&b, "\nLeast cohesive class: %s (LCOM %d)", s.LeastCohesive.Name, s.LeastCohesive.LCOM)
	}
	fmt.Fprintf(&b, "\nDeepest inheritance (DIT): %d", s.MaxDIT)
	if s.UnresolvedCount > 0 {
		fmt.Fprintf(&b, "\nParents outside the repository: %d", s.UnresolvedCount)
	}
	for _, cycle := range r.Cycles {
		fmt.Fprintf(&b, "\nInheritance cycle: %s", strings.Join(cycle, " -> "))
	}
	return b.String()
}

func (r *Report) maturityText() string {
	if r.History == nil {
		return "Commit history unavailable."
	}
	h := r.History
	text := fmt.Sprintf("Commits made to the project: %d by %d authors", h.Commits, h.Authors)
	if age := h.Age(); age > 0 {
		text += fmt.Sprintf(" over %d days", int(age.Hours()/24))
	}
	return text
}

func (r *Report) classTable() *output.Table {
	rows := make([][]string, len(r.Classes))
	for i, c := range r.Classes {
		rows[i] = []string{
			c.Name,
			string(c.Kind),
			strconv.Itoa(c.WMC),
			strconv.Itoa(c.LCOM),
			strconv.Itoa(c.DIT),
			strconv.Itoa(c.NOC),
			strconv.Itoa(c.NOM),
			strconv.Itoa(c.NOF),
		}
	}
	return output.NewTable("Classes",
		[]string{"Class", "Kind", "WMC", "LCOM", "DIT", "NOC", "NOM", "NOF"},
		rows, nil, r.Classes)
}

func (r *Report) violationTable(colored bool) *output.Table {
	rows := make([][]string, len(r.Violations))
	for i, v := range r.Violations {
		value := formatValue(v.Value)
		if colored {
			value = output.SeverityColor("violation", value)
		}
		rows[i] = []string{v.Subject, v.Metric, value, formatValue(v.Threshold)}
	}
	return output.NewTable("Threshold violations",
		[]string{"Subject", "Metric", "Value", "Threshold"},
		rows, nil, r.Violations)
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

package report

import (
	"embed"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/qalab/qametrics/pkg/analyzer/repository"
)

//go:embed template.html
var templateFS embed.FS

// DefaultTop is the number of classes listed per section.
const DefaultTop = 10

// Renderer handles HTML report generation.
type Renderer struct {
	tmpl *template.Template
	top  int
}

// NewRenderer creates a new renderer with the embedded template. top limits
// the rows of each ranked section; 0 or less uses DefaultTop.
func NewRenderer(top int) (*Renderer, error) {
	if top <= 0 {
		top = DefaultTop
	}
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"title": cases.Title(language.English).String,
		"num": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"pct": func(f float64) string {
			return printer.Sprintf("%.1f%%", f)
		},
		"ratio": func(f float64) string {
			return printer.Sprintf("%.1f%%", 100*f)
		},
		"dec": func(f float64) string {
			return printer.Sprintf("%.2f", f)
		},
		"truncatePath": truncatePath,
		"badge": func(value, limit int) string {
			switch {
			case limit > 0 && value > limit:
				return "danger"
			case limit > 0 && value > limit/2:
				return "warning"
			}
			return "good"
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, top: top}, nil
}

// Build assembles the template data for a repository report. The report's
// class order is left untouched.
func (r *Renderer) Build(meta Metadata, rep *repository.Report) *RenderData {
	return &RenderData{
		Metadata: meta,
		Report:   rep,
		Health:   health(rep),
		Sections: []Section{
			{Title: "Most complex classes", Metric: "wmc", Classes: r.ranked(rep, func(a, b repository.ClassMetrics) bool { return a.WMC > b.WMC })},
			{Title: "Least cohesive classes", Metric: "lcom", Classes: r.ranked(rep, func(a, b repository.ClassMetrics) bool { return a.LCOM > b.LCOM })},
			{Title: "Deepest inheritance", Metric: "dit", Classes: r.ranked(rep, func(a, b repository.ClassMetrics) bool { return a.DIT > b.DIT })},
		},
		Violations: rep.Violations,
	}
}

func (r *Renderer) ranked(rep *repository.Report, less func(a, b repository.ClassMetrics) bool) []repository.ClassMetrics {
	classes := make([]repository.ClassMetrics, len(rep.Classes))
	copy(classes, rep.Classes)
	sort.SliceStable(classes, func(i, j int) bool {
		if less(classes[i], classes[j]) {
			return true
		}
		if less(classes[j], classes[i]) {
			return false
		}
		return classes[i].Name < classes[j].Name
	})
	if len(classes) > r.top {
		classes = classes[:r.top]
	}
	return classes
}

// health grades the report by its share of violating classes.
func health(rep *repository.Report) string {
	if len(rep.Violations) == 0 {
		return "good"
	}
	if rep.Summary.Classes > 0 && len(rep.Violations)*5 <= rep.Summary.Classes {
		return "warning"
	}
	return "danger"
}

// Render writes the HTML report to w.
func (r *Renderer) Render(w io.Writer, data *RenderData) error {
	return r.tmpl.Execute(w, data)
}

// RenderToFile generates HTML and writes it to a file.
func (r *Renderer) RenderToFile(outputPath string, data *RenderData) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.Render(f, data)
}

func truncatePath(s string, n int) string {
	if len(s) <= n {
		return s
	}
	parts := strings.Split(s, "/")
	filename := parts[len(parts)-1]
	if len(parts) <= 2 || len(filename) >= n-3 {
		return "..." + s[len(s)-n+3:]
	}
	remaining := n - len(filename) - 4
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if len(prefix) > remaining {
		prefix = prefix[len(prefix)-remaining:]
	}
	return "..." + prefix + "/" + filename
}

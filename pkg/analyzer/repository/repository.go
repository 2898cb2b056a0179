// Package repository links per-file analysis results into a repository-wide
// view: it resolves inheritance across files and derives class metrics and
// repository statistics from the linked classes.
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/models"
)

// Option is a functional option for configuring Build.
type Option func(*builder)

// WithThresholds flags classes and files whose metrics cross t. Zero fields
// disable the corresponding check.
func WithThresholds(t config.ThresholdConfig) Option {
	return func(b *builder) {
		b.thresholds = t
	}
}

// WithRoot records the analyzed root in the report.
func WithRoot(root string) Option {
	return func(b *builder) {
		b.root = root
	}
}

type builder struct {
	thresholds config.ThresholdConfig
	root       string
}

// Build links files and computes the report. It runs after every file has
// been parsed and never modifies the files.
func Build(ctx context.Context, files []*models.SourceFile, opts ...Option) (*Report, error) {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Root:        b.root,
		Classes:     make([]ClassMetrics, 0),
	}

	idx := link(files)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("linking classes: %w", err)
	}

	dit := idx.depths()
	for id, cls := range idx.classes {
		if id%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("computing class metrics: %w", err)
			}
		}
		report.Classes = append(report.Classes, ClassMetrics{
			Name:       cls.QualifiedName(),
			Kind:       cls.Kind,
			Visibility: cls.Visibility,
			Path:       cls.Path,
			WMC:        cls.WMC,
			Complexity: cls.Complexity,
			LCOM:       lcom4(cls),
			DIT:        dit[id],
			NOC:        len(idx.children[id]),
			NOM:        cls.NumMethods(),
			NOF:        len(cls.Fields),
			Parents:    idx.names(idx.parents[id]),
			Children:   idx.names(idx.children[id]),
			Unresolved: idx.unresolved[id],
		})
	}
	report.Cycles = idx.cycles

	report.Summary = summarize(files, report.Classes)
	report.Violations = b.violations(files, report)
	return report, nil
}

func summarize(files []*models.SourceFile, classes []ClassMetrics) Summary {
	s := Summary{
		Files:   len(files),
		Classes: len(classes),
	}

	var testStatements, allStatements, untested, testable int
	asserted := assertedNames(files)
	for _, f := range files {
		s.Lines.Add(f.Lines)
		s.Asserts += f.NumAsserts()
		for _, cls := range f.Classes {
			for _, m := range cls.Methods {
				s.Methods++
				allStatements += m.Statements
				if m.IsTest {
					testStatements += m.Statements
					continue
				}
				if isInitializer(m) {
					continue
				}
				testable++
				if !asserted[m.Name] {
					untested++
				}
			}
		}
	}
	s.CommentDensity = s.Lines.CommentDensity()
	if s.Methods > 0 {
		s.AssertsPerMethod = float64(s.Asserts) / float64(s.Methods)
	}
	s.PMNT = percent(untested, testable)
	s.TestStatementShare = percent(testStatements, allStatements)

	wmc := make([]int, len(classes))
	lcom := make([]int, len(classes))
	for i, c := range classes {
		wmc[i] = c.WMC
		lcom[i] = c.LCOM
		if c.LCOM > 1 {
			s.LowCohesionCount++
		}
		if c.DIT > s.MaxDIT {
			s.MaxDIT = c.DIT
		}
		s.UnresolvedCount += len(c.Unresolved)
	}
	s.WMC = distribution(wmc)
	s.LCOM = distribution(lcom)
	s.MostComplex = mostComplex(classes)
	s.LeastCohesive = leastCohesive(classes)
	return s
}

// mostComplex picks the class with the highest WMC, breaking ties by total
// complexity and then by name.
func mostComplex(classes []ClassMetrics) *ClassRef {
	var best *ClassMetrics
	for i := range classes {
		c := &classes[i]
		switch {
		case best == nil,
			c.WMC > best.WMC,
			c.WMC == best.WMC && c.Complexity > best.Complexity,
			c.WMC == best.WMC && c.Complexity == best.Complexity && c.Name < best.Name:
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &ClassRef{Name: best.Name, WMC: best.WMC, Complexity: best.Complexity}
}

// leastCohesive picks the class with the highest LCOM, breaking ties by name.
func leastCohesive(classes []ClassMetrics) *ClassRef {
	var best *ClassMetrics
	for i := range classes {
		c := &classes[i]
		if best == nil || c.LCOM > best.LCOM || (c.LCOM == best.LCOM && c.Name < best.Name) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &ClassRef{Name: best.Name, LCOM: best.LCOM}
}

func (b *builder) violations(files []*models.SourceFile, report *Report) []Violation {
	t := b.thresholds
	var out []Violation

	for _, c := range report.Classes {
		if t.WMC > 0 && c.WMC > t.WMC {
			out = append(out, Violation{Subject: c.Name, Metric: "wmc", Value: float64(c.WMC), Threshold: float64(t.WMC)})
		}
		if t.LCOM > 0 && c.LCOM > t.LCOM {
			out = append(out, Violation{Subject: c.Name, Metric: "lcom", Value: float64(c.LCOM), Threshold: float64(t.LCOM)})
		}
	}
	for _, f := range files {
		if t.FileComplexity > 0 && f.Complexity > t.FileComplexity {
			out = append(out, Violation{Subject: f.Path, Metric: "file_complexity", Value: float64(f.Complexity), Threshold: float64(t.FileComplexity)})
		}
	}
	if t.CommentDensityMin > 0 && len(files) > 0 && report.Summary.CommentDensity < t.CommentDensityMin {
		out = append(out, Violation{Subject: "repository", Metric: "comment_density", Value: report.Summary.CommentDensity, Threshold: t.CommentDensityMin})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}

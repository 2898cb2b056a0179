package repository

import (
	"sort"
	"time"

	"github.com/qalab/qametrics/internal/vcs"
	"github.com/qalab/qametrics/pkg/models"
)

// ClassMetrics represents CK-style metrics for a single linked class.
type ClassMetrics struct {
	Name       string                 `json:"name"`
	Kind       models.DeclarationKind `json:"kind"`
	Visibility models.Visibility      `json:"visibility"`
	Path       string                 `json:"path"`

	// Weighted Methods per Class - sum of cyclomatic complexity of all methods
	WMC int `json:"wmc"`

	// Complexity of the whole class block, nested declarations included
	Complexity int `json:"complexity"`

	// Lack of Cohesion in Methods (LCOM4) - number of connected components in
	// the method graph, where methods connect through shared fields or calls.
	// 1 = fully cohesive, >1 = could be split
	LCOM int `json:"lcom"`

	// Depth of Inheritance Tree
	DIT int `json:"dit"`

	// Number of Children (direct subclasses and implementors)
	NOC int `json:"noc"`

	// Number of methods
	NOM int `json:"nom"`

	// Number of fields
	NOF int `json:"nof"`

	Parents    []string `json:"parents,omitempty"`
	Children   []string `json:"children,omitempty"`
	Unresolved []string `json:"unresolved_parents,omitempty"`
}

// Lines aggregates line counts across files.
type Lines = models.LineCounts

// ClassRef names a class together with the metric that singled it out.
type ClassRef struct {
	Name       string `json:"name"`
	WMC        int    `json:"wmc,omitempty"`
	Complexity int    `json:"complexity,omitempty"`
	LCOM       int    `json:"lcom,omitempty"`
}

// Distribution holds descriptive statistics for one per-class metric.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	Max    int     `json:"max"`
}

// Summary provides repository-level statistics.
type Summary struct {
	Files   int   `json:"files"`
	Classes int   `json:"classes"`
	Methods int   `json:"methods"`
	Asserts int   `json:"asserts"`
	Lines   Lines `json:"lines"`

	// CommentDensity is comment / (comment + code), in [0, 1].
	CommentDensity float64 `json:"comment_density"`

	WMC           Distribution `json:"wmc"`
	LCOM          Distribution `json:"lcom"`
	MostComplex   *ClassRef    `json:"most_complex,omitempty"`
	LeastCohesive *ClassRef    `json:"least_cohesive,omitempty"`
	MaxDIT        int          `json:"max_dit"`

	// AssertsPerMethod is the number of assert statements per method.
	AssertsPerMethod float64 `json:"asserts_per_method"`
	// PMNT is the percentage of non-test methods never invoked from an
	// assert statement.
	PMNT float64 `json:"pmnt"`
	// TestStatementShare is the percentage of method statements that sit in
	// test methods.
	TestStatementShare float64 `json:"test_statement_share"`

	LowCohesionCount int `json:"low_cohesion_count"`
	UnresolvedCount  int `json:"unresolved_count"`
}

// Violation records a metric that crossed a configured threshold.
type Violation struct {
	Subject   string  `json:"subject"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Report is the full repository analysis result.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Root        string         `json:"root,omitempty"`
	Classes     []ClassMetrics `json:"classes"`
	Summary     Summary        `json:"summary"`
	History     *vcs.History   `json:"history,omitempty"`
	Cycles      [][]string     `json:"inheritance_cycles,omitempty"`
	Violations  []Violation    `json:"violations,omitempty"`
	Failed      []string       `json:"failed_files,omitempty"`
}

// Class returns the metrics for a qualified class name, or nil.
func (r *Report) Class(name string) *ClassMetrics {
	for i := range r.Classes {
		if r.Classes[i].Name == name {
			return &r.Classes[i]
		}
	}
	return nil
}

// SortByLCOM sorts classes by LCOM in descending order (least cohesive first).
func (r *Report) SortByLCOM() {
	sort.SliceStable(r.Classes, func(i, j int) bool {
		return r.Classes[i].LCOM > r.Classes[j].LCOM
	})
}

// SortByWMC sorts classes by WMC in descending order (most complex first).
func (r *Report) SortByWMC() {
	sort.SliceStable(r.Classes, func(i, j int) bool {
		return r.Classes[i].WMC > r.Classes[j].WMC
	})
}

// SortByDIT sorts classes by DIT in descending order (deepest inheritance first).
func (r *Report) SortByDIT() {
	sort.SliceStable(r.Classes, func(i, j int) bool {
		return r.Classes[i].DIT > r.Classes[j].DIT
	})
}

// SortByName sorts classes by qualified name.
func (r *Report) SortByName() {
	sort.SliceStable(r.Classes, func(i, j int) bool {
		return r.Classes[i].Name < r.Classes[j].Name
	})
}

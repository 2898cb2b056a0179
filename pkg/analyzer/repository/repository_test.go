package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalab/qametrics/internal/vcs"
	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/models"
	"github.com/qalab/qametrics/pkg/parser"
)

func zooFiles() []*models.SourceFile {
	return []*models.SourceFile{
		{
			Path:    "a/Animal.java",
			Package: "zoo",
			Lines:   models.LineCounts{Total: 10, Blank: 2, Comment: 3, Code: 5},
			Classes: []models.ParsedClass{{
				Name: "Animal", Kind: models.KindClass, Visibility: models.VisibilityPublic,
				Package: "zoo", Path: "a/Animal.java",
				Fields: []string{"name", "age"},
				Methods: []models.Method{
					{Name: "getName", Complexity: 1, Statements: 1, FieldRefs: []string{"name"}},
					{Name: "getAge", Complexity: 1, Statements: 1, FieldRefs: []string{"age"}},
					{Name: "describe", Complexity: 1, Statements: 1, Calls: []string{"getName", "getAge"}},
				},
				WMC: 3, Complexity: 3,
			}},
			Complexity: 4,
		},
		{
			Path:    "a/Dog.java",
			Package: "zoo",
			Lines:   models.LineCounts{Total: 20, Blank: 2, Comment: 2, Code: 16},
			Classes: []models.ParsedClass{
				{
					Name: "Dog", Kind: models.KindClass, Package: "zoo", Path: "a/Dog.java",
					Parents: []string{"zoo.Animal"},
					Fields:  []string{"bark"},
					Methods: []models.Method{
						{Name: "bark", Complexity: 3, Statements: 2, FieldRefs: []string{"bark"}},
						{Name: "wag", Complexity: 2, Statements: 2},
					},
					WMC: 5, Complexity: 6,
				},
				{
					Name: "Puppy", Kind: models.KindClass, Package: "zoo", Path: "a/Dog.java",
					Parents: []string{"other.Dog"},
				},
			},
			Complexity: 12,
		},
		{
			Path:    "a/Pet.java",
			Package: "zoo",
			Lines:   models.LineCounts{Total: 5, Code: 5},
			Classes: []models.ParsedClass{{
				Name: "Pet", Kind: models.KindInterface, Package: "zoo", Path: "a/Pet.java",
				Parents: []string{"java.io.Serializable"},
			}},
			Complexity: 1,
		},
		{
			Path:    "t/DogTest.java",
			Package: "zoo",
			Lines:   models.LineCounts{Total: 8, Blank: 1, Comment: 1, Code: 6},
			Asserts: []string{"assertEquals(1, dog.bark())", "assertTrue(dog.isHappy())"},
			Classes: []models.ParsedClass{{
				Name: "DogTest", Kind: models.KindClass, Package: "zoo", Path: "t/DogTest.java",
				Methods: []models.Method{
					{Name: "testBark", Complexity: 1, Statements: 2, IsTest: true},
				},
				WMC: 1, Complexity: 1,
			}},
			Complexity: 2,
		},
		{
			Path:    "l/Loop.java",
			Package: "loop",
			Lines:   models.LineCounts{Total: 4, Code: 4},
			Classes: []models.ParsedClass{
				{Name: "A", Kind: models.KindClass, Package: "loop", Path: "l/Loop.java", Parents: []string{"loop.B"}},
				{Name: "B", Kind: models.KindClass, Package: "loop", Path: "l/Loop.java", Parents: []string{"loop.A"}},
			},
			Complexity: 1,
		},
	}
}

func buildZoo(t *testing.T, opts ...Option) *Report {
	t.Helper()
	report, err := Build(context.Background(), zooFiles(), opts...)
	require.NoError(t, err)
	return report
}

func TestBuild_ClassMetrics(t *testing.T) {
	report := buildZoo(t)
	require.Len(t, report.Classes, 7)

	tests := []struct {
		name             string
		dit, noc, lcom   int
		parents          []string
		children         []string
		unresolvedParent []string
	}{
		{name: "zoo.Animal", dit: 0, noc: 1, lcom: 1, children: []string{"zoo.Dog"}},
		{name: "zoo.Dog", dit: 1, noc: 1, lcom: 2, parents: []string{"zoo.Animal"}, children: []string{"zoo.Puppy"}},
		{name: "zoo.Puppy", dit: 2, noc: 0, lcom: 0, parents: []string{"zoo.Dog"}},
		{name: "zoo.Pet", dit: 1, noc: 0, lcom: 0, unresolvedParent: []string{"java.io.Serializable"}},
		{name: "zoo.DogTest", dit: 0, noc: 0, lcom: 1},
		{name: "loop.A", dit: 0, noc: 1, lcom: 0, parents: []string{"loop.B"}, children: []string{"loop.B"}},
		{name: "loop.B", dit: 0, noc: 1, lcom: 0, parents: []string{"loop.A"}, children: []string{"loop.A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := report.Class(tt.name)
			require.NotNil(t, c)
			assert.Equal(t, tt.dit, c.DIT, "DIT")
			assert.Equal(t, tt.noc, c.NOC, "NOC")
			assert.Equal(t, tt.lcom, c.LCOM, "LCOM")
			assert.Equal(t, tt.parents, c.Parents)
			assert.Equal(t, tt.children, c.Children)
			assert.Equal(t, tt.unresolvedParent, c.Unresolved)
		})
	}

	dog := report.Class("zoo.Dog")
	assert.Equal(t, 5, dog.WMC)
	assert.Equal(t, 6, dog.Complexity)
	assert.Equal(t, 2, dog.NOM)
	assert.Equal(t, 1, dog.NOF)
	assert.Nil(t, report.Class("zoo.Cat"))
}

func TestBuild_Cycles(t *testing.T) {
	report := buildZoo(t)
	assert.Equal(t, [][]string{{"loop.A", "loop.B"}}, report.Cycles)
}

func TestBuild_Summary(t *testing.T) {
	s := buildZoo(t).Summary

	assert.Equal(t, 5, s.Files)
	assert.Equal(t, 7, s.Classes)
	assert.Equal(t, 6, s.Methods)
	assert.Equal(t, 2, s.Asserts)
	assert.Equal(t, models.LineCounts{Total: 47, Blank: 5, Comment: 6, Code: 36}, s.Lines)
	assert.InDelta(t, 6.0/42.0, s.CommentDensity, 1e-9)

	assert.InDelta(t, 9.0/7.0, s.WMC.Mean, 1e-9)
	assert.Equal(t, 0.0, s.WMC.Median)
	assert.Equal(t, 5, s.WMC.Max)
	assert.Greater(t, s.WMC.StdDev, 0.0)
	assert.Equal(t, 2, s.LCOM.Max)

	require.NotNil(t, s.MostComplex)
	assert.Equal(t, ClassRef{Name: "zoo.Dog", WMC: 5, Complexity: 6}, *s.MostComplex)
	require.NotNil(t, s.LeastCohesive)
	assert.Equal(t, ClassRef{Name: "zoo.Dog", LCOM: 2}, *s.LeastCohesive)

	assert.Equal(t, 2, s.MaxDIT)
	assert.Equal(t, 1, s.LowCohesionCount)
	assert.Equal(t, 1, s.UnresolvedCount)

	assert.InDelta(t, 2.0/6.0, s.AssertsPerMethod, 1e-9)
	// getName, getAge, describe and wag are never called from an assert.
	assert.InDelta(t, 80.0, s.PMNT, 1e-9)
	assert.InDelta(t, 100.0*2/9, s.TestStatementShare, 1e-9)
}

func TestBuild_Violations(t *testing.T) {
	report := buildZoo(t, WithThresholds(config.ThresholdConfig{
		WMC:               4,
		LCOM:              1,
		FileComplexity:    10,
		CommentDensityMin: 0.5,
	}))

	want := []Violation{
		{Subject: "a/Dog.java", Metric: "file_complexity", Value: 12, Threshold: 10},
		{Subject: "repository", Metric: "comment_density", Value: 6.0 / 42.0, Threshold: 0.5},
		{Subject: "zoo.Dog", Metric: "lcom", Value: 2, Threshold: 1},
		{Subject: "zoo.Dog", Metric: "wmc", Value: 5, Threshold: 4},
	}
	assert.Equal(t, want, report.Violations)
}

func TestBuild_NoThresholds(t *testing.T) {
	assert.Empty(t, buildZoo(t).Violations)
}

func TestBuild_Empty(t *testing.T) {
	report, err := Build(context.Background(), nil, WithRoot("/repo"))
	require.NoError(t, err)

	assert.Equal(t, "/repo", report.Root)
	assert.Empty(t, report.Classes)
	assert.Nil(t, report.Summary.MostComplex)
	assert.Nil(t, report.Summary.LeastCohesive)
	assert.Zero(t, report.Summary.PMNT)
	assert.Empty(t, report.Violations)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, zooFiles())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_DoesNotModifyFiles(t *testing.T) {
	files := zooFiles()
	before, err := json.Marshal(files)
	require.NoError(t, err)

	_, err = Build(context.Background(), files)
	require.NoError(t, err)

	after, err := json.Marshal(files)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestLink_AmbiguousSimpleName(t *testing.T) {
	files := []*models.SourceFile{
		{Classes: []models.ParsedClass{
			{Name: "Node", Package: "a"},
			{Name: "Node", Package: "b"},
			{Name: "Leaf", Package: "c", Parents: []string{"x.Node", "a.Node"}},
		}},
	}
	idx := link(files)

	assert.Equal(t, []int{0}, idx.parents[2])
	assert.Equal(t, []string{"x.Node"}, idx.unresolved[2])
}

func TestLink_Diamond(t *testing.T) {
	files := []*models.SourceFile{
		{Classes: []models.ParsedClass{
			{Name: "Top"},
			{Name: "Left", Parents: []string{"Top"}},
			{Name: "Right", Parents: []string{"Top"}},
			{Name: "Mid", Parents: []string{"Left"}},
			{Name: "Bottom", Parents: []string{"Mid", "Right", "Bottom"}},
		}},
	}
	idx := link(files)

	assert.Equal(t, []int{0, 1, 1, 2, 3}, idx.depths())
	assert.Equal(t, []int{3, 2}, idx.parents[4], "self edges are dropped")
	assert.Empty(t, idx.cycles)
}

func TestLCOM4(t *testing.T) {
	tests := []struct {
		name string
		cls  models.ParsedClass
		want int
	}{
		{"no methods", models.ParsedClass{}, 0},
		{
			"independent methods",
			models.ParsedClass{Methods: []models.Method{{Name: "a"}, {Name: "b"}, {Name: "c"}}},
			3,
		},
		{
			"shared field",
			models.ParsedClass{
				Fields:  []string{"x"},
				Methods: []models.Method{{Name: "a", FieldRefs: []string{"x"}}, {Name: "b", FieldRefs: []string{"x"}}},
			},
			1,
		},
		{
			"call joins components",
			models.ParsedClass{
				Fields: []string{"x", "y"},
				Methods: []models.Method{
					{Name: "a", FieldRefs: []string{"x"}},
					{Name: "b", FieldRefs: []string{"y"}},
					{Name: "c", Calls: []string{"b"}},
				},
			},
			2,
		},
		{
			"unknown field refs ignored",
			models.ParsedClass{
				Methods: []models.Method{{Name: "a", FieldRefs: []string{"z"}}, {Name: "b", FieldRefs: []string{"z"}}},
			},
			2,
		},
		{
			"recursive call",
			models.ParsedClass{Methods: []models.Method{{Name: "a", Calls: []string{"a"}}}},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lcom4(&tt.cls))
		})
	}
}

func TestDistribution(t *testing.T) {
	assert.Equal(t, Distribution{}, distribution(nil))

	single := distribution([]int{4})
	assert.Equal(t, Distribution{Mean: 4, Median: 4, Max: 4}, single)

	d := distribution([]int{2, 1})
	assert.Equal(t, 1.5, d.Mean)
	assert.Equal(t, 1.0, d.Median)
	assert.Equal(t, 2, d.Max)
	assert.InDelta(t, 0.7071, d.StdDev, 1e-4)
}

func TestAssertedNames(t *testing.T) {
	names := assertedNames([]*models.SourceFile{
		{Asserts: []string{"assertEquals(3, cart.total())", "assert isEmpty ( ) == false"}},
	})
	assert.True(t, names["assertEquals"])
	assert.True(t, names["total"])
	assert.True(t, names["isEmpty"])
	assert.False(t, names["cart"])
}

func TestReport_Render(t *testing.T) {
	report := buildZoo(t, WithRoot("zoo"), WithThresholds(config.ThresholdConfig{WMC: 4}))

	var text bytes.Buffer
	require.NoError(t, report.RenderText(&text, false))
	out := text.String()
	assert.Contains(t, out, "Repository metrics: zoo")
	assert.Contains(t, out, "Consists of 5 source files, 7 classes, 6 methods, 2 assert statements.")
	assert.Contains(t, out, "Most complex class: zoo.Dog (WMC 5, total complexity 6)")
	assert.Contains(t, out, "Least cohesive class: zoo.Dog (LCOM 2)")
	assert.Contains(t, out, "Inheritance cycle: loop.A -> loop.B")
	assert.Contains(t, out, "Commit history unavailable.")
	assert.Contains(t, out, "Percentage of methods not tested (PMNT): 80.0%")
	assert.Contains(t, out, "Threshold violations")

	report.History = &vcs.History{
		Commits: 3,
		Authors: 2,
		First:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Last:    time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
	}
	var md bytes.Buffer
	require.NoError(t, report.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "# Repository metrics: zoo")
	assert.Contains(t, md.String(), "Commits made to the project: 3 by 2 authors over 10 days")
	assert.Contains(t, md.String(), "| zoo.Dog | class | 5 | 2 | 1 | 1 | 2 | 1 |")

	assert.Same(t, report, report.RenderData())
}

func TestBuild_WithParser(t *testing.T) {
	psr := parser.New()
	files := []*models.SourceFile{
		psr.Parse([]byte("package p.core;\npublic class Base { int x; void a() { x = 1; } void b() { x = 2; } }\n"), "core/Base.java"),
		psr.Parse([]byte("package p.app;\nimport p.core.Base;\npublic class Child extends Base {}\n"), "app/Child.java"),
	}

	report, err := Build(context.Background(), files)
	require.NoError(t, err)

	base := report.Class("p.core.Base")
	require.NotNil(t, base)
	assert.Equal(t, 1, base.LCOM)
	assert.Equal(t, 1, base.NOC)

	child := report.Class("p.app.Child")
	require.NotNil(t, child)
	assert.Equal(t, 1, child.DIT)
	assert.Equal(t, []string{"p.core.Base"}, child.Parents)
}

func TestReport_Sorting(t *testing.T) {
	report := buildZoo(t)

	report.SortByWMC()
	assert.Equal(t, "zoo.Dog", report.Classes[0].Name)

	report.SortByLCOM()
	assert.Equal(t, "zoo.Dog", report.Classes[0].Name)

	report.SortByDIT()
	assert.Equal(t, "zoo.Puppy", report.Classes[0].Name)

	report.SortByName()
	assert.Equal(t, "loop.A", report.Classes[0].Name)
}

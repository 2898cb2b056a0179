package repository

import (
	"regexp"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/qalab/qametrics/pkg/models"
)

// lcom4 counts the connected components of the method graph of a class.
// Two methods are connected when they use a common field or one calls the
// other. A class without methods has LCOM 0.
func lcom4(cls *models.ParsedClass) int {
	n := len(cls.Methods)
	if n == 0 {
		return 0
	}

	fieldIDs := make(map[string]uint32, len(cls.Fields))
	for i, f := range cls.Fields {
		fieldIDs[f] = uint32(i)
	}

	uses := make([]*roaring.Bitmap, n)
	byName := make(map[string][]int, n)
	g := simple.NewUndirectedGraph()
	for i, m := range cls.Methods {
		bm := roaring.New()
		for _, ref := range m.FieldRefs {
			if id, ok := fieldIDs[ref]; ok {
				bm.Add(id)
			}
		}
		uses[i] = bm
		byName[m.Name] = append(byName[m.Name], i)
		g.AddNode(simple.Node(int64(i)))
	}

	connect := func(a, b int) {
		if a != b {
			g.SetEdge(simple.Edge{F: simple.Node(int64(a)), T: simple.Node(int64(b))})
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uses[i].Intersects(uses[j]) {
				connect(i, j)
			}
		}
		for _, call := range cls.Methods[i].Calls {
			for _, j := range byName[call] {
				connect(i, j)
			}
		}
	}

	return len(topo.ConnectedComponents(g))
}

// distribution summarizes per-class values. Median uses the empirical
// quantile, so for an even count it is the lower middle value.
func distribution(values []int) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	xs := make([]float64, len(values))
	maxV := values[0]
	for i, v := range values {
		xs[i] = float64(v)
		if v > maxV {
			maxV = v
		}
	}
	sort.Float64s(xs)

	d := Distribution{
		Mean:   stat.Mean(xs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Max:    maxV,
	}
	if len(xs) > 1 {
		d.StdDev = stat.StdDev(xs, nil)
	}
	return d
}

var assertCall = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)

// assertedNames collects every identifier invoked inside assert statements.
func assertedNames(files []*models.SourceFile) map[string]bool {
	names := make(map[string]bool)
	for _, f := range files {
		for _, a := range f.Asserts {
			for _, m := range assertCall.FindAllStringSubmatch(a, -1) {
				names[m[1]] = true
			}
		}
	}
	return names
}

// isInitializer reports whether a method-block is an instance or static
// initializer rather than a named method.
func isInitializer(m models.Method) bool {
	return strings.HasPrefix(m.Name, "<")
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

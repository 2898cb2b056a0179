package repository

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/qalab/qametrics/pkg/models"
)

// index is the repository-wide class table built by the linking pass. Class
// indexes double as gonum node IDs.
type index struct {
	classes  []*models.ParsedClass
	byName   map[string]int
	bySimple map[string][]int

	parents    [][]int
	children   [][]int
	unresolved [][]string

	// sccOf maps a class to its strongly connected component in the
	// inheritance graph; classes outside any cycle have their own component.
	sccOf  []int
	cycles [][]string
}

// link resolves parent names across files. A parent resolves to the class
// with the same qualified name, or failing that to the only class sharing its
// simple name. Anything else stays unresolved.
func link(files []*models.SourceFile) *index {
	idx := &index{
		byName:   make(map[string]int),
		bySimple: make(map[string][]int),
	}
	for _, f := range files {
		for i := range f.Classes {
			cls := &f.Classes[i]
			id := len(idx.classes)
			idx.classes = append(idx.classes, cls)
			name := cls.QualifiedName()
			if _, dup := idx.byName[name]; !dup {
				idx.byName[name] = id
			}
			idx.bySimple[cls.Name] = append(idx.bySimple[cls.Name], id)
		}
	}

	n := len(idx.classes)
	idx.parents = make([][]int, n)
	idx.children = make([][]int, n)
	idx.unresolved = make([][]string, n)

	for id, cls := range idx.classes {
		for _, parent := range cls.Parents {
			pid, ok := idx.resolve(parent)
			if !ok {
				idx.unresolved[id] = append(idx.unresolved[id], parent)
				continue
			}
			if pid == id || containsInt(idx.parents[id], pid) {
				continue
			}
			idx.parents[id] = append(idx.parents[id], pid)
			idx.children[pid] = append(idx.children[pid], id)
		}
	}

	idx.findCycles()
	return idx
}

func (idx *index) resolve(name string) (int, bool) {
	if id, ok := idx.byName[name]; ok {
		return id, true
	}
	candidates := idx.bySimple[models.LastSegment(name)]
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return 0, false
}

// findCycles groups classes into strongly connected components of the
// child -> parent graph and records every component larger than one class.
func (idx *index) findCycles() {
	g := simple.NewDirectedGraph()
	for id := range idx.classes {
		g.AddNode(simple.Node(int64(id)))
	}
	for id, parents := range idx.parents {
		for _, pid := range parents {
			g.SetEdge(simple.Edge{F: simple.Node(int64(id)), T: simple.Node(int64(pid))})
		}
	}

	idx.sccOf = make([]int, len(idx.classes))
	for c, component := range topo.TarjanSCC(g) {
		for _, node := range component {
			idx.sccOf[node.ID()] = c
		}
		if len(component) < 2 {
			continue
		}
		names := make([]string, len(component))
		for i, node := range component {
			names[i] = idx.classes[node.ID()].QualifiedName()
		}
		sort.Strings(names)
		idx.cycles = append(idx.cycles, names)
	}
	sort.Slice(idx.cycles, func(i, j int) bool {
		return idx.cycles[i][0] < idx.cycles[j][0]
	})
}

// depths computes the depth of inheritance for every class. Edges inside an
// inheritance cycle are ignored, which leaves a DAG. A class whose parents
// are all outside the repository has depth 1.
func (idx *index) depths() []int {
	memo := make([]int, len(idx.classes))
	for i := range memo {
		memo[i] = -1
	}

	var depth func(id int) int
	depth = func(id int) int {
		if memo[id] >= 0 {
			return memo[id]
		}
		d := 0
		if len(idx.unresolved[id]) > 0 {
			d = 1
		}
		for _, pid := range idx.parents[id] {
			if idx.sccOf[pid] == idx.sccOf[id] {
				continue
			}
			if pd := depth(pid) + 1; pd > d {
				d = pd
			}
		}
		memo[id] = d
		return d
	}

	for id := range idx.classes {
		depth(id)
	}
	return memo
}

func (idx *index) names(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = idx.classes[id].QualifiedName()
	}
	return names
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

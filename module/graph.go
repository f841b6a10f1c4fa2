package module

import (
	"errors"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Graph is the requires graph over a set of known modules. Requires naming
// a module outside the set are dropped.
type Graph struct {
	g       graphlib.Graph[string, string]
	modules map[string]*Descriptor
}

func NewGraph(modules []*Descriptor) (*Graph, error) {
	gr := &Graph{
		g:       graphlib.New(graphlib.StringHash, graphlib.Directed()),
		modules: map[string]*Descriptor{},
	}
	for _, d := range modules {
		if _, dup := gr.modules[d.Name]; dup {
			// first one on the path wins
			continue
		}
		gr.modules[d.Name] = d
		if err := gr.g.AddVertex(d.Name); err != nil {
			return nil, err
		}
	}
	for _, d := range modules {
		if gr.modules[d.Name] != d {
			continue
		}
		for _, r := range d.Requires {
			if _, known := gr.modules[r.ModuleName]; !known {
				continue
			}
			err := gr.g.AddEdge(d.Name, r.ModuleName)
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	return gr, nil
}

func (gr *Graph) Module(name string) *Descriptor {
	return gr.modules[name]
}

// Closure returns the sorted names of roots and every module they reach
// through requires. Unknown roots are skipped.
func (gr *Graph) Closure(roots []string) ([]string, error) {
	seen := map[string]bool{}
	for _, root := range roots {
		if _, known := gr.modules[root]; !known || seen[root] {
			continue
		}
		err := graphlib.DFS(gr.g, root, func(name string) bool {
			seen[name] = true
			return false
		})
		if err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DefaultRoots is the root set used when no --limit-modules is given: every
// module exporting at least one package without qualification.
func (gr *Graph) DefaultRoots() []string {
	var roots []string
	for name, d := range gr.modules {
		if d.HasUnqualifiedExport() {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Closure is a convenience over NewGraph and Graph.Closure. With no roots
// the default root set is used.
func Closure(roots []string, known []*Descriptor) ([]string, error) {
	gr, err := NewGraph(known)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		roots = gr.DefaultRoots()
	}
	return gr.Closure(roots)
}

// Package lattice builds the cross product of classification hierarchies into a
// DAG of composite cells.
//
// Each lattice node fixes one position per hierarchy. Drilling down one
// dimension replaces that dimension's label with one of its children, so the
// same cell is reachable along several paths; nodes are deduplicated by their
// composite name and stored in an arena, with parent/child links held as IDs.
//
//	         All,All
//	        /       \
//	  Sony,All     All,Action
//	        \       /
//	       Sony,Action
package lattice

import (
	"fmt"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/cascade/internal/hierarchy"
)

// NameSeparator joins per-dimension labels into a composite node name.
const NameSeparator = ","

// Config controls how leaf values are assigned during construction.
type Config struct {
	// TakeLog stores ln(value) for every leaf instead of the raw value.
	TakeLog bool
}

// Lattice owns every node of the cross-product DAG.
type Lattice struct {
	dims   int
	cfg    Config
	trees  []*hierarchy.Node
	nodes  []*Node        // arena, indexed by Node.ID; nodes[0] is the root
	index  map[string]int // composite name → ID
	levels [][]int        // node IDs grouped by BFS depth
	leaves []int          // leaf IDs in construction order

	coverage []*roaring.Bitmap // leaf indices covered by each node
}

// Name joins per-dimension labels into a composite node name.
func Name(labels ...string) string {
	return strings.Join(labels, NameSeparator)
}

// Build cross-products trees (one per dimension, in dimension order) and
// assigns leaf values from values, keyed by composite name.
func Build(trees []*hierarchy.Node, values map[string]float64, cfg Config) (*Lattice, error) {
	if len(trees) == 0 {
		return nil, ErrNoHierarchies
	}
	for d, t := range trees {
		if t == nil {
			return nil, fmt.Errorf("dimension %d: %w", d, hierarchy.ErrEmptyHierarchy)
		}
		if err := checkLabels(t); err != nil {
			return nil, fmt.Errorf("dimension %d: %w", d, err)
		}
	}

	l := &Lattice{
		dims:  len(trees),
		cfg:   cfg,
		trees: trees,
		index: make(map[string]int),
	}

	type frame struct {
		id  int
		pos []*hierarchy.Node
	}

	rootLabels := make([]string, l.dims)
	for d, t := range trees {
		rootLabels[d] = t.Name
	}
	root := l.add(rootLabels, 0)
	queue := []frame{{id: root.ID, pos: trees}}

	// Breadth-first expansion: a node's level is the depth at which it is
	// first reached, and every path from the root to it has that length.
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		cur := l.nodes[f.id]

		leaf := true
		for d, p := range f.pos {
			for _, c := range p.Children {
				leaf = false
				labels := append([]string(nil), cur.Labels...)
				labels[d] = c.Name

				child, ok := l.lookup(Name(labels...))
				if !ok {
					child = l.add(labels, cur.Level+1)
					pos := append([]*hierarchy.Node(nil), f.pos...)
					pos[d] = c
					queue = append(queue, frame{id: child.ID, pos: pos})
				}
				child.Parents[d] = cur.ID
				cur.Children[d] = append(cur.Children[d], child.ID)
			}
		}

		if leaf {
			if err := l.assignLeaf(cur, values); err != nil {
				return nil, err
			}
		}
	}

	l.buildCoverage()
	return l, nil
}

func checkLabels(t *hierarchy.Node) error {
	var err error
	t.Walk(func(n *hierarchy.Node) bool {
		if err == nil && strings.Contains(n.Name, NameSeparator) {
			err = fmt.Errorf("%w: %q", ErrInvalidLabel, n.Name)
		}
		return err == nil
	})
	return err
}

func (l *Lattice) add(labels []string, level int) *Node {
	n := newNode(len(l.nodes), Name(labels...), labels, level)
	l.nodes = append(l.nodes, n)
	l.index[n.Name] = n.ID
	for len(l.levels) <= level {
		l.levels = append(l.levels, nil)
	}
	l.levels[level] = append(l.levels[level], n.ID)
	return n
}

func (l *Lattice) lookup(name string) (*Node, bool) {
	id, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.nodes[id], true
}

func (l *Lattice) assignLeaf(n *Node, values map[string]float64) error {
	v, ok := values[n.Name]
	if !ok {
		return &MissingValueError{Name: n.Name}
	}
	if math.IsNaN(v) {
		return &InvalidValueError{Name: n.Name, Value: v, Reason: "not a number"}
	}
	n.Leaf = true
	n.Observed = v
	n.Value = v
	if l.cfg.TakeLog {
		if v <= 0 {
			return &InvalidValueError{Name: n.Name, Value: v, Reason: "log transform needs a positive value"}
		}
		n.Value = math.Log(v)
	}
	n.LeafIndex = len(l.leaves)
	l.leaves = append(l.leaves, n.ID)
	return nil
}

// Dims returns the number of hierarchies the lattice was built from.
func (l *Lattice) Dims() int { return l.dims }

// Config returns the construction settings.
func (l *Lattice) Config() Config { return l.cfg }

// Trees returns the hierarchy roots in dimension order.
func (l *Lattice) Trees() []*hierarchy.Node { return l.trees }

// Root returns the top cell, whose labels are the hierarchy roots.
func (l *Lattice) Root() *Node { return l.nodes[0] }

// Len returns the number of lattice nodes.
func (l *Lattice) Len() int { return len(l.nodes) }

// Node returns the node with the given ID.
func (l *Lattice) Node(id int) *Node { return l.nodes[id] }

// Nodes returns the arena in ID order. Callers must not modify the slice.
func (l *Lattice) Nodes() []*Node { return l.nodes }

// Lookup finds a node by composite name.
func (l *Lattice) Lookup(name string) (*Node, error) {
	n, ok := l.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return n, nil
}

// Leaves returns the leaf nodes in construction order.
func (l *Lattice) Leaves() []*Node {
	out := make([]*Node, len(l.leaves))
	for i, id := range l.leaves {
		out[i] = l.nodes[id]
	}
	return out
}

// LeafCount returns the number of leaf cells in the lattice.
func (l *Lattice) LeafCount() int { return len(l.leaves) }

// LevelCount returns the number of BFS levels (max depth + 1).
func (l *Lattice) LevelCount() int { return len(l.levels) }

// Level returns the IDs of the nodes at BFS depth i.
func (l *Lattice) Level(i int) []int { return l.levels[i] }

// Stats summarizes the lattice shape.
type Stats struct {
	Dims   int
	Nodes  int
	Leaves int
	Levels int
	Edges  int
	Widest int // largest level
}

// Stats counts nodes, leaves, levels and parent→child links.
func (l *Lattice) Stats() Stats {
	s := Stats{
		Dims:   l.dims,
		Nodes:  len(l.nodes),
		Leaves: len(l.leaves),
		Levels: len(l.levels),
	}
	for _, n := range l.nodes {
		for _, c := range n.Children {
			s.Edges += len(c)
		}
	}
	for _, lvl := range l.levels {
		if len(lvl) > s.Widest {
			s.Widest = len(lvl)
		}
	}
	return s
}

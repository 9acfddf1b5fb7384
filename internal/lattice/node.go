package lattice

import "math"

// NoParent marks a dimension in which a node has no parent.
const NoParent = -1

// Node is one cell of the lattice: a combination of one hierarchy position per
// dimension. Links are IDs into the owning Lattice's arena.
type Node struct {
	ID     int
	Name   string   // labels joined with NameSeparator, unique in the lattice
	Labels []string // hierarchy label per dimension
	Level  int      // BFS depth from the root
	Leaf   bool     // every dimension is at a hierarchy leaf

	// Value is the observed leaf value (log-transformed when configured) or
	// NaN for internal nodes until a summarizer computes it.
	Value float64
	// Observed is the untransformed leaf value; NaN for internal nodes.
	Observed float64
	// LeafIndex is the position of a leaf in Lattice.Leaves, -1 otherwise.
	LeafIndex int

	Parents  []int   // parent ID per dimension, NoParent if absent
	Children [][]int // child IDs per dimension, in hierarchy order
}

func newNode(id int, name string, labels []string, level int) *Node {
	n := &Node{
		ID:        id,
		Name:      name,
		Labels:    labels,
		Level:     level,
		Value:     math.NaN(),
		Observed:  math.NaN(),
		LeafIndex: -1,
		Parents:   make([]int, len(labels)),
		Children:  make([][]int, len(labels)),
	}
	for d := range n.Parents {
		n.Parents[d] = NoParent
	}
	return n
}

// HasChildren reports whether the node can be drilled down along any dimension.
func (n *Node) HasChildren() bool {
	return n.FirstChildDim() >= 0
}

// FirstChildDim returns the lowest dimension with a non-empty child list, or -1.
// Children along any single dimension partition the node's leaves, so this is
// the dimension used to walk down to leaves.
func (n *Node) FirstChildDim() int {
	for d, c := range n.Children {
		if len(c) > 0 {
			return d
		}
	}
	return -1
}

// HasValue reports whether Value has been assigned.
func (n *Node) HasValue() bool {
	return !math.IsNaN(n.Value)
}

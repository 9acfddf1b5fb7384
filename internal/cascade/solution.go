package cascade

import "cmp"

// Solution is a set of representative nodes and the total weight they capture.
// Solutions are immutable once stored in a table; their node slices may be
// shared between table entries.
type Solution struct {
	nodes  []int
	weight float64
}

// Nodes returns a copy of the chosen node IDs.
func (s Solution) Nodes() []int {
	return append([]int(nil), s.nodes...)
}

// Weight returns the total weight of the chosen nodes.
func (s Solution) Weight() float64 { return s.weight }

// Len returns the number of chosen nodes.
func (s Solution) Len() int { return len(s.nodes) }

// Compare orders solutions by weight only.
func (s Solution) Compare(o Solution) int {
	return cmp.Compare(s.weight, o.weight)
}

func singleton(id int, weight float64) Solution {
	return Solution{nodes: []int{id}, weight: weight}
}

// union returns a new solution holding the nodes of a followed by those of b.
func union(a, b Solution) Solution {
	nodes := make([]int, 0, len(a.nodes)+len(b.nodes))
	nodes = append(nodes, a.nodes...)
	nodes = append(nodes, b.nodes...)
	return Solution{nodes: nodes, weight: a.weight + b.weight}
}

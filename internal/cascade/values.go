package cascade

import "math"

// ComputeValues assigns every internal node the sum of its children's values
// and sets weight = |value| everywhere.
//
// Levels are visited deepest first, so children are always finished before
// their parents. Any one dimension's children partition a node's leaves; the
// first dimension with children is used. Values already present (leaves, or
// nodes from an earlier call) are kept.
func (e *Engine) ComputeValues() {
	for lvl := e.lat.LevelCount() - 1; lvl >= 0; lvl-- {
		for _, id := range e.lat.Level(lvl) {
			n := e.lat.Node(id)
			if !n.HasValue() {
				if d := n.FirstChildDim(); d >= 0 {
					sum := 0.0
					for _, c := range n.Children[d] {
						sum += e.lat.Node(c).Value
					}
					n.Value = sum
				}
			}
			e.state[id].weight = math.Abs(n.Value)
		}
	}
	e.stats.ValuesDone = true
}

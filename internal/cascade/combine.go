package cascade

// combine merges the finished tables of one dimension's children into node
// id's table.
//
// S[i][j] is the heaviest selection using exactly j representatives spread
// over the first i children. A leaf child never profits from more than one
// representative, so its budget is capped at 1. For each budget the node then
// chooses between the children-combined selection and itself as a single
// representative covering the whole subtree; the singleton wins ties.
//
// Across dimensions the table keeps, per budget, the heaviest candidate seen
// so far; the earlier dimension is kept on equal weight.
func (e *Engine) combine(id int, children []int) {
	budget := e.opts.Budget

	// prev holds row i-1 of S, cur row i. Column 0 is always the empty set.
	prev := make([]Solution, budget+1)
	cur := make([]Solution, budget+1)
	for i, c := range children {
		ct := e.state[c].table
		leaf := e.lat.Node(c).Leaf
		at := func(q int) Solution {
			if leaf && q > 1 {
				q = 1
			}
			return ct[q]
		}

		for j := 1; j <= budget; j++ {
			if i == 0 {
				cur[j] = at(j)
				continue
			}
			var (
				best  float64
				bestP = -1
			)
			for p := 0; p <= j; p++ {
				if w := prev[p].weight + at(j-p).weight; best < w {
					best, bestP = w, p
				}
			}
			if bestP < 0 {
				cur[j] = Solution{}
				continue
			}
			cur[j] = union(prev[bestP], at(j-bestP))
		}
		prev, cur = cur, prev
	}
	combined := prev

	st := &e.state[id]
	fresh := st.table == nil
	if fresh {
		st.table = make([]Solution, budget+1)
	}
	self := singleton(id, st.weight)
	for k := 1; k <= budget; k++ {
		cand := combined[k]
		if cand.weight <= st.weight {
			cand = self
		}
		if fresh || st.table[k].weight < cand.weight {
			st.table[k] = cand
		}
	}
}

package lattice

import "github.com/RoaringBitmap/roaring"

// buildCoverage computes, bottom-up, the set of leaf indices below every node.
// Children along any one dimension partition a node's leaves, so the first
// dimension with children is enough.
func (l *Lattice) buildCoverage() {
	l.coverage = make([]*roaring.Bitmap, len(l.nodes))
	for lvl := len(l.levels) - 1; lvl >= 0; lvl-- {
		for _, id := range l.levels[lvl] {
			n := l.nodes[id]
			if n.Leaf {
				l.coverage[id] = roaring.BitmapOf(uint32(n.LeafIndex))
				continue
			}
			d := n.FirstChildDim()
			if d < 0 {
				l.coverage[id] = roaring.New()
				continue
			}
			parts := make([]*roaring.Bitmap, 0, len(n.Children[d]))
			for _, c := range n.Children[d] {
				parts = append(parts, l.coverage[c])
			}
			l.coverage[id] = roaring.FastOr(parts...)
		}
	}
}

// Coverage returns the leaf indices (see Node.LeafIndex) below node id.
// The returned bitmap is shared; clone it before mutating.
func (l *Lattice) Coverage(id int) *roaring.Bitmap {
	return l.coverage[id]
}

// LeafDescendants returns the number of leaves below node id (1 for a leaf).
func (l *Lattice) LeafDescendants(id int) int {
	return int(l.coverage[id].GetCardinality())
}

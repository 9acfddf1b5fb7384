package cascade

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTree prints node values as an indented tree, descending along the first
// dimension with children so every leaf appears once. Leaves also show their
// reconstruction when rec is non-nil.
func (e *Engine) WriteTree(w io.Writer, rec *Reconstruction) error {
	bw := bufio.NewWriter(w)
	var walk func(id, depth int)
	walk = func(id, depth int) {
		n := e.lat.Node(id)
		indent := strings.Repeat("  ", depth)
		if n.Leaf && rec != nil {
			fmt.Fprintf(bw, "%s%s: %g | %g\n", indent, n.Name, n.Observed, rec.Values[n.LeafIndex])
		} else {
			fmt.Fprintf(bw, "%s%s: %g\n", indent, n.Name, n.Value)
		}
		if d := n.FirstChildDim(); d >= 0 {
			for _, c := range n.Children[d] {
				walk(c, depth+1)
			}
		}
	}
	walk(e.lat.Root().ID, 0)
	return bw.Flush()
}

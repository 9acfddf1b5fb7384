package lattice

import (
	"fmt"
	"io"
	"strings"
)

// Describe writes a node's per-dimension parents and children.
func (l *Lattice) Describe(w io.Writer, name string) error {
	n, err := l.Lookup(name)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Node: %s (level %d)\n", n.Name, n.Level)
	for d, p := range n.Parents {
		if p == NoParent {
			fmt.Fprintf(&b, "Parent in dim#%d: none\n", d+1)
		} else {
			fmt.Fprintf(&b, "Parent in dim#%d: %s\n", d+1, l.nodes[p].Name)
		}
	}
	for d, children := range n.Children {
		if len(children) == 0 {
			continue
		}
		names := make([]string, len(children))
		for i, c := range children {
			names[i] = l.nodes[c].Name
		}
		fmt.Fprintf(&b, "Children in dim#%d: %s\n", d+1, strings.Join(names, " "))
	}
	if n.Leaf {
		fmt.Fprintf(&b, "Leaf value: %g\n", n.Observed)
	} else {
		fmt.Fprintf(&b, "Leaf descendants: %d\n", l.LeafDescendants(n.ID))
	}

	_, err = io.WriteString(w, b.String())
	return err
}

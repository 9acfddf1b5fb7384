// Package hierarchy parses classification hierarchies (one per cube dimension)
// from "parent;child" edge lists into rooted trees.
package hierarchy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator splits a hierarchy line into its parent and child labels.
const Separator = ";"

var (
	ErrEmptyHierarchy    = errors.New("hierarchy has no edges")
	ErrMultipleRoots     = errors.New("hierarchy has more than one root")
	ErrCycle             = errors.New("hierarchy contains a cycle")
	ErrConflictingParent = errors.New("node has conflicting parents")
)

// FormatError reports a line that does not split into exactly two labels.
type FormatError struct {
	LineNo int
	Line   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d %q was not parsed correctly: want parent%schild", e.LineNo, e.Line, Separator)
}

// Node is one label of a classification hierarchy.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Find returns the node named name in the subtree rooted at n, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Depth is the number of edges between n and its root.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// LeafCount returns the number of leaves in the subtree rooted at n.
func (n *Node) LeafCount() int {
	if n.IsLeaf() {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += c.LeafCount()
	}
	return count
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	count := 1
	for _, c := range n.Children {
		count += c.Size()
	}
	return count
}

// Height is the length of the longest root-to-leaf path below n.
func (n *Node) Height() int {
	h := 0
	for _, c := range n.Children {
		if ch := c.Height() + 1; ch > h {
			h = ch
		}
	}
	return h
}

// Walk visits the subtree rooted at n in pre-order.
// Returning false from fn prunes the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Parse reads "parent;child" lines and returns the root of the hierarchy.
//
// Blank lines and repeated lines are skipped. Lines may appear in any order;
// children keep the order in which their edges first appear.
func Parse(r io.Reader) (*Node, error) {
	nodes := make(map[string]*Node)
	var order []*Node
	seen := make(map[string]bool)

	get := func(name string) *Node {
		if n, ok := nodes[name]; ok {
			return n
		}
		n := &Node{Name: name}
		nodes[name] = n
		order = append(order, n)
		return n
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true

		parts := strings.Split(line, Separator)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, &FormatError{LineNo: lineNo, Line: line}
		}

		parent, child := get(parts[0]), get(parts[1])
		if child.Parent != nil && child.Parent != parent {
			return nil, fmt.Errorf("%w: %q under %q and %q", ErrConflictingParent, child.Name, child.Parent.Name, parent.Name)
		}
		if child.Parent == parent {
			continue
		}
		child.Parent = parent
		parent.Children = append(parent.Children, child)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	if len(order) == 0 {
		return nil, ErrEmptyHierarchy
	}

	var root *Node
	for _, n := range order {
		if n.Parent != nil {
			continue
		}
		if root != nil {
			return nil, fmt.Errorf("%w: %q and %q", ErrMultipleRoots, root.Name, n.Name)
		}
		root = n
	}
	if root == nil || root.Size() != len(order) {
		return nil, ErrCycle
	}
	return root, nil
}

// ParseString is Parse over an in-memory edge list.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

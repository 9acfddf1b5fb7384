package lattice

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/agentic-research/cascade/internal/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTree(t *testing.T, edges string) *hierarchy.Node {
	t.Helper()
	root, err := hierarchy.ParseString(edges)
	require.NoError(t, err)
	return root
}

// twoByTwo is the A × B cube with leaves A1,A2 and B1,B2.
func twoByTwo(t *testing.T) ([]*hierarchy.Node, map[string]float64) {
	t.Helper()
	trees := []*hierarchy.Node{
		mustTree(t, "A;A1\nA;A2\n"),
		mustTree(t, "B;B1\nB;B2\n"),
	}
	values := map[string]float64{
		"A1,B1": 10, "A1,B2": 20, "A2,B1": 5, "A2,B2": 15,
	}
	return trees, values
}

func childNames(l *Lattice, n *Node, dim int) []string {
	var out []string
	for _, id := range n.Children[dim] {
		out = append(out, l.Node(id).Name)
	}
	return out
}

func TestBuild_TwoByTwo(t *testing.T) {
	trees, values := twoByTwo(t)
	l, err := Build(trees, values, Config{})
	require.NoError(t, err)

	// 3 positions per dimension → 9 cells.
	assert.Equal(t, 9, l.Len())
	assert.Equal(t, 4, l.LeafCount())
	assert.Equal(t, 2, l.Dims())
	assert.Equal(t, 3, l.LevelCount())

	root := l.Root()
	assert.Equal(t, "A,B", root.Name)
	assert.False(t, root.Leaf)
	assert.True(t, math.IsNaN(root.Value))
	assert.Equal(t, []string{"A1,B", "A2,B"}, childNames(l, root, 0))
	assert.Equal(t, []string{"A,B1", "A,B2"}, childNames(l, root, 1))
	assert.Equal(t, []int{NoParent, NoParent}, root.Parents)

	// A1,B1 is reached through both A1,B and A,B1 but exists once.
	cell, err := l.Lookup("A1,B1")
	require.NoError(t, err)
	assert.True(t, cell.Leaf)
	assert.Equal(t, 10.0, cell.Value)
	assert.Equal(t, 2, cell.Level)
	a1b, _ := l.Lookup("A1,B")
	ab1, _ := l.Lookup("A,B1")
	assert.Equal(t, []int{ab1.ID, a1b.ID}, cell.Parents)
	assert.False(t, cell.HasChildren())

	// A1,B can only drill down along the second dimension.
	assert.Equal(t, 1, a1b.FirstChildDim())
	assert.Empty(t, a1b.Children[0])
	assert.Equal(t, []string{"A1,B1", "A1,B2"}, childNames(l, a1b, 1))

	assert.Len(t, l.Level(0), 1)
	assert.Len(t, l.Level(1), 4)
	assert.Len(t, l.Level(2), 4)

	stats := l.Stats()
	assert.Equal(t, Stats{Dims: 2, Nodes: 9, Leaves: 4, Levels: 3, Edges: 12, Widest: 4}, stats)
}

func TestBuild_UnevenDepths(t *testing.T) {
	trees := []*hierarchy.Node{
		mustTree(t, "All;Sony\nAll;Wii\nSony;PS3\nSony;PS4\n"),
		mustTree(t, "G;Action\nG;Sports\n"),
	}
	values := map[string]float64{
		"PS3,Action": 1, "PS3,Sports": 2,
		"PS4,Action": 3, "PS4,Sports": 4,
		"Wii,Action": 5, "Wii,Sports": 6,
	}
	l, err := Build(trees, values, Config{})
	require.NoError(t, err)

	assert.Equal(t, 6, l.LeafCount())
	// 5 platform positions × 3 genre positions.
	assert.Equal(t, 15, l.Len())

	// Levels follow the sum of hierarchy depths.
	for _, n := range l.Nodes() {
		for d, children := range n.Children {
			for _, c := range children {
				assert.Equal(t, n.Level+1, l.Node(c).Level)
				assert.Equal(t, n.ID, l.Node(c).Parents[d])
			}
		}
	}
	ps4, err := l.Lookup("PS4,Sports")
	require.NoError(t, err)
	assert.Equal(t, 3, ps4.Level)

	wii, err := l.Lookup("Wii,G")
	require.NoError(t, err)
	assert.Equal(t, 2, l.LeafDescendants(wii.ID))
	assert.Equal(t, 6, l.LeafDescendants(l.Root().ID))
}

func TestBuild_SingleDimension(t *testing.T) {
	l, err := Build([]*hierarchy.Node{mustTree(t, "R;x\nR;y\n")}, map[string]float64{"x": 3, "y": 5}, Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "R", l.Root().Name)
}

func TestBuild_MissingValue(t *testing.T) {
	trees, values := twoByTwo(t)
	delete(values, "A2,B1")

	_, err := Build(trees, values, Config{})
	var mv *MissingValueError
	require.True(t, errors.As(err, &mv))
	assert.Equal(t, "A2,B1", mv.Name)
}

func TestBuild_ZeroIsAValue(t *testing.T) {
	trees, values := twoByTwo(t)
	values["A2,B1"] = 0

	l, err := Build(trees, values, Config{})
	require.NoError(t, err)
	n, _ := l.Lookup("A2,B1")
	assert.True(t, n.Leaf)
	assert.Equal(t, 0.0, n.Value)
}

func TestBuild_LogTransform(t *testing.T) {
	trees, values := twoByTwo(t)
	l, err := Build(trees, values, Config{TakeLog: true})
	require.NoError(t, err)

	n, _ := l.Lookup("A1,B2")
	assert.InDelta(t, math.Log(20), n.Value, 1e-12)
	assert.Equal(t, 20.0, n.Observed)

	values["A1,B1"] = 0
	_, err = Build(trees, values, Config{TakeLog: true})
	var iv *InvalidValueError
	require.True(t, errors.As(err, &iv))
	assert.Equal(t, "A1,B1", iv.Name)
}

func TestBuild_InputErrors(t *testing.T) {
	_, err := Build(nil, nil, Config{})
	assert.ErrorIs(t, err, ErrNoHierarchies)

	_, err = Build([]*hierarchy.Node{mustTree(t, "R;a,b\n")}, map[string]float64{"a,b": 1}, Config{})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	trees, values := twoByTwo(t)
	l, err := Build(trees, values, Config{})
	require.NoError(t, err)
	_, err = l.Lookup("A3,B1")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCoverage(t *testing.T) {
	trees, values := twoByTwo(t)
	l, err := Build(trees, values, Config{})
	require.NoError(t, err)

	root := l.Root()
	assert.Equal(t, uint64(4), l.Coverage(root.ID).GetCardinality())

	a1b, _ := l.Lookup("A1,B")
	ab1, _ := l.Lookup("A,B1")
	cell, _ := l.Lookup("A1,B1")

	// Both parents of A1,B1 cover it; their overlap is exactly that cell.
	both := l.Coverage(a1b.ID).Clone()
	both.And(l.Coverage(ab1.ID))
	assert.Equal(t, []uint32{uint32(cell.LeafIndex)}, both.ToArray())
	assert.Equal(t, 1, l.LeafDescendants(cell.ID))
}

func TestDescribe(t *testing.T) {
	trees, values := twoByTwo(t)
	l, err := Build(trees, values, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, l.Describe(&buf, "A1,B"))
	out := buf.String()
	assert.Contains(t, out, "Node: A1,B (level 1)")
	assert.Contains(t, out, "Parent in dim#1: A,B")
	assert.Contains(t, out, "Parent in dim#2: none")
	assert.Contains(t, out, "Children in dim#2: A1,B1 A1,B2")
	assert.Contains(t, out, "Leaf descendants: 2")

	buf.Reset()
	require.NoError(t, l.Describe(&buf, "A2,B2"))
	assert.Contains(t, buf.String(), "Leaf value: 15")

	assert.ErrorIs(t, l.Describe(&buf, "nope"), ErrNodeNotFound)
}

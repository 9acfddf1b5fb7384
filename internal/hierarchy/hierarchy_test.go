package hierarchy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const platforms = `All;Sony
All;Nintendo
Sony;PS3
Sony;PS4
Nintendo;Wii
`

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestParse_Tree(t *testing.T) {
	root, err := ParseString(platforms)
	require.NoError(t, err)

	assert.Equal(t, "All", root.Name)
	assert.Nil(t, root.Parent)
	assert.Equal(t, []string{"Sony", "Nintendo"}, names(root.Children))

	sony := root.Find("Sony")
	require.NotNil(t, sony)
	assert.Equal(t, []string{"PS3", "PS4"}, names(sony.Children))
	assert.Same(t, root, sony.Parent)

	assert.Equal(t, 3, root.LeafCount())
	assert.Equal(t, 6, root.Size())
	assert.Equal(t, 2, root.Height())
	assert.Equal(t, 2, root.Find("Wii").Depth())
	assert.True(t, root.Find("PS3").IsLeaf())
	assert.Nil(t, root.Find("Xbox"))
}

func TestParse_DuplicateLinesIgnored(t *testing.T) {
	root, err := ParseString("A;B\nA;B\nA;C\n\nA;B\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, names(root.Children))
}

func TestParse_OutOfOrderLines(t *testing.T) {
	// Grandchild edge listed before the edge that attaches its parent.
	root, err := ParseString("B;D\nA;B\nA;C\n")
	require.NoError(t, err)
	assert.Equal(t, "A", root.Name)
	assert.Equal(t, []string{"D"}, names(root.Find("B").Children))
}

func TestParse_WindowsLineEndings(t *testing.T) {
	root, err := ParseString("A;B\r\nA;C\r\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, names(root.Children))
}

func TestParse_TrimsLabels(t *testing.T) {
	root, err := ParseString("R; x\n R ;y z\nx ; w\n")
	require.NoError(t, err)
	assert.Equal(t, "R", root.Name)
	assert.Equal(t, []string{"x", "y z"}, names(root.Children))
	assert.Equal(t, []string{"w"}, names(root.Find("x").Children))
}

func TestParse_FormatError(t *testing.T) {
	for _, line := range []string{"A", "A;B;C", ";B", "A;"} {
		_, err := ParseString("X;Y\n" + line + "\n")
		var fe *FormatError
		require.True(t, errors.As(err, &fe), "line %q: got %v", line, err)
		assert.Equal(t, 2, fe.LineNo)
		assert.Equal(t, line, fe.Line)
		assert.Contains(t, fe.Error(), line)
	}
}

func TestParse_ShapeErrors(t *testing.T) {
	_, err := ParseString("")
	assert.ErrorIs(t, err, ErrEmptyHierarchy)

	_, err = ParseString("A;B\nC;D\n")
	assert.ErrorIs(t, err, ErrMultipleRoots)

	_, err = ParseString("A;B\nC;B\n")
	assert.ErrorIs(t, err, ErrConflictingParent)

	_, err = ParseString("A;B\nB;A\n")
	assert.ErrorIs(t, err, ErrCycle)

	_, err = ParseString("R;X\nA;B\nB;A\n")
	assert.ErrorIs(t, err, ErrCycle)
}

func TestWalk_PrunesChildren(t *testing.T) {
	root, err := ParseString(platforms)
	require.NoError(t, err)

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Name)
		return n.Name != "Sony"
	})
	assert.Equal(t, "All,Sony,Nintendo,Wii", strings.Join(visited, ","))
}

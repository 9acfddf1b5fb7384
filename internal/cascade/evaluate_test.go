package cascade

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMAPE(t *testing.T) {
	assert.Equal(t, 0.0, SMAPE(0, 0))
	assert.Equal(t, 0.0, SMAPE(7, 7))
	assert.Equal(t, 1.0, SMAPE(5, 0))
	assert.Equal(t, 1.0, SMAPE(-5, 5))
	assert.InDelta(t, 0.2, SMAPE(10, 15), 1e-12)
	assert.Equal(t, SMAPE(3, 9), SMAPE(9, 3))
}

func TestEvaluate_Stream(t *testing.T) {
	l := build(t, cubeEdges, map[string]float64{"A1,B1": 10, "A1,B2": 20, "A2,B1": -5, "A2,B2": -15}, false)
	e, _ := run(t, l, 2, ModeWholeTree)
	rec, err := e.Reconstruct()
	require.NoError(t, err)

	var buf bytes.Buffer
	stats, err := Evaluate(l, rec, &buf)
	require.NoError(t, err)

	want := []float64{SMAPE(10, 15), SMAPE(20, 15), SMAPE(-5, -10), SMAPE(-15, -10)}
	var sb strings.Builder
	sum := 0.0
	for _, v := range want {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64) + ",")
		sum += v
	}
	assert.Equal(t, sb.String(), buf.String())
	assert.Equal(t, 4, stats.Leaves)
	assert.InDelta(t, sum, stats.Sum, 1e-12)
	assert.InDelta(t, 1.0/3, stats.Worst, 1e-12)
	assert.InDelta(t, sum/4, stats.Mean(), 1e-12)
}

func TestEvaluate_Uncovered(t *testing.T) {
	l := build(t, cubeEdges, map[string]float64{"A1,B1": 10, "A1,B2": 20, "A2,B1": -5, "A2,B2": -15}, false)
	e, _ := run(t, l, 1, ModeWholeTree)
	rec, err := e.Reconstruct()
	require.NoError(t, err)

	stats, err := Evaluate(l, rec, nil)
	require.NoError(t, err)
	// The uncovered half reconstructs as zero, the worst possible error.
	assert.Equal(t, 1.0, stats.Worst)
	assert.Equal(t, ErrorStats{}.Mean(), 0.0)
}

func TestWriteTree(t *testing.T) {
	l := build(t, []string{"R;x\nR;y\n"}, map[string]float64{"x": 3, "y": 5}, false)
	e, _ := run(t, l, 1, ModeWholeTree)
	rec, err := e.Reconstruct()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.WriteTree(&buf, rec))
	assert.Equal(t, "R: 8\n  x: 3 | 4\n  y: 5 | 4\n", buf.String())

	buf.Reset()
	require.NoError(t, e.WriteTree(&buf, nil))
	assert.Equal(t, "R: 8\n  x: 3\n  y: 5\n", buf.String())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "whole-tree", ModeWholeTree.String())
	assert.Equal(t, "level-by-level", ModeLevelByLevel.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
}

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/agentic-research/cascade/internal/config"
	"github.com/agentic-research/cascade/internal/run"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenDimension(t *testing.T) {
	d := genDimension(1, 2, 2)
	assert.Len(t, d.edges, 6)
	assert.Equal(t, []string{"D1.1.1", "D1.1.2", "D1.2.1", "D1.2.2"}, d.leaves)
	assert.Equal(t, [2]string{"D1", "D1.1"}, d.edges[0])
}

func TestGenerate_RoundTrip(t *testing.T) {
	fsys := memfs.New()
	cells, err := Generate(fsys, "cube", Options{Dims: 3, Fanout: 2, Depth: 2, Seed: 7, Budget: 5})
	require.NoError(t, err)
	assert.Equal(t, 64, cells)

	values, err := util.ReadFile(fsys, "cube/values.txt")
	require.NoError(t, err)
	assert.Equal(t, 64, strings.Count(string(values), "\n"))

	cfg, err := config.Load(fsys, "cube/run.yaml")
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, []string{"cube/dim1.txt", "cube/dim2.txt", "cube/dim3.txt"}, cfg.Hierarchies)

	res, err := run.New(fsys, nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 64, res.Report.Leaves)
	assert.Equal(t, 7*7*7, res.Report.LatticeNodes)
	assert.LessOrEqual(t, res.Report.Size, 5)
}

func TestGenerate_PositiveForLog(t *testing.T) {
	fsys := memfs.New()
	_, err := Generate(fsys, "pos", Options{Dims: 2, Fanout: 3, Depth: 1, Positive: true, Seed: 3, Budget: 2})
	require.NoError(t, err)

	cfg, err := config.Load(fsys, "pos/run.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.TakeLog)
	res, err := run.New(fsys, nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Report.Leaves)
}

func TestGenerate_BadOptions(t *testing.T) {
	_, err := Generate(memfs.New(), "x", Options{Dims: 0, Fanout: 1, Depth: 1})
	assert.Error(t, err)
}

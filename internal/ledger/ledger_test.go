package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentic-research/cascade/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleReport(budget int) api.Report {
	return api.Report{
		Budget:  budget,
		Mode:    "whole-tree",
		TakeLog: true,
		Size:    2,
		Weight:  50,
		Representatives: []api.Representative{
			{Name: "A1,B", Value: 30, Leaves: 2, Share: 15},
			{Name: "A2,B", Value: -20, Leaves: 2, Share: -10},
		},
		LatticeNodes: 9,
		Leaves:       4,
		AverageError: 0.21,
		WorstError:   0.33,
		ElapsedMS:    3,
	}
}

func TestLedger_RecordAndGet(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()
	cfg := api.RunConfig{Hierarchies: []string{"a.txt", "b.txt"}, Values: "v.txt"}

	id, err := l.Record(ctx, cfg, sampleReport(2))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "a.txt;b.txt", run.Hierarchies)
	assert.Equal(t, "v.txt", run.Values)

	want := sampleReport(2)
	want.RunID = id
	assert.Equal(t, want, run.Report)
}

func TestLedger_ExplicitIDAndDuplicates(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()

	rep := sampleReport(1)
	rep.RunID = "fixed"
	id, err := l.Record(ctx, api.RunConfig{}, rep)
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	// The whole run is rolled back on conflict.
	_, err = l.Record(ctx, api.RunConfig{}, rep)
	assert.Error(t, err)
	runs, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestLedger_ListNewestFirst(t *testing.T) {
	l := openTest(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for k := 1; k <= 3; k++ {
		_, err := l.Record(ctx, api.RunConfig{}, sampleReport(k))
		require.NoError(t, err)
	}

	runs, err := l.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 3, runs[0].Report.Budget)
	assert.Equal(t, 2, runs[1].Report.Budget)
	assert.True(t, runs[0].Created.Equal(base.Add(3*time.Minute)))
	assert.Nil(t, runs[0].Report.Representatives)

	reps, err := l.Representatives(ctx, runs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1,B", "A2,B"}, []string{reps[0].Name, reps[1].Name})
}

func TestLedger_GetMissing(t *testing.T) {
	l := openTest(t)
	_, err := l.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLedger_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	l, err := Open(path)
	require.NoError(t, err)
	_, err = l.Record(context.Background(), api.RunConfig{}, sampleReport(4))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	runs, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

// Package cascade implements the Cascading Analysts summary: for every lattice
// node and every budget k in 0..K it computes the heaviest set of at most k
// representatives, where a representative stands in for its whole subtree.
//
// Solutions are built bottom-up. A node combines the per-budget tables of its
// children with a knapsack-style DP along each dimension, then keeps itself as
// a single representative whenever drilling down does not capture more weight.
//
// See Cascading Analysts, SIGMOD 2018 (https://dl.acm.org/citation.cfm?id=3183713.3183745).
package cascade

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/agentic-research/cascade/internal/lattice"
)

var (
	ErrInvalidBudget = errors.New("budget must be at least 1")
	ErrNotSummarized = errors.New("lattice has not been summarized")
	ErrReleased      = errors.New("solution table was released")
)

// Mode selects how the combine pass is scheduled.
type Mode int

const (
	// ModeWholeTree recurses post-order from the root and keeps every table.
	ModeWholeTree Mode = iota
	// ModeLevelByLevel combines one lattice level at a time, deepest first,
	// and releases a level's tables once the level above has consumed them.
	ModeLevelByLevel
)

func (m Mode) String() string {
	switch m {
	case ModeWholeTree:
		return "whole-tree"
	case ModeLevelByLevel:
		return "level-by-level"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Options configures one engine run. It is copied at construction.
type Options struct {
	Budget int // K, the maximum number of representatives
	Mode   Mode
	Logger *slog.Logger // nil discards
}

// Summarizer is a summarization strategy over a built lattice.
type Summarizer interface {
	// ComputeValues fills in internal node values and weights.
	ComputeValues()
	// Summarize runs the strategy and returns the final representative set.
	Summarize() (*Summary, error)
	// Reconstruct approximates every leaf from the final representatives.
	Reconstruct() (*Reconstruction, error)
}

var _ Summarizer = (*Engine)(nil)

// Stats describes the last combine pass.
type Stats struct {
	Mode       Mode
	Combined   int // nodes whose tables were computed
	Released   int // tables dropped in level-by-level mode
	PeakLive   int // largest number of tables held at once
	ValuesDone bool
	Elapsed    time.Duration
}

type nodeState struct {
	weight float64
	table  []Solution // budgets 0..K; nil until combined and after release
	done   bool
}

// Engine holds the per-node budget tables for one lattice.
type Engine struct {
	lat   *lattice.Lattice
	opts  Options
	log   *slog.Logger
	state []nodeState
	live  int
	stats Stats
	final *Summary
}

// New prepares an engine over l. The engine writes computed values into l's
// internal nodes.
func New(l *lattice.Lattice, opts Options) (*Engine, error) {
	if opts.Budget < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, opts.Budget)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		lat:   l,
		opts:  opts,
		log:   log,
		state: make([]nodeState, l.Len()),
		stats: Stats{Mode: opts.Mode},
	}, nil
}

// Lattice returns the lattice the engine summarizes.
func (e *Engine) Lattice() *lattice.Lattice { return e.lat }

// Budget returns K.
func (e *Engine) Budget() int { return e.opts.Budget }

// Stats returns counters from the last combine pass.
func (e *Engine) Stats() Stats { return e.stats }

// Weight returns |value| of node id once values are computed.
func (e *Engine) Weight(id int) float64 { return e.state[id].weight }

// Table returns node id's solutions for budgets 0..K.
func (e *Engine) Table(id int) ([]Solution, error) {
	st := &e.state[id]
	if st.table == nil {
		if st.done {
			return nil, fmt.Errorf("%s: %w", e.lat.Node(id).Name, ErrReleased)
		}
		return nil, fmt.Errorf("%s: %w", e.lat.Node(id).Name, ErrNotSummarized)
	}
	return st.table, nil
}

// Summarize computes values if needed, runs the combine pass in the configured
// mode, and extracts the root solution at budget K. Tables from a previous
// pass are discarded first.
func (e *Engine) Summarize() (*Summary, error) {
	if !e.stats.ValuesDone {
		e.ComputeValues()
	}

	for i := range e.state {
		e.state[i].table = nil
		e.state[i].done = false
	}
	e.live = 0
	e.stats = Stats{Mode: e.opts.Mode, ValuesDone: true}

	start := time.Now()
	switch e.opts.Mode {
	case ModeWholeTree:
		e.summarizeNode(e.lat.Root().ID)
	case ModeLevelByLevel:
		e.summarizeLevels()
	default:
		return nil, fmt.Errorf("unknown mode %s", e.opts.Mode)
	}
	e.stats.Elapsed = time.Since(start)

	s, err := e.extract()
	if err != nil {
		return nil, err
	}
	e.final = s
	e.log.Debug("lattice summarized",
		"mode", e.opts.Mode.String(),
		"budget", e.opts.Budget,
		"combined", e.stats.Combined,
		"peak_tables", e.stats.PeakLive,
		"representatives", len(s.Representatives),
		"weight", s.Weight,
	)
	return s, nil
}

// summarizeNode is the whole-tree schedule: every child, in every dimension,
// is finished before the node combines that dimension.
func (e *Engine) summarizeNode(id int) {
	if e.state[id].done {
		return
	}
	n := e.lat.Node(id)
	for _, children := range n.Children {
		for _, c := range children {
			e.summarizeNode(c)
		}
	}
	e.combineNode(id)
}

// summarizeLevels is the memory-bounded schedule. Only two frontiers hold
// tables: the level being combined and the finished level below it. The
// finished frontier is dropped as soon as the current one is complete, since
// every parent of its nodes lives in the current level.
func (e *Engine) summarizeLevels() {
	var finished []int
	for lvl := e.lat.LevelCount() - 1; lvl >= 0; lvl-- {
		current := e.lat.Level(lvl)
		for _, id := range current {
			e.combineNode(id)
		}
		e.release(finished)
		e.log.Debug("level combined", "level", lvl, "nodes", len(current), "live_tables", e.live)
		finished = current
	}
}

func (e *Engine) release(ids []int) {
	for _, id := range ids {
		if e.state[id].table != nil {
			e.state[id].table = nil
			e.live--
			e.stats.Released++
		}
	}
}

// combineNode fills node id's table from its children's finished tables.
func (e *Engine) combineNode(id int) {
	n := e.lat.Node(id)
	st := &e.state[id]
	if n.Leaf {
		st.table = e.leafTable(id)
	} else {
		for _, children := range n.Children {
			if len(children) > 0 {
				e.combine(id, children)
			}
		}
	}
	if st.table == nil {
		// Unreachable for a built lattice: internal nodes have children.
		st.table = make([]Solution, e.opts.Budget+1)
	}
	st.done = true
	e.live++
	if e.live > e.stats.PeakLive {
		e.stats.PeakLive = e.live
	}
	e.stats.Combined++
}

// leafTable: a leaf can only ever be its own representative, so every
// positive budget yields {leaf}.
func (e *Engine) leafTable(id int) []Solution {
	table := make([]Solution, e.opts.Budget+1)
	s := singleton(id, e.state[id].weight)
	for k := 1; k < len(table); k++ {
		table[k] = s
	}
	return table
}

func (e *Engine) extract() (*Summary, error) {
	root := e.lat.Root()
	table, err := e.Table(root.ID)
	if err != nil {
		return nil, err
	}
	best := table[e.opts.Budget]

	s := &Summary{
		Budget: e.opts.Budget,
		Weight: best.weight,
	}
	for _, id := range best.nodes {
		n := e.lat.Node(id)
		leaves := e.lat.LeafDescendants(id)
		share := n.Value / float64(leaves)
		if e.lat.Config().TakeLog {
			share = math.Exp(share)
		}
		s.Representatives = append(s.Representatives, Representative{
			ID:     id,
			Name:   n.Name,
			Value:  n.Value,
			Weight: e.state[id].weight,
			Leaves: leaves,
			Share:  share,
		})
	}
	return s, nil
}

// Package run drives one end-to-end summarization: load inputs, build the
// lattice, summarize at budget K, reconstruct, evaluate, and report.
package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agentic-research/cascade/api"
	"github.com/agentic-research/cascade/internal/cascade"
	"github.com/agentic-research/cascade/internal/ingest"
	"github.com/agentic-research/cascade/internal/lattice"
	"github.com/agentic-research/cascade/internal/ledger"
	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// Result holds everything a run produced, for callers that want to inspect
// more than the report.
type Result struct {
	Report         api.Report
	Lattice        *lattice.Lattice
	Engine         *cascade.Engine
	Reconstruction *cascade.Reconstruction
	Errors         cascade.ErrorStats
}

// Runner executes runs against one filesystem.
type Runner struct {
	FS  billy.Filesystem
	Log *slog.Logger
}

func New(fsys billy.Filesystem, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{FS: fsys, Log: log}
}

// Build loads cfg's inputs and builds the lattice without summarizing it.
func (r *Runner) Build(ctx context.Context, cfg api.RunConfig) (*lattice.Lattice, error) {
	loader := ingest.NewLoader(r.FS, r.Log)
	trees, err := loader.Hierarchies(ctx, cfg.Hierarchies)
	if err != nil {
		return nil, err
	}
	values, err := loader.Values(ctx, cfg)
	if err != nil {
		return nil, err
	}
	l, err := lattice.Build(trees, values, lattice.Config{TakeLog: cfg.TakeLog})
	if err != nil {
		return nil, fmt.Errorf("build lattice: %w", err)
	}
	st := l.Stats()
	r.Log.Info("lattice built", "dims", st.Dims, "nodes", st.Nodes, "leaves", st.Leaves, "levels", st.Levels)
	return l, nil
}

// Run executes cfg. The config must already be validated.
func (r *Runner) Run(ctx context.Context, cfg api.RunConfig) (*Result, error) {
	l, err := r.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mode := cascade.ModeWholeTree
	if cfg.LevelByLevel {
		mode = cascade.ModeLevelByLevel
	}
	e, err := cascade.New(l, cascade.Options{Budget: cfg.Budget, Mode: mode, Logger: r.Log})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	e.ComputeValues()
	summary, err := e.Summarize()
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	elapsed := time.Since(start)

	rec, err := e.Reconstruct()
	if err != nil {
		return nil, err
	}
	stats, err := r.evaluate(l, rec, cfg.ErrorsOut)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Report:         newReport(cfg, l, summary, stats, mode, elapsed),
		Lattice:        l,
		Engine:         e,
		Reconstruction: rec,
		Errors:         stats,
	}
	r.Log.Info("run finished",
		"run_id", res.Report.RunID,
		"size", res.Report.Size,
		"average_error", res.Report.AverageError,
		"worst_error", res.Report.WorstError,
		"elapsed", elapsed,
	)

	if cfg.ReportOut != "" {
		if err := r.writeFile(cfg.ReportOut, func(w io.Writer) error {
			_, err := io.WriteString(w, ReportJSON(res.Report)+"\n")
			return err
		}); err != nil {
			return nil, err
		}
	}
	if cfg.Ledger != "" {
		if err := record(ctx, cfg, res.Report); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Runner) evaluate(l *lattice.Lattice, rec *cascade.Reconstruction, path string) (cascade.ErrorStats, error) {
	if path == "" {
		return cascade.Evaluate(l, rec, nil)
	}
	var stats cascade.ErrorStats
	err := r.writeFile(path, func(w io.Writer) error {
		var err error
		stats, err = cascade.Evaluate(l, rec, w)
		return err
	})
	return stats, err
}

func (r *Runner) writeFile(path string, fn func(io.Writer) error) error {
	f, err := r.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func record(ctx context.Context, cfg api.RunConfig, rep api.Report) error {
	lg, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Close() }()
	_, err = lg.Record(ctx, cfg, rep)
	return err
}

func newReport(cfg api.RunConfig, l *lattice.Lattice, s *cascade.Summary, stats cascade.ErrorStats, mode cascade.Mode, elapsed time.Duration) api.Report {
	rep := api.Report{
		RunID:        uuid.NewString(),
		Budget:       cfg.Budget,
		Mode:         mode.String(),
		TakeLog:      cfg.TakeLog,
		Size:         len(s.Representatives),
		Weight:       s.Weight,
		LatticeNodes: l.Len(),
		Leaves:       l.LeafCount(),
		AverageError: stats.Mean(),
		WorstError:   stats.Worst,
		ElapsedMS:    elapsed.Milliseconds(),
	}
	for _, r := range s.Representatives {
		rep.Representatives = append(rep.Representatives, api.Representative{
			Name:   r.Name,
			Value:  r.Value,
			Leaves: r.Leaves,
			Share:  r.Share,
		})
	}
	return rep
}

// ReportJSON renders rep as indented JSON with sorted keys.
func ReportJSON(rep api.Report) string {
	reps := make([]any, 0, len(rep.Representatives))
	for _, r := range rep.Representatives {
		reps = append(reps, map[string]any{
			"name":   r.Name,
			"value":  r.Value,
			"leaves": r.Leaves,
			"share":  r.Share,
		})
	}
	return oj.JSON(map[string]any{
		"run_id":          rep.RunID,
		"budget":          rep.Budget,
		"mode":            rep.Mode,
		"take_log":        rep.TakeLog,
		"size":            rep.Size,
		"weight":          rep.Weight,
		"representatives": reps,
		"lattice_nodes":   rep.LatticeNodes,
		"leaves":          rep.Leaves,
		"average_error":   rep.AverageError,
		"worst_error":     rep.WorstError,
		"elapsed_ms":      rep.ElapsedMS,
	}, &ojg.Options{Indent: 2, Sort: true})
}

// WriteText prints size, errors and execution time, one per line.
func WriteText(w io.Writer, rep api.Report) error {
	_, err := fmt.Fprintf(w, "CA size = %d\nCA average error = %g\nCA worst error = %g\nCA execution time: %d\n",
		rep.Size, rep.AverageError, rep.WorstError, rep.ElapsedMS)
	return err
}

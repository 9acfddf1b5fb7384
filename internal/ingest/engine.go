// Package ingest loads the inputs of a summarization run: one hierarchy file
// per dimension and a leaf value source.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/agentic-research/cascade/api"
	"github.com/agentic-research/cascade/internal/hierarchy"
	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"
)

// Loader reads run inputs from a filesystem.
type Loader struct {
	FS  billy.Filesystem
	Log *slog.Logger
}

func NewLoader(fsys billy.Filesystem, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{FS: fsys, Log: log}
}

// Hierarchies parses the hierarchy files concurrently. The result keeps the
// order of paths, which is the dimension order.
func (l *Loader) Hierarchies(ctx context.Context, paths []string) ([]*hierarchy.Node, error) {
	trees := make([]*hierarchy.Node, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			root, err := l.hierarchy(p)
			if err != nil {
				return err
			}
			trees[i] = root
			l.Log.Debug("hierarchy loaded", "dim", i, "path", p, "root", root.Name,
				"nodes", root.Size(), "leaves", root.LeafCount(), "height", root.Height())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

func (l *Loader) hierarchy(path string) (*hierarchy.Node, error) {
	f, err := l.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hierarchy %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // read-only

	root, err := hierarchy.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy %s: %w", path, err)
	}
	return root, nil
}

// Source picks the value source for cfg.Values by extension: .json is JSON,
// .db and .sqlite are SQLite, anything else is "name;value" text.
func (l *Loader) Source(cfg api.RunConfig) ValueSource {
	switch strings.ToLower(filepath.Ext(cfg.Values)) {
	case ".json":
		return &JSONSource{FS: l.FS, Path: cfg.Values, Selector: cfg.ValuesSelector}
	case ".db", ".sqlite":
		return &SQLiteSource{Path: cfg.Values, Table: cfg.ValuesTable}
	default:
		return &TextSource{FS: l.FS, Path: cfg.Values}
	}
}

// Values loads the leaf values for cfg, rounding them up to one decimal
// place unless cfg.KeepPrecision is set.
func (l *Loader) Values(ctx context.Context, cfg api.RunConfig) (map[string]float64, error) {
	src := l.Source(cfg)
	values, err := src.Values(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.KeepPrecision {
		for k, v := range values {
			values[k] = Round(v, 1)
		}
	}
	l.Log.Debug("values loaded", "path", cfg.Values, "source", fmt.Sprintf("%T", src), "cells", len(values))
	return values, nil
}

// Round rounds v up (towards +Inf) to the given number of decimal places.
func Round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Ceil(v*scale) / scale
}

package main

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"path"
	"strconv"
	"strings"

	"github.com/agentic-research/cascade/api"
	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// Options shape a synthetic cube.
type Options struct {
	Dims     int
	Fanout   int
	Depth    int
	Positive bool // all values > 0, usable with the log transform
	Seed     int64
	Budget   int
}

// dimension is one generated hierarchy: its parent;child edges and leaves.
type dimension struct {
	edges  [][2]string
	leaves []string
}

func genDimension(d, fanout, depth int) dimension {
	var dim dimension
	frontier := []string{fmt.Sprintf("D%d", d)}
	for lvl := 1; lvl <= depth; lvl++ {
		var next []string
		for _, parent := range frontier {
			for i := 1; i <= fanout; i++ {
				child := parent + "." + strconv.Itoa(i)
				dim.edges = append(dim.edges, [2]string{parent, child})
				next = append(next, child)
			}
		}
		frontier = next
	}
	dim.leaves = frontier
	return dim
}

// Generate writes dim<N>.txt hierarchies, values.txt and run.yaml into dir.
// It returns the number of leaf cells written.
func Generate(fsys billy.Filesystem, dir string, opts Options) (int, error) {
	if opts.Dims < 1 || opts.Fanout < 1 || opts.Depth < 1 {
		return 0, fmt.Errorf("dims, fanout and depth must be positive")
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	dims := make([]dimension, opts.Dims)
	cfg := api.RunConfig{
		Values:  path.Join(dir, "values.txt"),
		Budget:  opts.Budget,
		TakeLog: opts.Positive,
	}
	for d := range dims {
		dims[d] = genDimension(d+1, opts.Fanout, opts.Depth)
		name := path.Join(dir, fmt.Sprintf("dim%d.txt", d+1))
		err := writeLines(fsys, name, func(w *bufio.Writer) {
			for _, e := range dims[d].edges {
				fmt.Fprintf(w, "%s;%s\n", e[0], e[1])
			}
		})
		if err != nil {
			return 0, err
		}
		cfg.Hierarchies = append(cfg.Hierarchies, name)
	}

	cells := 0
	err := writeLines(fsys, cfg.Values, func(w *bufio.Writer) {
		labels := make([]string, opts.Dims)
		var walk func(d int)
		walk = func(d int) {
			if d == opts.Dims {
				fmt.Fprintf(w, "%s;%s\n", strings.Join(labels, ","), strconv.FormatFloat(value(rng, opts.Positive), 'f', 1, 64))
				cells++
				return
			}
			for _, leaf := range dims[d].leaves {
				labels[d] = leaf
				walk(d + 1)
			}
		}
		walk(0)
	})
	if err != nil {
		return 0, err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return 0, err
	}
	f, err := fsys.Create(path.Join(dir, "run.yaml"))
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return 0, err
	}
	return cells, f.Close()
}

// value draws a cell value with a per-cell scale so that aggregates both
// reinforce and cancel.
func value(rng *rand.Rand, positive bool) float64 {
	v := rng.NormFloat64() * math.Exp(rng.Float64()*3)
	if positive {
		v = math.Abs(v) + 0.1
	}
	return math.Round(v*10) / 10
}

func writeLines(fsys billy.Filesystem, name string, fn func(*bufio.Writer)) error {
	f, err := fsys.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	w := bufio.NewWriter(f)
	fn(w)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

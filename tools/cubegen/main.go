// Command cubegen writes a random cube (hierarchies, leaf values and a run
// config) for benchmarking and trying out cascade.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
)

func main() {
	var opts Options
	outDir := flag.String("out", "cube", "Output directory")
	flag.IntVar(&opts.Dims, "dims", 2, "Number of dimensions")
	flag.IntVar(&opts.Fanout, "fanout", 3, "Children per hierarchy node")
	flag.IntVar(&opts.Depth, "depth", 2, "Hierarchy depth below the root")
	flag.BoolVar(&opts.Positive, "positive", false, "Generate positive values only (for --log-transform)")
	flag.Int64Var(&opts.Seed, "seed", 1, "Random seed")
	flag.IntVar(&opts.Budget, "budget", 10, "Budget written to run.yaml")
	flag.Parse()

	dir, err := filepath.Abs(*outDir)
	if err != nil {
		fatal(err)
	}
	cells, err := Generate(osfs.New("/"), dir, opts)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %d cells to %s (run: cascade summarize -c %s)\n",
		cells, dir, filepath.Join(dir, "run.yaml"))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

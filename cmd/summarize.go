package cmd

import (
	"fmt"
	"io"

	"github.com/agentic-research/cascade/api"
	"github.com/agentic-research/cascade/internal/config"
	"github.com/agentic-research/cascade/internal/run"
	"github.com/spf13/cobra"
)

// runFlags are the run settings that can be given on the command line. Each
// one overrides the config file only when set explicitly.
type runFlags struct {
	configPath string
	cfg        api.RunConfig
}

func (f *runFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "Run configuration file (.hcl, .hcl.json, .yaml, .yml)")
	fl.StringSliceVarP(&f.cfg.Hierarchies, "hierarchy", "H", nil, "Hierarchy file, one per dimension in order (repeatable)")
	fl.StringVarP(&f.cfg.Values, "values", "v", "", "Leaf value source (text, .json, .db/.sqlite)")
	fl.StringVar(&f.cfg.ValuesSelector, "selector", "", "JSONPath selecting {name, value} records in a JSON source")
	fl.StringVar(&f.cfg.ValuesTable, "table", d.ValuesTable, "Table to read from a SQLite source")
	fl.IntVarP(&f.cfg.Budget, "budget", "k", d.Budget, "Maximum number of representatives (K)")
	fl.BoolVar(&f.cfg.TakeLog, "log-transform", false, "Summarize log-transformed values")
	fl.BoolVar(&f.cfg.LevelByLevel, "level-by-level", false, "Keep only two lattice levels of tables in memory")
	fl.BoolVar(&f.cfg.KeepPrecision, "keep-precision", false, "Do not round text values up to one decimal place")
}

// resolve merges the config file, defaults and explicit flags, then makes
// every path absolute.
func (f *runFlags) resolve(cmd *cobra.Command) (api.RunConfig, error) {
	cfg := config.Default()
	if f.configPath != "" {
		p, err := absPath(f.configPath)
		if err != nil {
			return cfg, err
		}
		if cfg, err = config.Load(hostFS(), p); err != nil {
			return cfg, err
		}
	}

	fl := cmd.Flags()
	override := func(name string, apply func()) {
		if fl.Changed(name) || (f.configPath == "" && fl.Lookup(name) != nil) {
			apply()
		}
	}
	override("hierarchy", func() { cfg.Hierarchies = f.cfg.Hierarchies })
	override("values", func() { cfg.Values = f.cfg.Values })
	override("selector", func() { cfg.ValuesSelector = f.cfg.ValuesSelector })
	override("table", func() { cfg.ValuesTable = f.cfg.ValuesTable })
	override("budget", func() { cfg.Budget = f.cfg.Budget })
	override("log-transform", func() { cfg.TakeLog = f.cfg.TakeLog })
	override("level-by-level", func() { cfg.LevelByLevel = f.cfg.LevelByLevel })
	override("keep-precision", func() { cfg.KeepPrecision = f.cfg.KeepPrecision })
	override("errors-out", func() { cfg.ErrorsOut = f.cfg.ErrorsOut })
	override("report", func() { cfg.ReportOut = f.cfg.ReportOut })
	override("ledger", func() { cfg.Ledger = f.cfg.Ledger })

	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}

	var err error
	for i, h := range cfg.Hierarchies {
		if cfg.Hierarchies[i], err = absPath(h); err != nil {
			return cfg, err
		}
	}
	for _, p := range []*string{&cfg.Values, &cfg.ErrorsOut, &cfg.ReportOut, &cfg.Ledger} {
		if *p, err = absPath(*p); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func newSummarizeCmd(g *globalOptions) *cobra.Command {
	var (
		flags    runFlags
		jsonOut  bool
		showTree bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Choose at most K representative cells that best explain the data",
		Long: `Builds the lattice of all hierarchy-node combinations, computes the
heaviest set of at most K non-overlapping representatives, and reports
how well they reconstruct every leaf cell (SMAPE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			res, err := run.New(hostFS(), g.slog()).Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				_, err := fmt.Fprintln(out, run.ReportJSON(res.Report))
				return err
			}
			if err := run.WriteText(out, res.Report); err != nil {
				return err
			}
			if err := writeRepresentatives(out, res.Report); err != nil {
				return err
			}
			if showTree {
				return res.Engine.WriteTree(out, res.Reconstruction)
			}
			return nil
		},
	}
	flags.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&flags.cfg.ErrorsOut, "errors-out", "", "Write per-leaf errors (e1,e2,...,) to this file")
	fl.StringVar(&flags.cfg.ReportOut, "report", "", "Write the JSON report to this file")
	fl.StringVar(&flags.cfg.Ledger, "ledger", "", "Record the run in this SQLite ledger")
	fl.BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	fl.BoolVar(&showTree, "tree", false, "Print observed and reconstructed values as a tree")
	return cmd
}

func writeRepresentatives(w io.Writer, rep api.Report) error {
	for _, r := range rep.Representatives {
		if _, err := fmt.Fprintf(w, "  %s: value=%g leaves=%d share=%g\n", r.Name, r.Value, r.Leaves, r.Share); err != nil {
			return err
		}
	}
	return nil
}

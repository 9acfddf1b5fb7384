package cmd

import (
	"fmt"

	"github.com/agentic-research/cascade/internal/cascade"
	"github.com/agentic-research/cascade/internal/run"
	"github.com/spf13/cobra"
)

func newInspectCmd(g *globalOptions) *cobra.Command {
	var (
		flags    runFlags
		nodes    []string
		showTree bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print lattice statistics, node links and aggregated values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			l, err := run.New(hostFS(), g.slog()).Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := l.Stats()
			fmt.Fprintf(out, "dimensions: %d\nnodes: %d\nleaves: %d\nlevels: %d\nedges: %d\nwidest level: %d\n",
				st.Dims, st.Nodes, st.Leaves, st.Levels, st.Edges, st.Widest)

			if len(nodes) == 0 && !showTree {
				return nil
			}
			e, err := cascade.New(l, cascade.Options{Budget: cfg.Budget, Logger: g.slog()})
			if err != nil {
				return err
			}
			e.ComputeValues()
			for _, name := range nodes {
				fmt.Fprintln(out)
				if err := l.Describe(out, name); err != nil {
					return err
				}
			}
			if showTree {
				fmt.Fprintln(out)
				return e.WriteTree(out, nil)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&nodes, "node", "n", nil, "Describe this lattice node, e.g. \"EU,2019\" (repeatable)")
	cmd.Flags().BoolVar(&showTree, "tree", false, "Print aggregated values as a tree")
	return cmd
}

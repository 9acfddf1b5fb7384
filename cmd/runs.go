package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/agentic-research/cascade/internal/ledger"
	"github.com/agentic-research/cascade/internal/run"
	"github.com/spf13/cobra"
)

func newRunsCmd(g *globalOptions) *cobra.Command {
	var (
		ledgerPath string
		limit      int
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List runs recorded in a ledger, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerPath == "" {
				return errors.New("--ledger is required")
			}
			lg, err := ledger.Open(ledgerPath)
			if err != nil {
				return err
			}
			defer func() { _ = lg.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				r, err := lg.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					_, err = fmt.Fprintln(out, run.ReportJSON(r.Report))
					return err
				}
				fmt.Fprintf(out, "run %s (%s)\nhierarchies: %s\nvalues: %s\nbudget: %d (%s)\n",
					r.ID, r.Created.Format(time.RFC3339), r.Hierarchies, r.Values, r.Report.Budget, r.Report.Mode)
				if err := run.WriteText(out, r.Report); err != nil {
					return err
				}
				return writeRepresentatives(out, r.Report)
			}

			runs, err := lg.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			g.slog().Debug("runs listed", "ledger", ledgerPath, "count", len(runs))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tK\tMODE\tSIZE\tAVG ERROR\tWORST ERROR\tMS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%.4f\t%.4f\t%d\n",
					r.ID, r.Created.Format(time.RFC3339), r.Report.Budget, r.Report.Mode,
					r.Report.Size, r.Report.AverageError, r.Report.WorstError, r.Report.ElapsedMS)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite run ledger")
	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many runs (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print a single run as JSON")
	return cmd
}

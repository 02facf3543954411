package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridPlan/internal/project"
)

func newRunsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage the run archive",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := project.ListRuns(c.runsDir())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "no archived runs")
				return nil
			}
			fmt.Fprintf(w, "%-36s  %-20s  %-6s  %8s  %s\n", "RUN", "STARTED", "SOLVED", "DELAY", "LABEL")
			for _, r := range runs {
				delay := "-"
				if !math.IsInf(r.Delay, 0) {
					delay = fmt.Sprintf("%g", r.Delay)
				}
				solved := "no"
				if r.Solved {
					solved = "yes"
				}
				fmt.Fprintf(w, "%-36s  %-20s  %-6s  %8s  %s\n",
					r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), solved, delay, r.Label)
			}
			return nil
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest archived runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep := c.app.KeepRuns
			if c.v.IsSet("keep") {
				keep = c.v.GetInt("keep")
			}
			if keep <= 0 {
				return fmt.Errorf("nothing to prune: --keep must be positive")
			}
			removed, err := project.PruneRuns(c.runsDir(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d runs\n", removed)
			return nil
		},
	}
	prune.Flags().Int("keep", 0, "number of runs to keep (default keep_runs of the saved defaults)")

	cmd.AddCommand(list, prune)
	return cmd
}

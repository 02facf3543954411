package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridPlan/internal/export"
	"github.com/piwi3910/GridPlan/internal/planner"
)

func newSweepCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Find the smallest crew that finishes the unit problem",
		Long: `Anneals the unit problem for growing worker counts, several trials
each, and stops at the first worker count with a solution.

Example:
  gridplan sweep --units 3
  gridplan sweep --units 2 --start-workers 6 --step-workers 3 --count 12 --trials 3 --output sweep.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := planner.DefaultSweepConfig(c.app, c.v.GetInt("units"))
			if c.v.IsSet("start-workers") {
				cfg.StartWorkers = c.v.GetInt("start-workers")
			}
			if c.v.IsSet("step-workers") {
				cfg.StepWorkers = c.v.GetInt("step-workers")
			}
			if c.v.IsSet("count") {
				cfg.Count = c.v.GetInt("count")
			}
			if c.v.IsSet("trials") {
				cfg.Trials = c.v.GetInt("trials")
			}
			cfg.MaxDays = c.maxDays()
			cfg.Settings = c.overrideSettings(cfg.Settings)

			est, err := planner.Estimate(cfg.Units, cfg.MaxDays, c.v.GetFloat64("slack"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "capacity lower bound: %d workers (%d person-days over %d days, %d with slack)\n",
				est.WorkersNeededMin, est.TotalWork, est.Days, est.WorkersWithSlack)
			if c.v.GetBool("from-estimate") {
				cfg.StartWorkers = est.WorkersNeededMin
			}

			result, err := planner.Sweep(cmd.Context(), cfg, c.logger)
			if err != nil {
				return err
			}
			if err := export.WriteSweep(cmd.OutOrStdout(), result, c.textOptions()); err != nil {
				return err
			}
			if path := c.v.GetString("output"); path != "" {
				if err := export.ExportSweepWorkbook(path, result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			if !result.Solved() {
				return errNoSolution
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("units", 1, "units of the unit problem")
	f.Int("start-workers", 0, "first worker count (default from saved defaults)")
	f.Int("step-workers", 0, "worker count increment")
	f.Int("count", 0, "number of worker counts to try")
	f.Int("trials", 0, "annealing runs per worker count")
	f.Int("days", 0, "time bound in days (default max_days of the saved defaults)")
	f.Bool("from-estimate", false, "start at the capacity lower bound instead of --start-workers")
	f.Float64("slack", 20, "slack percent added to the capacity estimate")
	f.StringP("output", "o", "", "write the trials to this .xlsx workbook")
	addSettingsFlags(cmd)
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/export"
)

func newCompareCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare settings variants on one problem",
		Long: `Anneals the same problem under the current settings and a set of
what-if variants (other objective, zero-delta acceptance, slower cooling,
another seed) and prints the results side by side.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loadProblem()
			if err != nil {
				return err
			}
			scenarios := engine.BuildDefaultScenarios(c.runSettings())
			results, err := engine.CompareScenarios(scenarios, p.catalog, p.start, engine.WithLogger(c.logger))
			if err != nil {
				return err
			}
			if err := export.WriteComparison(cmd.OutOrStdout(), results, c.textOptions()); err != nil {
				return err
			}
			if path := c.v.GetString("output"); path != "" {
				if err := export.ExportComparisonWorkbook(path, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			for _, r := range results {
				if r.Solved {
					return nil
				}
			}
			return errNoSolution
		},
	}
	addProblemFlags(cmd)
	addSettingsFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "write the comparison to this .xlsx workbook")
	return cmd
}

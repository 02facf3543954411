package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/project"
)

func newRenderCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <run-id>",
		Short: "Render an archived run",
		Long: `Renders an archived run again. The run id may be shortened to any
unique prefix; "gridplan runs list" shows the archive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := c.outputFormat()
			if err := validFormat(format); err != nil {
				return err
			}
			record, err := project.FindRun(c.runsDir(), args[0])
			if err != nil {
				return err
			}
			c.logger.Debug("rendering archived run", zap.String("run_id", record.Result.RunID), zap.String("format", format))
			return c.writeResult(cmd.OutOrStdout(), format, record.Result, record.Catalog)
		},
	}
	cmd.Flags().StringP("format", "f", "", "output format: text, pdf, dxf, xlsx or cards")
	cmd.Flags().StringP("output", "o", "", "output file for non-text formats")
	return cmd
}

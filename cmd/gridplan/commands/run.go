package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/project"
	"github.com/piwi3910/GridPlan/internal/telemetry"
)

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Anneal one problem and render the best packing",
		Long: `Runs one annealing on the unit problem or on a task catalog, archives
the result and renders the best packing.

Example:
  gridplan run --units 2 --workers 12
  gridplan run --catalog tasks.yaml --format pdf --output plan.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd)
		},
	}
	addProblemFlags(cmd)
	addSettingsFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "output format: text, pdf, dxf, xlsx or cards (default from saved defaults)")
	cmd.Flags().StringP("output", "o", "", "output file for non-text formats")
	cmd.Flags().String("label", "", "label stored with the archived run")
	cmd.Flags().Bool("no-save", false, "do not archive the run")
	return cmd
}

func (c *cli) run(cmd *cobra.Command) error {
	format := c.outputFormat()
	if err := validFormat(format); err != nil {
		return err
	}
	p, err := c.loadProblem()
	if err != nil {
		return err
	}
	settings := c.runSettings()

	_, span := telemetry.Tracer(tracerName).Start(cmd.Context(), "gridplan.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("tasks", p.catalog.NumTasks()),
		attribute.Int64("seed", settings.Seed),
		attribute.String("start", p.start.Key()),
	)

	sim, err := engine.NewSimulator(p.catalog, settings, engine.WithLogger(c.logger))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	result, err := sim.Run(p.start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("annealing failed: %w", err)
	}
	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Bool("solved", result.HasSolution()),
		attribute.String("terminate_reason", result.TerminateReason.String()),
	)

	if !c.v.GetBool("no-save") {
		if err := c.archive(c.v.GetString("label"), p.start, p.catalog, result); err != nil {
			return err
		}
	}
	return c.writeResult(cmd.OutOrStdout(), format, result, p.catalog)
}

// archive saves the run, records it as recent and prunes old runs.
func (c *cli) archive(label string, start engine.Expression, catalog *model.Catalog, result model.Result) error {
	record := project.NewRunRecord(label, start.Key(), catalog, result)
	path, err := project.SaveRun(c.runsDir(), record)
	if err != nil {
		return err
	}
	c.logger.Info("run archived", zap.String("run_id", record.Result.RunID), zap.String("path", path))

	c.app.AddRecentRun(record.Result.RunID, recentRuns)
	if err := project.SaveAppConfig(c.appConfigPath(), c.app); err != nil {
		return fmt.Errorf("failed to save recent runs: %w", err)
	}
	removed, err := project.PruneRuns(c.runsDir(), c.app.KeepRuns)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.logger.Info("pruned archived runs", zap.Int("removed", removed), zap.Int("keep", c.app.KeepRuns))
	}
	return nil
}

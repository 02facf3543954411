package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/project"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, change, back up and restore saved defaults",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(c.app, "", "  ")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %s\n", c.appConfigPath())
			if used := c.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(w, "# overrides: %s\n", used)
			}
			fmt.Fprintln(w, string(data))
			return nil
		},
	}

	setDefaults := &cobra.Command{
		Use:   "set-defaults",
		Short: "Change the saved defaults",
		Long: `Changes the defaults every run starts from. Only the given flags are
changed.

Example:
  gridplan config set-defaults --iterations 100 --max-annealing-count 50 --format pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyDefaultFlags(cmd.Flags(), &c.app)
			if err := validFormat(c.app.DefaultFormat); err != nil {
				return err
			}
			settings := model.DefaultSettings()
			c.app.ApplyToSettings(&settings)
			if err := settings.Validate(); err != nil {
				return err
			}
			if err := project.SaveAppConfig(c.appConfigPath(), c.app); err != nil {
				return fmt.Errorf("failed to save defaults: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", c.appConfigPath())
			return nil
		},
	}
	sf := setDefaults.Flags()
	sf.Int64("seed", 0, "default random seed")
	sf.Int("iterations", 0, "default iterations per temperature level")
	sf.Int("max-annealing-count", 0, "default maximum temperature levels")
	sf.Float64("annealing-rate", 0, "default temperature decay")
	sf.String("objective", "", "default objective")
	sf.String("constraint", "", "default constraint")
	sf.Int("max-days", 0, "default time bound in days")
	sf.Int("sweep-start-workers", 0, "first worker count of a sweep")
	sf.Int("sweep-step-workers", 0, "worker count increment of a sweep")
	sf.Int("sweep-count", 0, "worker counts per sweep")
	sf.Int("sweep-trials", 0, "trials per worker count")
	sf.String("output-dir", "", "directory for exported files")
	sf.String("format", "", "default output format")
	sf.Int("keep-runs", 0, "archived runs to keep, 0 keeps all")
	sf.Bool("reset", false, "start from the built-in defaults")

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Back up the saved defaults and the run archive to one JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := project.ExportAllData(args[0], c.app, c.runsDir()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore saved defaults and archived runs from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			c.app = backup.Config
			if err := project.SaveAppConfig(c.appConfigPath(), c.app); err != nil {
				return fmt.Errorf("failed to save defaults: %w", err)
			}
			n, err := project.RestoreRuns(backup, c.runsDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored defaults and %d runs\n", n)
			return nil
		},
	}

	cmd.AddCommand(show, setDefaults, exportCmd, importCmd)
	return cmd
}

// applyDefaultFlags copies every changed set-defaults flag into cfg.
func applyDefaultFlags(flags *pflag.FlagSet, cfg *model.AppConfig) {
	if reset, _ := flags.GetBool("reset"); reset {
		recent := cfg.RecentRuns
		*cfg = model.DefaultAppConfig()
		cfg.RecentRuns = recent
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "seed":
			cfg.DefaultSeed, _ = flags.GetInt64(f.Name)
		case "iterations":
			cfg.DefaultIterations, _ = flags.GetInt(f.Name)
		case "max-annealing-count":
			cfg.DefaultMaxAnnealingCount, _ = flags.GetInt(f.Name)
		case "annealing-rate":
			cfg.DefaultAnnealingRate, _ = flags.GetFloat64(f.Name)
		case "objective":
			cfg.DefaultObjective = model.Objective(f.Value.String())
		case "constraint":
			cfg.DefaultConstraint = model.Constraint(f.Value.String())
		case "max-days":
			cfg.MaxDays, _ = flags.GetInt(f.Name)
		case "sweep-start-workers":
			cfg.SweepStartWorkers, _ = flags.GetInt(f.Name)
		case "sweep-step-workers":
			cfg.SweepStepWorkers, _ = flags.GetInt(f.Name)
		case "sweep-count":
			cfg.SweepCount, _ = flags.GetInt(f.Name)
		case "sweep-trials":
			cfg.SweepTrials, _ = flags.GetInt(f.Name)
		case "output-dir":
			cfg.OutputDir = f.Value.String()
		case "format":
			cfg.DefaultFormat = f.Value.String()
		case "keep-runs":
			cfg.KeepRuns, _ = flags.GetInt(f.Name)
		}
	})
}

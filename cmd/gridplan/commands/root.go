// Package commands implements the gridplan command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/export"
	"github.com/piwi3910/GridPlan/internal/logging"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/project"
	"github.com/piwi3910/GridPlan/internal/telemetry"
)

// Version is overridden at build time with -ldflags "-X ...commands.Version=v1.2.3".
var Version = "dev"

const (
	tracerName = "github.com/piwi3910/GridPlan/cmd/gridplan"
	recentRuns = 10

	exitOK         = 0
	exitError      = 1
	exitNoSolution = 2
)

// errNoSolution ends a command whose annealing found no feasible packing.
var errNoSolution = errors.New("no solution found; increase the iteration budget and retry")

// cli carries the state shared by all subcommands of one invocation.
type cli struct {
	v        *viper.Viper
	cfgFile  string
	app      model.AppConfig
	logger   *zap.Logger
	shutdown func(context.Context) error
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root, c := newRootCmd()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNoSolution):
		return exitNoSolution
	default:
		return exitError
	}
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{v: viper.New(), app: model.DefaultAppConfig(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "gridplan",
		Short: "Task scheduling on a time by capacity grid",
		Long: `GridPlan packs tasks onto a grid of days by persons by annealing
slicing-tree expressions toward the lowest total delay.

Settings are read from flags, GRIDPLAN_* environment variables and
~/.gridplan/config.yaml, in that order of precedence, on top of the
defaults saved with "gridplan config set-defaults".`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default <data-dir>/config.yaml)")
	pf.String("data-dir", project.DefaultConfigDir(), "directory holding saved defaults and the run archive")
	pf.BoolP("verbose", "v", false, "debug logging with per-iteration traces")
	pf.String("log-file", "", "write logs to this file instead of stderr")
	pf.Bool("trace", false, "print trace spans to stderr")
	pf.String("otlp-endpoint", "", "export trace spans to this OTLP/HTTP endpoint URL")
	pf.Bool("no-color", false, "disable styled terminal output")

	root.AddCommand(
		newRunCmd(c),
		newSweepCmd(c),
		newCompareCmd(c),
		newRenderCmd(c),
		newRunsCmd(c),
		newConfigCmd(c),
	)
	return root, c
}

// setup binds flags, environment and config file, loads the saved defaults
// and starts logging and tracing.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	c.v.SetEnvPrefix("GRIDPLAN")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigFile(filepath.Join(c.dataDir(), "config.yaml"))
	}
	c.v.SetConfigType("yaml")
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if c.cfgFile != "" || !missing {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	app, err := project.LoadAppConfig(c.appConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load saved defaults: %w", err)
	}
	c.app = app

	var paths []string
	if file := c.v.GetString("log-file"); file != "" {
		paths = append(paths, file)
	}
	logger, err := logging.New(c.v.GetBool("verbose"), paths...)
	if err != nil {
		return err
	}
	c.logger = logger

	opts := telemetry.Options{
		ServiceName:    "gridplan",
		ServiceVersion: Version,
		Endpoint:       c.v.GetString("otlp-endpoint"),
	}
	if c.v.GetBool("trace") {
		opts.Writer = cmd.ErrOrStderr()
	}
	shutdown, err := telemetry.Init(cmd.Context(), opts)
	if err != nil {
		return err
	}
	c.shutdown = shutdown

	c.logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("config_file", c.v.ConfigFileUsed()),
		zap.String("data_dir", c.dataDir()),
	)
	return nil
}

// close flushes spans and logs.
func (c *cli) close() {
	if c.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.shutdown(ctx); err != nil {
			c.logger.Warn("failed to flush trace spans", zap.Error(err))
		}
		c.shutdown = nil
	}
	_ = c.logger.Sync()
}

func (c *cli) dataDir() string {
	if dir := c.v.GetString("data-dir"); dir != "" {
		return dir
	}
	return project.DefaultConfigDir()
}

func (c *cli) appConfigPath() string {
	return filepath.Join(c.dataDir(), "config.json")
}

func (c *cli) runsDir() string {
	return filepath.Join(c.dataDir(), "runs")
}

func (c *cli) textOptions() export.TextOptions {
	return export.TextOptions{Color: !c.v.GetBool("no-color")}
}

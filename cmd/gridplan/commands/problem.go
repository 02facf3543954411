package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/importer"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/planner"
)

// problem is a catalog together with the expression annealing starts from.
type problem struct {
	catalog *model.Catalog
	start   engine.Expression
}

func addProblemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("catalog", "", "task catalog (.csv, .xlsx, .yaml, .json); the unit problem when empty")
	f.Int("units", 1, "units of the built-in unit problem")
	f.Int("workers", 9, "capacity bound in persons")
	f.Int("days", 0, "time bound in days (default max_days of the saved defaults)")
	f.String("start", "", `start expression, e.g. "0 1 F 2 T"`)
}

func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int64("seed", 0, "random seed")
	f.Int("iterations", 0, "neighbor iterations per temperature level")
	f.Int("max-annealing-count", 0, "maximum temperature levels")
	f.Float64("annealing-rate", 0, "temperature decay per level, in (0, 1]")
	f.Float64("start-temperature", 0, "start temperature; 0 derives it from the delta average")
	f.String("objective", "", "delay or weighted_delay")
	f.String("constraint", "", "none or task_precedence")
	f.String("cache-key", "", "exact or compact solution cache keys")
	f.Bool("legacy-zero-delta", false, "accept every solvable neighbor")
	f.Bool("estimate-delta-avg", false, "estimate the delta average by a random walk before annealing")
}

// overrideSettings applies only the settings given explicitly by flag,
// environment or config file.
func (c *cli) overrideSettings(s model.Settings) model.Settings {
	if c.v.IsSet("seed") {
		s.Seed = c.v.GetInt64("seed")
	}
	if c.v.IsSet("iterations") {
		s.IterationsPerTemperature = c.v.GetInt("iterations")
	}
	if c.v.IsSet("max-annealing-count") {
		s.MaxAnnealingCount = c.v.GetInt("max-annealing-count")
	}
	if c.v.IsSet("annealing-rate") {
		s.AnnealingRate = c.v.GetFloat64("annealing-rate")
	}
	if c.v.IsSet("start-temperature") {
		s.StartTemperature = c.v.GetFloat64("start-temperature")
	}
	if c.v.IsSet("objective") {
		s.Objective = model.Objective(c.v.GetString("objective"))
	}
	if c.v.IsSet("constraint") {
		s.Constraint = model.Constraint(c.v.GetString("constraint"))
	}
	if c.v.IsSet("cache-key") {
		s.CacheKey = model.CacheKey(c.v.GetString("cache-key"))
	}
	if c.v.IsSet("legacy-zero-delta") {
		s.LegacyZeroDelta = c.v.GetBool("legacy-zero-delta")
	}
	if c.v.IsSet("estimate-delta-avg") {
		s.EstimateDeltaAvg = c.v.GetBool("estimate-delta-avg")
	}
	return s
}

// runSettings layers the saved defaults and explicit overrides over the
// library defaults.
func (c *cli) runSettings() model.Settings {
	s := model.DefaultSettings()
	c.app.ApplyToSettings(&s)
	return c.overrideSettings(s)
}

func (c *cli) maxDays() int {
	if c.v.IsSet("days") {
		return c.v.GetInt("days")
	}
	return c.app.MaxDays
}

// loadProblem builds the unit problem or reads --catalog. Catalog documents
// keep their stored bounds unless --days or --workers is given.
func (c *cli) loadProblem() (problem, error) {
	var p problem

	if path := c.v.GetString("catalog"); path != "" {
		days, workers := c.maxDays(), c.v.GetInt("workers")
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			if !c.v.IsSet("days") {
				days = 0
			}
			if !c.v.IsSet("workers") {
				workers = 0
			}
		}
		catalog, warnings, err := importer.LoadCatalog(path, days, workers)
		for _, w := range warnings {
			c.logger.Warn("catalog import", zap.String("path", path), zap.String("warning", w))
		}
		if err != nil {
			return p, err
		}
		p.catalog = catalog
		p.start = planner.ChainExpression(catalog.NumTasks())
	} else {
		units := c.v.GetInt("units")
		catalog, err := planner.BuildCatalog(units, c.v.GetInt("workers"), c.maxDays())
		if err != nil {
			return p, err
		}
		p.catalog = catalog
		p.start = planner.InitialExpression(units)
	}

	if text := c.v.GetString("start"); text != "" {
		start, err := engine.ParseExpression(text)
		if err != nil {
			return p, err
		}
		p.start = start
	}
	if err := p.start.Validate(p.catalog); err != nil {
		return p, fmt.Errorf("invalid start expression %s: %w", p.start, err)
	}

	c.logger.Info("problem loaded",
		zap.Int("tasks", p.catalog.NumTasks()),
		zap.Int("max_width", p.catalog.MaxWidth),
		zap.Int("max_height", p.catalog.MaxHeight),
		zap.String("start", p.start.Key()),
	)
	return p, nil
}

package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default annealing settings applied to new runs
	DefaultSeed              int64      `json:"default_seed"`
	DefaultIterations        int        `json:"default_iterations"`
	DefaultMaxAnnealingCount int        `json:"default_max_annealing_count"`
	DefaultAnnealingRate     float64    `json:"default_annealing_rate"`
	DefaultObjective         Objective  `json:"default_objective"`
	DefaultConstraint        Constraint `json:"default_constraint"`

	// Default problem sweep
	SweepStartWorkers int `json:"sweep_start_workers"`
	SweepStepWorkers  int `json:"sweep_step_workers"`
	SweepCount        int `json:"sweep_count"`
	SweepTrials       int `json:"sweep_trials"`
	MaxDays           int `json:"max_days"`

	// Application preferences
	OutputDir     string   `json:"output_dir"`
	DefaultFormat string   `json:"default_format"` // "text", "pdf", "dxf", "xlsx"
	RecentRuns    []string `json:"recent_runs"`
	KeepRuns      int      `json:"keep_runs"` // 0 = keep all archived runs
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultSeed:              defaults.Seed,
		DefaultIterations:        defaults.IterationsPerTemperature,
		DefaultMaxAnnealingCount: defaults.MaxAnnealingCount,
		DefaultAnnealingRate:     defaults.AnnealingRate,
		DefaultObjective:         defaults.Objective,
		DefaultConstraint:        ConstraintTaskPrecedence,
		SweepStartWorkers:        6,
		SweepStepWorkers:         3,
		SweepCount:               12,
		SweepTrials:              3,
		MaxDays:                  40,
		OutputDir:                ".",
		DefaultFormat:            "text",
		RecentRuns:               []string{},
		KeepRuns:                 0,
	}
}

// ApplyToSettings copies the default values from AppConfig into a Settings struct.
// The CLI calls this before flags are applied so a run inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.Seed = c.DefaultSeed
	if c.DefaultIterations > 0 {
		s.IterationsPerTemperature = c.DefaultIterations
	}
	s.MaxAnnealingCount = c.DefaultMaxAnnealingCount
	if c.DefaultAnnealingRate > 0 {
		s.AnnealingRate = c.DefaultAnnealingRate
	}
	if c.DefaultObjective != "" {
		s.Objective = c.DefaultObjective
	}
	if c.DefaultConstraint != "" {
		s.Constraint = c.DefaultConstraint
	}
}

// AddRecentRun records a run id at the front of RecentRuns, keeping at most max entries.
func (c *AppConfig) AddRecentRun(id string, max int) {
	runs := []string{id}
	for _, r := range c.RecentRuns {
		if r != id {
			runs = append(runs, r)
		}
	}
	if max > 0 && len(runs) > max {
		runs = runs[:max]
	}
	c.RecentRuns = runs
}

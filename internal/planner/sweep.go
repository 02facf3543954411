package planner

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/telemetry"
)

// ErrInvalidSweep is returned for sweep configurations that cannot run.
var ErrInvalidSweep = errors.New("invalid sweep configuration")

const tracerName = "github.com/piwi3910/GridPlan/internal/planner"

// SweepConfig describes a capacity sweep: worker counts StartWorkers,
// StartWorkers+StepWorkers, ... (Count values), each tried Trials times.
type SweepConfig struct {
	Units        int            `json:"units"`
	StartWorkers int            `json:"start_workers"`
	StepWorkers  int            `json:"step_workers"`
	Count        int            `json:"count"`
	Trials       int            `json:"trials"`
	MaxDays      int            `json:"max_days"`
	Settings     model.Settings `json:"settings"`
}

// DefaultSweepConfig takes the sweep geometry from the application config.
func DefaultSweepConfig(app model.AppConfig, units int) SweepConfig {
	return SweepConfig{
		Units:        units,
		StartWorkers: app.SweepStartWorkers,
		StepWorkers:  app.SweepStepWorkers,
		Count:        app.SweepCount,
		Trials:       app.SweepTrials,
		MaxDays:      app.MaxDays,
		Settings:     DefaultSettings(),
	}
}

func (c SweepConfig) Validate() error {
	if c.Units < 1 {
		return fmt.Errorf("%w: units must be >= 1", ErrInvalidSweep)
	}
	if c.StartWorkers < 1 || c.StepWorkers < 1 || c.Count < 1 {
		return fmt.Errorf("%w: worker range %d+%d*i for %d steps", ErrInvalidSweep, c.StartWorkers, c.StepWorkers, c.Count)
	}
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be >= 1", ErrInvalidSweep)
	}
	if c.MaxDays < 1 {
		return fmt.Errorf("%w: max days must be >= 1", ErrInvalidSweep)
	}
	return c.Settings.Validate()
}

// Workers lists the worker counts the sweep visits.
func (c SweepConfig) Workers() []int {
	workers := make([]int, c.Count)
	for i := range workers {
		workers[i] = c.StartWorkers + i*c.StepWorkers
	}
	return workers
}

// TrialResult is one annealing run of the sweep.
type TrialResult struct {
	Workers int          `json:"workers"`
	Trial   int          `json:"trial"`
	Seed    int64        `json:"seed"`
	Result  model.Result `json:"result"`
}

// SweepResult collects every trial run. SolvedWorkers is the first worker
// count with a solution, 0 when none was found.
type SweepResult struct {
	Config        SweepConfig   `json:"config"`
	Trials        []TrialResult `json:"trials"`
	SolvedWorkers int           `json:"solved_workers"`
	Best          *TrialResult  `json:"best,omitempty"`
}

// Solved reports whether any worker count produced a solution.
func (r SweepResult) Solved() bool {
	return r.SolvedWorkers > 0
}

// Sweep runs the trials worker count by worker count and stops after the
// first count where at least one trial found a solution. Trial t uses seed
// Settings.Seed+t so sweeps are reproducible.
func Sweep(ctx context.Context, cfg SweepConfig, logger *zap.Logger, opts ...engine.Option) (SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := SweepResult{Config: cfg}
	if err := cfg.Validate(); err != nil {
		return out, err
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "planner.sweep")
	defer span.End()
	span.SetAttributes(
		attribute.Int("units", cfg.Units),
		attribute.Int("max_days", cfg.MaxDays),
		attribute.Int("trials", cfg.Trials),
	)

	start := InitialExpression(cfg.Units)
	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)

	for _, workers := range cfg.Workers() {
		catalog, err := BuildCatalog(cfg.Units, workers, cfg.MaxDays)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return out, err
		}
		logger.Info("sweeping worker count", zap.Int("workers", workers))

		solved := false
		for trial := 0; trial < cfg.Trials; trial++ {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			tr, err := runTrial(ctx, catalog, start, cfg.Settings, workers, trial, opts)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return out, err
			}
			out.Trials = append(out.Trials, tr)
			if tr.Result.HasSolution() {
				solved = true
				if out.Best == nil || tr.Result.MinimumDelay < out.Best.Result.MinimumDelay {
					best := tr
					out.Best = &best
				}
			}
		}
		if solved {
			out.SolvedWorkers = workers
			span.SetAttributes(attribute.Int("solved_workers", workers))
			logger.Info("solution found", zap.Int("workers", workers), zap.String("best", out.Best.Result.BestKey()))
			return out, nil
		}
	}

	logger.Warn("no worker count produced a solution", zap.Ints("workers", cfg.Workers()))
	return out, nil
}

func runTrial(ctx context.Context, catalog *model.Catalog, start engine.Expression, settings model.Settings, workers, trial int, opts []engine.Option) (TrialResult, error) {
	_, span := telemetry.Tracer(tracerName).Start(ctx, "planner.trial")
	defer span.End()

	seed := settings.Seed + int64(trial)
	span.SetAttributes(
		attribute.Int("workers", workers),
		attribute.Int("trial", trial),
		attribute.Int64("seed", seed),
	)

	settings.Seed = seed
	sim, err := engine.NewSimulator(catalog, settings, opts...)
	if err != nil {
		return TrialResult{}, fmt.Errorf("failed to set up trial %d at %d workers: %w", trial, workers, err)
	}
	result, err := sim.Run(start)
	if err != nil {
		return TrialResult{}, fmt.Errorf("failed to run trial %d at %d workers: %w", trial, workers, err)
	}

	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Bool("solved", result.HasSolution()),
		attribute.String("terminate_reason", result.TerminateReason.String()),
	)
	if result.HasSolution() {
		span.SetAttributes(attribute.Float64("minimum_delay", result.MinimumDelay))
	}
	return TrialResult{Workers: workers, Trial: trial, Seed: seed, Result: result}, nil
}

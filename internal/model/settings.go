package model

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid annealing settings")

// Objective selects the scalar the optimizer minimizes.
type Objective string

const (
	ObjectiveDelay         Objective = "delay"          // Sum of task finish times
	ObjectiveWeightedDelay Objective = "weighted_delay" // Weight-scaled sum of finish times
)

// Constraint selects the feature constraint applied to evaluated trees.
type Constraint string

const (
	ConstraintNone           Constraint = "none"
	ConstraintTaskPrecedence Constraint = "task_precedence" // Unit heads first, heads never overlap
)

// CacheKey selects how evaluated expressions are keyed in the solution cache.
type CacheKey string

const (
	CacheKeyExact CacheKey = "exact" // The full expression text
	// CacheKeyCompact collapses all-leaf horizontal groups into operand sets,
	// so trees that only reorder a stack of leaves share one entry.
	CacheKeyCompact CacheKey = "compact"
)

// Settings holds the annealing schedule and acceptance configuration.
type Settings struct {
	Seed                     int64   `json:"seed" yaml:"seed" mapstructure:"seed"`
	IterationsPerTemperature int     `json:"iterations_per_temperature" yaml:"iterations_per_temperature" mapstructure:"iterations_per_temperature"`
	StartTemperature         float64 `json:"start_temperature" yaml:"start_temperature" mapstructure:"start_temperature"` // 0 = derive from DeltaAvg
	DeltaAvg                 float64 `json:"delta_avg" yaml:"delta_avg" mapstructure:"delta_avg"`
	InitAcceptUphillProb     float64 `json:"init_accept_uphill_prob" yaml:"init_accept_uphill_prob" mapstructure:"init_accept_uphill_prob"`
	AnnealingRate            float64 `json:"annealing_rate" yaml:"annealing_rate" mapstructure:"annealing_rate"`
	RejectRatioThreshold     float64 `json:"reject_ratio_threshold" yaml:"reject_ratio_threshold" mapstructure:"reject_ratio_threshold"`
	FrozenTemperature        float64 `json:"frozen_temperature" yaml:"frozen_temperature" mapstructure:"frozen_temperature"`
	MaxAnnealingCount        int     `json:"max_annealing_count" yaml:"max_annealing_count" mapstructure:"max_annealing_count"`
	HitCacheThreshold        float64 `json:"hit_cache_threshold" yaml:"hit_cache_threshold" mapstructure:"hit_cache_threshold"`
	AcceptNonSolvableProb    float64 `json:"accept_non_solvable_prob" yaml:"accept_non_solvable_prob" mapstructure:"accept_non_solvable_prob"`
	AcceptNotSatisfiedProb   float64 `json:"accept_not_satisfied_prob" yaml:"accept_not_satisfied_prob" mapstructure:"accept_not_satisfied_prob"`

	Objective  Objective  `json:"objective" yaml:"objective" mapstructure:"objective"`
	Constraint Constraint `json:"constraint" yaml:"constraint" mapstructure:"constraint"`
	CacheKey   CacheKey   `json:"cache_key,omitempty" yaml:"cache_key,omitempty" mapstructure:"cache_key"` // Empty means exact

	// LegacyZeroDelta reproduces the historical acceptance rule where the
	// Metropolis delta is always zero and every solvable neighbor is taken.
	LegacyZeroDelta bool `json:"legacy_zero_delta" yaml:"legacy_zero_delta" mapstructure:"legacy_zero_delta"`

	// Delta-average estimation by random walk before the run
	EstimateDeltaAvg       bool `json:"estimate_delta_avg" yaml:"estimate_delta_avg" mapstructure:"estimate_delta_avg"`
	MaxPerturbToEstimate   int  `json:"max_perturb_to_estimate" yaml:"max_perturb_to_estimate" mapstructure:"max_perturb_to_estimate"`
	PreferredUphillSamples int  `json:"preferred_uphill_samples" yaml:"preferred_uphill_samples" mapstructure:"preferred_uphill_samples"`
}

func DefaultSettings() Settings {
	return Settings{
		Seed:                     100,
		IterationsPerTemperature: 20,
		StartTemperature:         0,
		DeltaAvg:                 20,
		InitAcceptUphillProb:     0.98,
		AnnealingRate:            0.85,
		RejectRatioThreshold:     0.95,
		FrozenTemperature:        1e-3,
		MaxAnnealingCount:        10,
		HitCacheThreshold:        1.0,
		AcceptNonSolvableProb:    0.9,
		AcceptNotSatisfiedProb:   0.9,
		Objective:                ObjectiveDelay,
		Constraint:               ConstraintNone,
		CacheKey:                 CacheKeyExact,
		MaxPerturbToEstimate:     500,
		PreferredUphillSamples:   10,
	}
}

// Validate rejects settings the annealer cannot run with.
func (s Settings) Validate() error {
	if s.IterationsPerTemperature < 1 {
		return fmt.Errorf("%w: iterations per temperature must be >= 1", ErrInvalidSettings)
	}
	if s.MaxAnnealingCount < 0 {
		return fmt.Errorf("%w: max annealing count must be >= 0", ErrInvalidSettings)
	}
	if s.AnnealingRate <= 0 || s.AnnealingRate > 1 {
		return fmt.Errorf("%w: annealing rate %.3f outside (0, 1]", ErrInvalidSettings, s.AnnealingRate)
	}
	if s.StartTemperature < 0 {
		return fmt.Errorf("%w: start temperature must not be negative", ErrInvalidSettings)
	}
	if s.StartTemperature == 0 {
		if s.InitAcceptUphillProb <= 0 || s.InitAcceptUphillProb >= 1 {
			return fmt.Errorf("%w: initial uphill acceptance %.3f outside (0, 1)", ErrInvalidSettings, s.InitAcceptUphillProb)
		}
		if s.DeltaAvg <= 0 {
			return fmt.Errorf("%w: delta average must be positive", ErrInvalidSettings)
		}
	}
	for name, p := range map[string]float64{
		"accept non-solvable":  s.AcceptNonSolvableProb,
		"accept not-satisfied": s.AcceptNotSatisfiedProb,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s probability %.3f outside [0, 1]", ErrInvalidSettings, name, p)
		}
	}
	switch s.Objective {
	case ObjectiveDelay, ObjectiveWeightedDelay:
	default:
		return fmt.Errorf("%w: unknown objective %q", ErrInvalidSettings, s.Objective)
	}
	switch s.Constraint {
	case ConstraintNone, ConstraintTaskPrecedence:
	default:
		return fmt.Errorf("%w: unknown constraint %q", ErrInvalidSettings, s.Constraint)
	}
	switch s.CacheKey {
	case "", CacheKeyExact, CacheKeyCompact:
	default:
		return fmt.Errorf("%w: unknown cache key %q", ErrInvalidSettings, s.CacheKey)
	}
	if s.EstimateDeltaAvg && (s.MaxPerturbToEstimate < 1 || s.PreferredUphillSamples < 1) {
		return fmt.Errorf("%w: delta estimation needs positive perturbation and sample counts", ErrInvalidSettings)
	}
	return nil
}

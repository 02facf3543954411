package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piwi3910/GridPlan/internal/model"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for iteration traces and level summaries.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRand replaces the seeded random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// Simulator anneals slicing-tree expressions toward the lowest delay packing.
// It is not safe for concurrent use; run independent simulators instead.
type Simulator struct {
	catalog  *model.Catalog
	settings model.Settings
	logger   *zap.Logger
	rng      *rand.Rand
	cache    *SolutionCache
}

// NewSimulator validates the catalog and settings and seeds the random source
// from settings.Seed.
func NewSimulator(catalog *model.Catalog, settings model.Settings, opts ...Option) (*Simulator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", model.ErrInvalidCatalog)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		catalog:  catalog,
		settings: settings,
		logger:   zap.NewNop(),
		rng:      rand.New(rand.NewSource(settings.Seed)),
		cache:    NewSolutionCacheFor(settings.CacheKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reseed restarts the random source for a reproducible run.
func (s *Simulator) Reseed(seed int64) {
	s.settings.Seed = seed
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *Simulator) Settings() model.Settings {
	return s.settings
}

// Cache exposes the solution cache of the last run.
func (s *Simulator) Cache() *SolutionCache {
	return s.cache
}

// HeuristicDelay is the delay assumed for an accepted neighbor without a
// computed packing: 2 + 4 + ... + 2n.
func HeuristicDelay(tasks int) float64 {
	n := float64(tasks)
	return (2 + 2*n) / 2 * n
}

// StartTemperature returns the configured start temperature, or the one at
// which an average uphill move of deltaAvg is accepted with InitAcceptUphillProb.
func (s *Simulator) StartTemperature(deltaAvg float64) float64 {
	if s.settings.StartTemperature > 0 {
		return s.settings.StartTemperature
	}
	return -deltaAvg / math.Log(s.settings.InitAcceptUphillProb)
}

// evaluate builds and evaluates the tree of e against the simulator cache.
func (s *Simulator) evaluate(e Expression) (*Tree, error) {
	tree, err := NewTree(e, s.catalog, s.cache, s.settings.Objective)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}
	if err := tree.Evaluate(); err != nil {
		return nil, err
	}
	return tree, nil
}

// EstimateDeltaAvg walks randomly from start and averages the uphill cost
// differences it meets. It falls back to Settings.DeltaAvg when the walk
// finds none.
func (s *Simulator) EstimateDeltaAvg(start Expression) (float64, error) {
	current := start.Clone()
	tree, err := s.evaluate(current)
	if err != nil {
		return 0, err
	}
	currentDelay, solvable := tree.MinimumDelay()

	sum := 0.0
	uphill := 0
	for i := 0; i < s.settings.MaxPerturbToEstimate && uphill < s.settings.PreferredUphillSamples; i++ {
		neighbor, found := FindNeighbor(current, s.rng, s.logger)
		if !found {
			break
		}
		tree, err := s.evaluate(neighbor)
		if err != nil {
			return 0, err
		}
		delay, ok := tree.MinimumDelay()
		if ok && solvable && delay > currentDelay {
			sum += delay - currentDelay
			uphill++
		}
		current, currentDelay, solvable = neighbor, delay, ok
	}

	if uphill == 0 {
		s.logger.Info("no uphill move found, using configured delta average",
			zap.Float64("delta_avg", s.settings.DeltaAvg))
		return s.settings.DeltaAvg, nil
	}
	avg := sum / float64(uphill)
	s.logger.Info("estimated delta average", zap.Float64("delta_avg", avg), zap.Int("samples", uphill))
	return avg, nil
}

// acceptUphill applies the Metropolis rule. An overflowing exponent counts as
// certain acceptance.
func (s *Simulator) acceptUphill(delta, temperature float64) (bool, float64) {
	die := s.rng.Float64()
	if delta <= 0 {
		return true, 1.0
	}
	prob := math.Exp(-delta / temperature)
	if math.IsInf(prob, 1) || math.IsNaN(prob) {
		prob = 1.0
	}
	return die < prob, prob
}

// terminateReason checks the stop rules in priority order.
func (s *Simulator) terminateReason(rejectRatio, temperature float64, levels int, hitRate float64) model.TerminateReason {
	switch {
	case rejectRatio > s.settings.RejectRatioThreshold:
		return model.NeighborsRejectRateTooHigh
	case temperature < s.settings.FrozenTemperature:
		return model.FrozenTemperatureReached
	case levels > s.settings.MaxAnnealingCount:
		return model.MaxAnnealCountReached
	case hitRate > s.settings.HitCacheThreshold:
		return model.TooHighHitCacheRate
	default:
		return model.TerminateNone
	}
}

// Run anneals from start until a termination rule fires. Infeasibility is
// reported through the result; errors are returned only for invalid input or
// broken invariants.
func (s *Simulator) Run(start Expression) (model.Result, error) {
	result := model.Result{
		RunID:           uuid.NewString(),
		StartedAt:       time.Now(),
		Settings:        s.settings,
		MinimumDelay:    math.Inf(1),
		TerminateReason: model.TerminateNone,
	}
	if err := start.Validate(s.catalog); err != nil {
		return result, err
	}

	deltaAvg := s.settings.DeltaAvg
	if s.settings.EstimateDeltaAvg {
		est, err := s.EstimateDeltaAvg(start)
		if err != nil {
			return result, err
		}
		deltaAvg = est
	}
	temperature := s.StartTemperature(deltaAvg)
	s.cache.Reset()

	var (
		current      = start.Clone()
		currentDelay = math.Inf(1)
		heuristic    = HeuristicDelay(start.Tasks())
		best         Expression
		bestShape    *model.Shape
		samples      []float64
	)

	log := s.logger.With(zap.String("run_id", result.RunID))
	log.Info("annealing started",
		zap.String("start", start.Key()),
		zap.Float64("temperature", temperature),
		zap.Int("tasks", start.Tasks()))

	for {
		rejects, hits, evaluations := 0, 0, 0
		for iter := 0; iter < s.settings.IterationsPerTemperature; iter++ {
			neighbor, found := FindNeighbor(current, s.rng, s.logger)

			var tree *Tree
			satisfied := false
			if found {
				var err error
				tree, err = s.evaluate(neighbor)
				if err != nil {
					return result, err
				}
				evaluations++
				if tree.HitCache() {
					hits++
				}
				st := tree.Stats()
				result.ShapesEvaluated += st.Combinations
				result.ShapesRetained += st.Retained
				satisfied = tree.SatisfiesConstraint(s.settings.Constraint)
			}

			switch {
			case !satisfied:
				if s.rng.Float64() < s.settings.AcceptNotSatisfiedProb {
					if found {
						current = neighbor
					}
					currentDelay = heuristic
					log.Debug("accepted unsatisfied neighbor", zap.Int("level", result.Levels), zap.Int("iter", iter))
				} else {
					rejects++
				}

			case !tree.Solvable():
				if s.rng.Float64() < s.settings.AcceptNonSolvableProb {
					current = neighbor
					currentDelay = heuristic
					log.Debug("accepted infeasible neighbor", zap.Int("level", result.Levels), zap.Int("iter", iter))
				} else {
					rejects++
				}

			default:
				delay, _ := tree.MinimumDelay()
				samples = append(samples, delay)
				delta := delay - currentDelay
				if s.settings.LegacyZeroDelta {
					delta = 0
				}
				accepted, prob := s.acceptUphill(delta, temperature)
				if !accepted {
					rejects++
					log.Debug("rejected neighbor",
						zap.String("neighbor", neighbor.Key()),
						zap.Float64("delay", delay),
						zap.Float64("prob", prob))
					continue
				}
				current = neighbor
				currentDelay = delay
				if delay < result.MinimumDelay {
					result.MinimumDelay = delay
					best = neighbor.Clone()
					bestShape = cloneShape(tree.BestShape())
					log.Debug("new best",
						zap.String("expression", best.Key()),
						zap.String("shape", bestShape.Summary()))
				}
			}
		}

		temperature *= s.settings.AnnealingRate
		result.Levels++
		result.Evaluations += evaluations
		hitRate := float64(hits) / float64(max(evaluations, 1))
		rejectRatio := float64(rejects) / float64(s.settings.IterationsPerTemperature)
		result.CacheHitRate = hitRate

		log.Info("annealing level done",
			zap.Int("level", result.Levels),
			zap.Float64("temperature", temperature),
			zap.Float64("reject_ratio", rejectRatio),
			zap.Float64("hit_rate", hitRate),
			zap.Int("cache_size", s.cache.Len()),
			zap.Int("shapes_evaluated", result.ShapesEvaluated),
			zap.Float64("best", result.MinimumDelay))

		if reason := s.terminateReason(rejectRatio, temperature, result.Levels, hitRate); reason != model.TerminateNone {
			result.TerminateReason = reason
			break
		}
	}

	if best != nil {
		result.BestExpression = []model.Symbol(best)
		result.BestShape = bestShape
	}
	result.Stats = model.NewDelayStats(samples)
	result.CacheSize = s.cache.Len()
	result.FinalTemperature = temperature
	result.Elapsed = time.Since(result.StartedAt)

	log.Info("annealing finished",
		zap.Stringer("reason", result.TerminateReason),
		zap.String("best", result.BestKey()),
		zap.String("shape", result.BestShape.Summary()),
		zap.Int("levels", result.Levels),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

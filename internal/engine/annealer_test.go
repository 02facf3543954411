package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/piwi3910/GridPlan/internal/model"
)

func quickSettings() model.Settings {
	s := model.DefaultSettings()
	s.MaxAnnealingCount = 3
	s.RejectRatioThreshold = 1.0
	return s
}

func TestNewSimulator_RejectsInvalidInput(t *testing.T) {
	bad := model.DefaultSettings()
	bad.IterationsPerTemperature = 0
	_, err := NewSimulator(testCatalog(), bad)
	assert.True(t, errors.Is(err, model.ErrInvalidSettings))

	_, err = NewSimulator(&model.Catalog{}, model.DefaultSettings())
	assert.True(t, errors.Is(err, model.ErrInvalidCatalog))

	_, err = NewSimulator(nil, model.DefaultSettings())
	assert.True(t, errors.Is(err, model.ErrInvalidCatalog))
}

func TestRun_RejectsInvalidStart(t *testing.T) {
	sim, err := NewSimulator(testCatalog(), quickSettings())
	require.NoError(t, err)

	_, err = sim.Run(mustParse(t, "0-F-1"))
	assert.True(t, errors.Is(err, ErrMalformedExpression))

	_, err = sim.Run(mustParse(t, "0-5-F"))
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestHeuristicDelay(t *testing.T) {
	assert.Equal(t, 12.0, HeuristicDelay(3))
	assert.Equal(t, 2.0, HeuristicDelay(1))
}

func TestStartTemperature(t *testing.T) {
	sim, err := NewSimulator(testCatalog(), model.DefaultSettings())
	require.NoError(t, err)
	assert.InDelta(t, 989.97, sim.StartTemperature(20), 0.01)

	s := model.DefaultSettings()
	s.StartTemperature = 100
	sim, err = NewSimulator(testCatalog(), s)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sim.StartTemperature(20))
}

func TestAcceptUphill(t *testing.T) {
	sim, err := NewSimulator(testCatalog(), model.DefaultSettings())
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		ok, prob := sim.acceptUphill(0, 1)
		assert.True(t, ok)
		assert.Equal(t, 1.0, prob)
	}
	ok, prob := sim.acceptUphill(-5, 1)
	assert.True(t, ok)
	assert.Equal(t, 1.0, prob)

	ok, prob = sim.acceptUphill(1e6, 1e-3)
	assert.False(t, ok)
	assert.Equal(t, 0.0, prob)
}

func TestTerminateReasonPriority(t *testing.T) {
	sim, err := NewSimulator(testCatalog(), model.DefaultSettings())
	require.NoError(t, err)

	tests := []struct {
		name        string
		rejectRatio float64
		temperature float64
		levels      int
		hitRate     float64
		want        model.TerminateReason
	}{
		{"reject ratio wins", 0.96, 1e-4, 20, 2, model.NeighborsRejectRateTooHigh},
		{"frozen next", 0.5, 1e-4, 20, 2, model.FrozenTemperatureReached},
		{"anneal count next", 0.5, 1, 11, 2, model.MaxAnnealCountReached},
		{"hit rate last", 0.5, 1, 10, 1.5, model.TooHighHitCacheRate},
		{"keep going", 0.95, 1e-3, 10, 1.0, model.TerminateNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sim.terminateReason(tt.rejectRatio, tt.temperature, tt.levels, tt.hitRate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_MaxAnnealCountReached(t *testing.T) {
	s := model.DefaultSettings()
	s.MaxAnnealingCount = 1
	s.RejectRatioThreshold = 1.0
	s.Constraint = model.ConstraintNone

	catalog := testCatalog()
	sim, err := NewSimulator(catalog, s)
	require.NoError(t, err)

	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	assert.Equal(t, model.MaxAnnealCountReached, res.TerminateReason)
	assert.Equal(t, 2, res.Levels)
	require.True(t, res.HasSolution())
	assert.Equal(t, float64(res.BestShape.D), res.MinimumDelay)
	assert.Equal(t, 3, res.BestShape.N)
	assert.True(t, Expression(res.BestExpression).IsValid())
	assert.LessOrEqual(t, res.BestShape.W, catalog.MaxWidth)
	assert.LessOrEqual(t, res.BestShape.H, catalog.MaxHeight)

	assert.Positive(t, res.Stats.Samples)
	assert.LessOrEqual(t, res.Stats.Min, res.MinimumDelay)
	assert.GreaterOrEqual(t, res.Stats.Max, res.Stats.Mean)
	assert.Equal(t, 40, res.Evaluations)
	assert.Positive(t, res.CacheSize)
	assert.NotEmpty(t, res.RunID)
	assert.InDelta(t, sim.StartTemperature(20)*0.85*0.85, res.FinalTemperature, 1e-9)
}

func TestRun_HeightBoundBelowEveryFootprint(t *testing.T) {
	catalog := testCatalog()
	catalog.MaxHeight = 2

	s := model.DefaultSettings()
	s.MaxAnnealingCount = 2
	sim, err := NewSimulator(catalog, s)
	require.NoError(t, err)

	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	assert.False(t, res.HasSolution())
	assert.Nil(t, res.BestExpression)
	assert.Nil(t, res.BestShape)
	assert.True(t, math.IsInf(res.MinimumDelay, 1))
	assert.Equal(t, model.DelayStats{}, res.Stats)
	assert.NotEqual(t, model.TerminateNone, res.TerminateReason)
}

func TestRun_SameSeedSameResult(t *testing.T) {
	catalog := unitCatalog(2, 30, 12)
	start := mustParse(t, "0-1-2-F-3-F-T-4-5-6-F-7-F-T-T")

	run := func() model.Result {
		sim, err := NewSimulator(catalog, quickSettings())
		require.NoError(t, err)
		res, err := sim.Run(start)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.BestKey(), b.BestKey())
	assert.Equal(t, a.MinimumDelay, b.MinimumDelay)
	assert.Equal(t, a.Evaluations, b.Evaluations)
	assert.Equal(t, a.CacheSize, b.CacheSize)
	assert.Equal(t, a.Stats, b.Stats)
}

func TestRun_ReseedReproduces(t *testing.T) {
	catalog := unitCatalog(2, 30, 12)
	start := mustParse(t, "0-1-2-F-3-F-T-4-5-6-F-7-F-T-T")

	sim, err := NewSimulator(catalog, quickSettings())
	require.NoError(t, err)
	first, err := sim.Run(start)
	require.NoError(t, err)

	sim.Reseed(quickSettings().Seed)
	second, err := sim.Run(start)
	require.NoError(t, err)

	assert.Equal(t, first.BestKey(), second.BestKey())
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.CacheSize, second.CacheSize, "the cache is reset for every run")
}

func TestRun_TaskPrecedenceHonored(t *testing.T) {
	catalog := unitCatalog(1, 40, 12)
	s := model.DefaultSettings()
	s.Constraint = model.ConstraintTaskPrecedence

	sim, err := NewSimulator(catalog, s)
	require.NoError(t, err)
	res, err := sim.Run(mustParse(t, "0-1-2-F-3-F-T"))
	require.NoError(t, err)

	require.True(t, res.HasSolution())
	assert.True(t, CheckTaskPrecedence(res.BestShape, catalog), res.BestShape.Summary())
}

func TestRun_WeightedObjective(t *testing.T) {
	catalog := testCatalog()
	catalog.Tasks[2].Weight = 5
	s := quickSettings()
	s.Objective = model.ObjectiveWeightedDelay

	sim, err := NewSimulator(catalog, s)
	require.NoError(t, err)
	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	require.True(t, res.HasSolution())
	assert.Equal(t, res.BestShape.WD, res.MinimumDelay)
}

func TestRun_LegacyZeroDeltaNeverRejectsSolvable(t *testing.T) {
	s := quickSettings()
	s.LegacyZeroDelta = true
	s.RejectRatioThreshold = 0 // Any rejection would stop the run after one level

	sim, err := NewSimulator(testCatalog(), s)
	require.NoError(t, err)
	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	assert.Equal(t, model.MaxAnnealCountReached, res.TerminateReason)
	assert.Equal(t, s.MaxAnnealingCount+1, res.Levels)
}

func TestRun_SingleLeafHasNoNeighbors(t *testing.T) {
	sim, err := NewSimulator(testCatalog(), quickSettings())
	require.NoError(t, err)
	res, err := sim.Run(mustParse(t, "0"))
	require.NoError(t, err)

	assert.False(t, res.HasSolution())
	assert.Equal(t, 0, res.Evaluations)
	assert.Equal(t, model.MaxAnnealCountReached, res.TerminateReason)
}

func TestEstimateDeltaAvg(t *testing.T) {
	s := model.DefaultSettings()
	s.EstimateDeltaAvg = true
	sim, err := NewSimulator(unitCatalog(2, 30, 12), s)
	require.NoError(t, err)

	avg, err := sim.EstimateDeltaAvg(mustParse(t, "0-1-2-F-3-F-T-4-5-6-F-7-F-T-T"))
	require.NoError(t, err)
	assert.Positive(t, avg)

	// A lone task has no neighbor so the configured value is used
	avg, err = sim.EstimateDeltaAvg(mustParse(t, "0"))
	require.NoError(t, err)
	assert.Equal(t, s.DeltaAvg, avg)
}

func TestRun_LogsLevelSummaries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := quickSettings()
	sim, err := NewSimulator(testCatalog(), s, WithLogger(zap.New(core)), WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	assert.Equal(t, res.Levels, logs.FilterMessage("annealing level done").Len())
	assert.Equal(t, 1, logs.FilterMessage("annealing finished").Len())
}

func TestRun_ReportsShapeWork(t *testing.T) {
	s := quickSettings()
	s.Constraint = model.ConstraintNone

	sim, err := NewSimulator(testCatalog(), s)
	require.NoError(t, err)
	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)

	assert.Positive(t, res.ShapesEvaluated)
	assert.Positive(t, res.ShapesRetained)
	assert.LessOrEqual(t, res.ShapesRetained, res.ShapesEvaluated)
}

func TestRun_CompactCacheKey(t *testing.T) {
	s := quickSettings()
	s.Constraint = model.ConstraintNone
	s.CacheKey = model.CacheKeyCompact

	catalog := testCatalog()
	sim, err := NewSimulator(catalog, s)
	require.NoError(t, err)
	assert.Equal(t, model.CacheKeyCompact, sim.Cache().KeyType())

	res, err := sim.Run(mustParse(t, "0-1-F-2-T"))
	require.NoError(t, err)
	require.True(t, res.HasSolution())
	assert.LessOrEqual(t, res.BestShape.W, catalog.MaxWidth)
	assert.LessOrEqual(t, res.BestShape.H, catalog.MaxHeight)
	assert.Equal(t, float64(res.BestShape.D), res.MinimumDelay)
}

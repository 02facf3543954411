package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFindNeighbor_SingleOperandHasNone(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rng := rand.New(rand.NewSource(1))

	next, ok := FindNeighbor(mustParse(t, "0"), rng, zap.New(core))
	assert.False(t, ok)
	assert.Nil(t, next)
	assert.Equal(t, 1, logs.FilterMessage("no valid neighbor found").Len())
	assert.Greater(t, logs.FilterMessage("probe budget exhausted searching operand/operator swap").Len(), 0,
		"the operand/operator move should be retried and logged before giving up")
}

func TestFindNeighbor_MinimalExpressions(t *testing.T) {
	for _, text := range []string{"0-1-F", "0-1-T"} {
		e := mustParse(t, text)
		for seed := int64(0); seed < 50; seed++ {
			next, ok := FindNeighbor(e, rand.New(rand.NewSource(seed)), zap.NewNop())
			require.True(t, ok, "%s should always have a neighbor", text)
			assert.True(t, next.IsValid())
			assert.Len(t, next, 3)
		}
	}
}

func TestFindNeighbor_FullyUniqueTopology(t *testing.T) {
	e := mustParse(t, "0-1-F-2-F-3-F")
	require.True(t, e.IsFullyUniqueTopology())

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	for seed := int64(0); seed < 50; seed++ {
		next, ok := FindNeighbor(e, rand.New(rand.NewSource(seed)), logger)
		require.True(t, ok)
		assert.True(t, next.IsValid())
	}
	assert.Zero(t, logs.FilterMessage("probe budget exhausted searching operand/operator swap").Len(),
		"fully unique expressions must skip the operand/operator probe")
}

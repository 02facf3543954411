package engine

import (
	"math/rand"

	"go.uber.org/zap"
)

// moveKind enumerates the perturbations used to derive a neighbor expression.
type moveKind int

const (
	moveSwapOperands moveKind = iota
	moveInvertChain
	moveSwapOperandOperator
	numMoveKinds
)

const (
	maxNeighborProbes = 100 // Candidate positions tried per operand/operator move
	maxMoveSelections = 100 // Move kinds drawn before giving up
)

// FindNeighbor derives a random neighbor of e. It returns false when no
// move produced a valid expression within the selection budget.
func FindNeighbor(e Expression, rng *rand.Rand, logger *zap.Logger) (Expression, bool) {
	for sel := 0; sel < maxMoveSelections; sel++ {
		switch moveKind(rng.Intn(int(numMoveKinds))) {
		case moveSwapOperands:
			if next, ok := e.SwapAdjacentOperands(rng); ok {
				return next, true
			}
		case moveInvertChain:
			if next, ok := e.InvertChain(rng); ok {
				return next, true
			}
		case moveSwapOperandOperator:
			if e.IsFullyUniqueTopology() {
				logger.Debug("fully unique expression, reselecting move", zap.String("expression", e.Key()))
				continue
			}
			for probe := 0; probe < maxNeighborProbes; probe++ {
				if next, ok := e.TrySwapOperandOperator(rng); ok {
					return next, true
				}
				if next, ok := e.TrySwapOperatorOperand(rng); ok {
					return next, true
				}
			}
			logger.Warn("probe budget exhausted searching operand/operator swap",
				zap.String("expression", e.Key()),
				zap.Int("probes", maxNeighborProbes))
		}
	}
	logger.Warn("no valid neighbor found", zap.String("expression", e.Key()), zap.Int("selections", maxMoveSelections))
	return nil, false
}

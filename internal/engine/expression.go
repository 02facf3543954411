package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/piwi3910/GridPlan/internal/model"
)

var (
	// ErrMalformedExpression means an expression does not denote exactly one tree.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrUnknownTask means an operand names a task missing from the catalog.
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvariant means a merged shape broke an offset invariant.
	ErrInvariant = errors.New("shape invariant violated")
)

// Expression is a normalized Polish expression: the post-order encoding of a
// slicing tree. Mutations never modify the receiver; they return a new slice.
type Expression []model.Symbol

// ParseExpression reads symbols separated by '-', ',' or whitespace,
// e.g. "0-1-F-2-T" or "0 1 F 2 T".
func ParseExpression(text string) (Expression, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '-' || r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformedExpression)
	}
	expr := make(Expression, 0, len(fields))
	for _, f := range fields {
		sym, err := model.ParseSymbol(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExpression, err)
		}
		expr = append(expr, sym)
	}
	return expr, nil
}

// Key returns the compact form used as the cache key, e.g. "0-1-F-2-T".
func (e Expression) Key() string {
	var b strings.Builder
	for i, s := range e {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

func (e Expression) String() string {
	return e.Key()
}

// Clone returns an independent copy.
func (e Expression) Clone() Expression {
	if e == nil {
		return nil
	}
	return append(Expression(nil), e...)
}

// Tasks returns the number of operands.
func (e Expression) Tasks() int {
	n := 0
	for _, s := range e {
		if s.IsOperand() {
			n++
		}
	}
	return n
}

// TaskIDs returns the operands in expression order.
func (e Expression) TaskIDs() []int {
	ids := make([]int, 0, len(e))
	for _, s := range e {
		if s.IsOperand() {
			ids = append(ids, s.Task)
		}
	}
	return ids
}

// ballotHolds reports whether an operator at 0-based index pos, preceded by
// opsBefore operators, leaves more operands than operators in the prefix.
func ballotHolds(pos, opsBefore int) bool {
	np := opsBefore + 1
	return 2*np < pos+1
}

// IsValid checks the balloting property at every operator and that the
// expression reduces to a single tree.
func (e Expression) IsValid() bool {
	if len(e) == 0 {
		return false
	}
	ops := 0
	for i, s := range e {
		if !s.IsOperator() {
			continue
		}
		if !ballotHolds(i, ops) {
			return false
		}
		ops++
	}
	return len(e)-ops == ops+1
}

// IsNormalized reports whether no two adjacent operators share a tag.
func (e Expression) IsNormalized() bool {
	for i := 1; i < len(e); i++ {
		if e[i].IsOperator() && e[i-1].IsOperator() && e[i].Tag == e[i-1].Tag {
			return false
		}
	}
	return true
}

// Validate checks structure, operand uniqueness and that every task exists.
func (e Expression) Validate(catalog *model.Catalog) error {
	if !e.IsValid() {
		return fmt.Errorf("%w: %s violates the balloting property", ErrMalformedExpression, e.Key())
	}
	seen := make(map[int]bool, len(e))
	for _, task := range e.TaskIDs() {
		if seen[task] {
			return fmt.Errorf("%w: task %d appears twice in %s", ErrMalformedExpression, task, e.Key())
		}
		seen[task] = true
		if catalog != nil && !catalog.HasTask(task) {
			return fmt.Errorf("%w: %d", ErrUnknownTask, task)
		}
	}
	return nil
}

// IsFullyUniqueTopology reports the degenerate form 0 1 X 2 X 3 X ... with a
// single repeated operator. It has no operand/operator swap neighbors.
func (e Expression) IsFullyUniqueTopology() bool {
	if len(e) <= 2 {
		return false
	}
	tag := e[2]
	for i := 2; i < len(e); i += 2 {
		if !tag.SameTag(e[i]) {
			return false
		}
	}
	for i := 1; i < len(e); i += 2 {
		if !e[i].IsOperand() {
			return false
		}
	}
	return true
}

// SwapAdjacentOperands swaps a random operand with the next operand,
// wrapping around at the end.
func (e Expression) SwapAdjacentOperands(rng *rand.Rand) (Expression, bool) {
	var leaves []int
	for i, s := range e {
		if s.IsOperand() {
			leaves = append(leaves, i)
		}
	}
	if len(leaves) < 2 {
		return nil, false
	}
	k := rng.Intn(len(leaves))
	i, j := leaves[k], leaves[(k+1)%len(leaves)]

	next := e.Clone()
	next[i], next[j] = next[j], next[i]
	return next, true
}

// InvertChain picks a random chain (an operator run that follows an operand)
// and inverts every operator of it.
func (e Expression) InvertChain(rng *rand.Rand) (Expression, bool) {
	var starts []int
	for i := 1; i < len(e); i++ {
		if e[i].IsOperator() && e[i-1].IsOperand() {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil, false
	}

	next := e.Clone()
	for i := starts[rng.Intn(len(starts))]; i < len(next) && next[i].IsOperator(); i++ {
		tag, err := next[i].Tag.Invert()
		if err != nil {
			return nil, false
		}
		next[i].Tag = tag
	}
	return next, true
}

// TrySwapOperandOperator picks a random operand followed by an operator and
// swaps them when the operator's new neighbors keep the expression normalized
// and the balloting property holds at its new position.
func (e Expression) TrySwapOperandOperator(rng *rand.Rand) (Expression, bool) {
	var candidates []int
	for i := 0; i+1 < len(e); i++ {
		if e[i].IsOperand() && e[i+1].IsOperator() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	i := candidates[rng.Intn(len(candidates))]
	if i == 0 || e[i-1].SameTag(e[i+1]) {
		return nil, false
	}

	ops := 0
	for _, s := range e[:i] {
		if s.IsOperator() {
			ops++
		}
	}
	if !ballotHolds(i, ops) {
		return nil, false
	}

	next := e.Clone()
	next[i], next[i+1] = next[i+1], next[i]
	return next, true
}

// TrySwapOperatorOperand picks a random operator followed by an operand and
// swaps them when the operator differs from the symbol two positions ahead.
func (e Expression) TrySwapOperatorOperand(rng *rand.Rand) (Expression, bool) {
	var candidates []int
	for i := 0; i+1 < len(e); i++ {
		if e[i].IsOperator() && e[i+1].IsOperand() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	i := candidates[rng.Intn(len(candidates))]
	if i+2 >= len(e) || e[i].SameTag(e[i+2]) {
		return nil, false
	}

	next := e.Clone()
	next[i], next[i+1] = next[i+1], next[i]
	return next, true
}

package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/GridPlan/internal/model"
)

// node is one slot of the tree arena. Leaves have left == right == -1.
type node struct {
	tag    model.Tag
	task   int
	left   int
	right  int
	shapes []model.Shape
}

func (n node) isLeaf() bool {
	return n.tag == model.TagOperand
}

// TreeStats counts the work done by one evaluation.
type TreeStats struct {
	Combinations int // Shape pairs examined across internal nodes
	Retained     int // Shapes kept after pruning across internal nodes
}

// Tree is a slicing tree built from an expression. It is evaluated once and
// discarded; only its expression outlives an iteration.
type Tree struct {
	expr      Expression
	catalog   *model.Catalog
	cache     *SolutionCache
	objective model.Objective

	nodes []node
	root  int

	pendingVertical int
	evaluated       bool
	hitCache        bool
	solvable        bool
	best            *model.Shape
	stats           TreeStats
}

// NewTree builds the arena for expr. cache may be nil to disable memoization.
func NewTree(expr Expression, catalog *model.Catalog, cache *SolutionCache, objective model.Objective) (*Tree, error) {
	t := &Tree{
		expr:      expr.Clone(),
		catalog:   catalog,
		cache:     cache,
		objective: objective,
		nodes:     make([]node, 0, len(expr)),
	}

	stack := make([]int, 0, len(expr))
	for i, sym := range expr {
		if sym.IsOperand() {
			if !catalog.HasTask(sym.Task) {
				return nil, fmt.Errorf("%w: %d at position %d", ErrUnknownTask, sym.Task, i)
			}
			t.nodes = append(t.nodes, node{tag: model.TagOperand, task: sym.Task, left: -1, right: -1})
			stack = append(stack, len(t.nodes)-1)
			continue
		}
		if len(stack) < 2 {
			return nil, fmt.Errorf("%w: stack underflow at position %d of %s", ErrMalformedExpression, i, expr.Key())
		}
		right, left := stack[len(stack)-1], stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		t.nodes = append(t.nodes, node{tag: sym.Tag, left: left, right: right})
		stack = append(stack, len(t.nodes)-1)
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d subtrees left after scanning %s", ErrMalformedExpression, len(stack), expr.Key())
	}
	t.root = stack[0]
	return t, nil
}

// Expression returns the expression the tree was built from.
func (t *Tree) Expression() Expression {
	return t.expr
}

// Evaluate computes the best shape, consulting the cache first.
func (t *Tree) Evaluate() error {
	if t.evaluated {
		return nil
	}
	var key string
	if t.cache != nil {
		key = t.cacheKey()
		if shape, ok := t.cache.FetchKey(key); ok {
			t.evaluated = true
			t.hitCache = true
			t.best = shape
			t.solvable = shape != nil
			return nil
		}
	}

	shapes, err := t.evaluateNode(t.root)
	if err != nil {
		return fmt.Errorf("failed to evaluate %s: %w", t.expr.Key(), err)
	}
	t.evaluated = true
	if len(shapes) > 0 {
		best := shapes[0].Clone()
		t.best = &best
		t.solvable = true
	}
	if t.cache != nil {
		t.cache.StoreKey(key, t.best)
	}
	return nil
}

// evaluateNode computes the shape list of the subtree rooted at i.
func (t *Tree) evaluateNode(i int) ([]model.Shape, error) {
	n := &t.nodes[i]
	if n.isLeaf() {
		n.shapes = t.catalog.LeafShapes(n.task)
		return n.shapes, nil
	}

	left, err := t.evaluateNode(n.left)
	if err != nil {
		return nil, err
	}
	if n.tag == model.TagVertical {
		t.pendingVertical++
	}
	right, err := t.evaluateNode(n.right)
	if n.tag == model.TagVertical {
		t.pendingVertical--
	}
	if err != nil {
		return nil, err
	}

	shapes, err := combine(n.tag, left, right, t.catalog)
	if err != nil {
		return nil, err
	}
	t.stats.Combinations += len(left) * len(right)

	// Start positions are only fixed when no vertical ancestor waits on this subtree
	if t.pendingVertical == 0 {
		shapes = filterAllowed(shapes, t.catalog)
	}

	n.shapes = Prune(shapes, t.objective)
	t.stats.Retained += len(n.shapes)
	return n.shapes, nil
}

// Shapes returns the root's shape list, nil before evaluation or on a cache hit.
func (t *Tree) Shapes() []model.Shape {
	return t.nodes[t.root].shapes
}

// HitCache reports whether Evaluate was answered from the cache.
func (t *Tree) HitCache() bool {
	return t.hitCache
}

// Solvable reports whether the evaluated tree has a packing within the bounds.
func (t *Tree) Solvable() bool {
	return t.solvable
}

// BestShape returns the first shape of the root list, nil when infeasible.
func (t *Tree) BestShape() *model.Shape {
	return t.best
}

// MinimumDelay returns the best shape's cost and false when the tree is infeasible.
func (t *Tree) MinimumDelay() (float64, bool) {
	if !t.solvable {
		return 0, false
	}
	return t.best.Cost(t.objective), true
}

// Stats reports evaluation work. Both counters are zero on a cache hit.
func (t *Tree) Stats() TreeStats {
	return t.stats
}

// SatisfiesConstraint applies a feature constraint to the evaluated tree.
func (t *Tree) SatisfiesConstraint(c model.Constraint) bool {
	switch c {
	case model.ConstraintNone:
		return true
	case model.ConstraintTaskPrecedence:
		return t.solvable && CheckTaskPrecedence(t.best, t.catalog)
	default:
		return false
	}
}

// CompactForm returns the expression with every all-leaf horizontal group
// collapsed into one sorted operand set, e.g. "(0,1)-2-T". Trees that differ
// only in how they stack leaves share a compact form.
func (t *Tree) CompactForm() string {
	text, _ := t.compact(t.root)
	return text
}

// cacheKey returns the key this tree uses in its cache.
func (t *Tree) cacheKey() string {
	if t.cache.KeyType() == model.CacheKeyCompact {
		return t.CompactForm()
	}
	return t.expr.Key()
}

// compact renders subtree i. The leaves are returned only when the subtree
// is a pure horizontal group of leaves.
func (t *Tree) compact(i int) (string, []int) {
	n := t.nodes[i]
	if n.isLeaf() {
		return strconv.Itoa(n.task), []int{n.task}
	}
	leftText, leftGroup := t.compact(n.left)
	rightText, rightGroup := t.compact(n.right)
	if n.tag == model.TagHorizontal && leftGroup != nil && rightGroup != nil {
		leaves := append(append([]int(nil), leftGroup...), rightGroup...)
		sort.Ints(leaves)
		ids := make([]string, len(leaves))
		for k, l := range leaves {
			ids[k] = strconv.Itoa(l)
		}
		return "(" + strings.Join(ids, ",") + ")", leaves
	}
	return leftText + "-" + rightText + "-" + n.tag.String(), nil
}

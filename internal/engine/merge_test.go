package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GridPlan/internal/model"
)

func leaf(task, w, h int) model.Shape {
	return model.Shape{N: 1, W: w, H: h, D: w, WD: float64(w), S: []int{0}, F: []int{0}, IDs: []model.ShapeID{{Task: task}}}
}

func TestCombineHorizontal(t *testing.T) {
	got, err := combineHorizontal(leaf(0, 5, 6), leaf(1, 2, 3))
	require.NoError(t, err)

	want := model.Shape{
		N: 2, W: 5, H: 9, D: 7,
		S:   []int{0, 0},
		F:   []int{0, 6},
		IDs: []model.ShapeID{{Task: 0}, {Task: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("horizontal merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineVertical(t *testing.T) {
	got, err := combineVertical(leaf(0, 5, 6), leaf(1, 2, 3))
	require.NoError(t, err)

	want := model.Shape{
		N: 2, W: 7, H: 6, D: 12,
		S:   []int{0, 5},
		F:   []int{0, 0},
		IDs: []model.ShapeID{{Task: 0}, {Task: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vertical merge mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineVertical_DelayCountsWaitingTasks(t *testing.T) {
	right, err := combineHorizontal(leaf(1, 2, 3), leaf(2, 6, 3))
	require.NoError(t, err)
	got, err := combineVertical(leaf(0, 5, 6), right)
	require.NoError(t, err)

	// Both right tasks wait 5 slots: 5 + 5*2 + (2+6)
	assert.Equal(t, 23, got.D)
	assert.Equal(t, []int{0, 5, 5}, got.S)
	assert.Equal(t, []int{0, 0, 3}, got.F)
}

func TestCombine_MismatchedOffsetsIsInvariantError(t *testing.T) {
	shifted := leaf(1, 2, 3)
	shifted.S = []int{4}
	_, err := combineHorizontal(leaf(0, 5, 6), shifted)
	assert.True(t, errors.Is(err, ErrInvariant))

	shifted = leaf(1, 2, 3)
	shifted.F = []int{2}
	_, err = combineVertical(leaf(0, 5, 6), shifted)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestCombine_DiscardsShapesOutsideBounds(t *testing.T) {
	catalog := testCatalog()
	catalog.MaxHeight = 8
	catalog.MaxWidth = 6

	shapes, err := combine(model.TagHorizontal, []model.Shape{leaf(0, 5, 6)}, []model.Shape{leaf(1, 2, 3)}, catalog)
	require.NoError(t, err)
	assert.Empty(t, shapes, "height 9 exceeds 8")

	shapes, err = combine(model.TagVertical, []model.Shape{leaf(0, 5, 6)}, []model.Shape{leaf(1, 2, 3)}, catalog)
	require.NoError(t, err)
	assert.Empty(t, shapes, "width 7 exceeds 6")

	_, err = combine(model.TagOperand, []model.Shape{leaf(0, 5, 6)}, []model.Shape{leaf(1, 2, 3)}, catalog)
	assert.True(t, errors.Is(err, model.ErrNotOperator))
}

func TestCombine_RecomputesWeightedDelay(t *testing.T) {
	catalog := testCatalog()
	catalog.Tasks[1].Weight = 3

	shapes, err := combine(model.TagVertical, catalog.LeafShapes(0), catalog.LeafShapes(1), catalog)
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	// 1*(0+5) + 3*(5+2)
	assert.Equal(t, 26.0, shapes[0].WD)
}

func pruneFixture() []model.Shape {
	return []model.Shape{
		{W: 4, H: 4, D: 20, WD: 1},
		{W: 7, H: 9, D: 8, WD: 2},
		{W: 7, H: 6, D: 12, WD: 3},
		{W: 5, H: 9, D: 7, WD: 4},
	}
}

func TestPrune(t *testing.T) {
	got := Prune(pruneFixture(), model.ObjectiveDelay)

	want := []model.Shape{
		{W: 5, H: 9, D: 7, WD: 4},
		{W: 7, H: 6, D: 12, WD: 3},
		{W: 4, H: 4, D: 20, WD: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("prune mismatch (-want +got):\n%s", diff)
	}
}

func TestPrune_WeightedObjective(t *testing.T) {
	got := Prune(pruneFixture(), model.ObjectiveWeightedDelay)
	// The smallest shape has the best weighted delay and covers every other one
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].W)
}

func TestPrune_Idempotent(t *testing.T) {
	once := Prune(pruneFixture(), model.ObjectiveDelay)
	twice := Prune(once, model.ObjectiveDelay)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second prune changed the list (-once +twice):\n%s", diff)
	}
}

func TestPrune_NoSurvivorDominatesALaterOne(t *testing.T) {
	catalog := &model.Catalog{MaxWidth: 60, MaxHeight: 30}
	for task := 0; task < 8; task++ {
		k := task%3 + 1
		catalog.Tasks = append(catalog.Tasks, model.Task{
			Weight:     float64(k),
			Footprints: []model.Footprint{{Width: 2 * k, Height: 6}, {Width: 3 * k, Height: 4}, {Width: 4 * k, Height: 3}, {Width: 6 * k, Height: 2}},
		})
	}
	tree, err := NewTree(mustParse(t, "0-1-F-2-T-3-F-4-5-F-T-6-F-7-T"), catalog, nil, model.ObjectiveDelay)
	require.NoError(t, err)
	require.NoError(t, tree.Evaluate())

	for _, n := range tree.nodes {
		for i := range n.shapes {
			for j := i + 1; j < len(n.shapes); j++ {
				if !n.isLeaf() && n.shapes[i].Dominates(n.shapes[j]) {
					t.Fatalf("shape %d dominates later shape %d", i, j)
				}
			}
		}
	}
}

func TestPrune_EqualSizeKeepsBetterObjective(t *testing.T) {
	got := Prune([]model.Shape{{W: 3, H: 3, D: 9}, {W: 3, H: 3, D: 4}}, model.ObjectiveDelay)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].D)
}

func TestPrune_DoesNotModifyInput(t *testing.T) {
	in := pruneFixture()
	_ = Prune(in, model.ObjectiveDelay)
	assert.Equal(t, pruneFixture(), in)
}

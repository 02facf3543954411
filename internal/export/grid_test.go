package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/planner"
)

// twoTaskCatalog and twoTaskResult describe a head of 5x6 followed in time
// by a 2x3 member.
func twoTaskCatalog() *model.Catalog {
	return &model.Catalog{
		MaxWidth:  40,
		MaxHeight: 9,
		Tasks: []model.Task{
			{Label: "1-1", Weight: 1, Footprints: []model.Footprint{{Width: 5, Height: 6}}},
			{Label: "1-2", Weight: 1, Footprints: []model.Footprint{{Width: 2, Height: 3}}},
		},
	}
}

func twoTaskResult() model.Result {
	return model.Result{
		RunID:          "run-1",
		Settings:       model.DefaultSettings(),
		BestExpression: []model.Symbol{model.Operand(0), model.Operand(1), model.Vertical()},
		BestShape: &model.Shape{
			N: 2, W: 7, H: 6, D: 12, WD: 12,
			S:   []int{0, 5},
			F:   []int{0, 0},
			IDs: []model.ShapeID{{Task: 0}, {Task: 1}},
		},
		MinimumDelay:    12,
		Levels:          3,
		TerminateReason: model.MaxAnnealCountReached,
	}
}

func TestPlacements(t *testing.T) {
	result := twoTaskResult()
	placements, err := Placements(result.BestShape, twoTaskCatalog())
	require.NoError(t, err)
	require.Len(t, placements, 2)

	assert.Equal(t, Placement{Task: 1, Label: "1-2", Day: 5, Person: 0, Days: 2, Persons: 3, Finish: 7}, placements[1])
}

func TestPlacements_UnknownFootprint(t *testing.T) {
	shape := &model.Shape{N: 1, W: 1, H: 1, S: []int{0}, F: []int{0}, IDs: []model.ShapeID{{Task: 0, Index: 4}}}
	_, err := Placements(shape, twoTaskCatalog())
	assert.Error(t, err)

	_, err = Placements(nil, twoTaskCatalog())
	assert.True(t, errors.Is(err, ErrNoSolution))
}

func TestBuildGrid(t *testing.T) {
	result := twoTaskResult()
	placements, err := Placements(result.BestShape, twoTaskCatalog())
	require.NoError(t, err)

	grid, err := BuildGrid(result.BestShape, placements)
	require.NoError(t, err)
	assert.Equal(t, 7, grid.Days)
	assert.Equal(t, 6, grid.Persons)
	assert.Equal(t, 0, grid.Cells[5][4])
	assert.Equal(t, 1, grid.Cells[2][6])
	assert.Equal(t, -1, grid.Cells[3][6])
	assert.InDelta(t, 36.0/42.0, grid.Utilization(), 1e-9)
}

func TestBuildGrid_Overlap(t *testing.T) {
	shape := &model.Shape{N: 2, W: 5, H: 6, S: []int{0, 1}, F: []int{0, 0}, IDs: []model.ShapeID{{Task: 0}, {Task: 1}}}
	placements, err := Placements(shape, twoTaskCatalog())
	require.NoError(t, err)

	_, err = BuildGrid(shape, placements)
	assert.True(t, errors.Is(err, ErrOverlap))
}

func TestBuildGrid_OutsideShape(t *testing.T) {
	shape := &model.Shape{N: 1, W: 3, H: 6, S: []int{0}, F: []int{0}, IDs: []model.ShapeID{{Task: 0}}}
	placements, err := Placements(shape, twoTaskCatalog())
	require.NoError(t, err)

	_, err = BuildGrid(shape, placements)
	assert.Error(t, err)
}

func TestSolutionHeader(t *testing.T) {
	assert.Equal(t, "n=2,w=7,h=6,d=12", SolutionHeader(twoTaskResult().BestShape))
	assert.Equal(t, "no solution", SolutionHeader(nil))
}

// Every packing the annealer reports must rasterize without overlap.
func TestBuildGrid_AnnealedUnitsDoNotOverlap(t *testing.T) {
	catalog, err := planner.BuildCatalog(2, 30, 60)
	require.NoError(t, err)

	settings := model.DefaultSettings()
	settings.MaxAnnealingCount = 3
	settings.RejectRatioThreshold = 1.0
	sim, err := engine.NewSimulator(catalog, settings)
	require.NoError(t, err)

	result, err := sim.Run(planner.InitialExpression(2))
	require.NoError(t, err)
	require.True(t, result.HasSolution())

	placements, grid, err := layout(result, catalog)
	require.NoError(t, err)
	assert.Len(t, placements, 8)
	assert.Greater(t, grid.Utilization(), 0.0)
}

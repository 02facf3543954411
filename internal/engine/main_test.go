package engine

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/piwi3910/GridPlan/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testCatalog returns three tasks with one footprint each on a roomy grid.
func testCatalog() *model.Catalog {
	return &model.Catalog{
		MaxWidth:  40,
		MaxHeight: 20,
		Tasks: []model.Task{
			{Weight: 1, Footprints: []model.Footprint{{Width: 5, Height: 6}}},
			{Weight: 1, Footprints: []model.Footprint{{Width: 2, Height: 3}}},
			{Weight: 1, Footprints: []model.Footprint{{Width: 6, Height: 3}}},
		},
	}
}

// unitCatalog builds the four-task units used by the resource planner.
func unitCatalog(units, maxWidth, maxHeight int) *model.Catalog {
	basic := []model.Footprint{{Width: 5, Height: 6}, {Width: 2, Height: 3}, {Width: 6, Height: 3}, {Width: 5, Height: 3}}
	c := &model.Catalog{MaxWidth: maxWidth, MaxHeight: maxHeight}
	for u := 0; u < units; u++ {
		for _, fp := range basic {
			c.Tasks = append(c.Tasks, model.Task{Weight: 1, Footprints: []model.Footprint{fp}})
		}
	}
	return c
}

func mustParse(t *testing.T, text string) Expression {
	t.Helper()
	e, err := ParseExpression(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return e
}

// Package export renders planning results: PDF grid charts, QR-coded task
// cards, DXF drawings, Excel workbooks and terminal grids.
package export

import (
	"errors"
	"fmt"
	"sort"

	"github.com/piwi3910/GridPlan/internal/model"
)

var (
	// ErrNoSolution is returned when a result without a best shape is rendered.
	ErrNoSolution = errors.New("no solution to render")
	// ErrOverlap is returned when two placed tasks claim the same grid cell.
	ErrOverlap = errors.New("placements overlap")
)

// taskColor represents an RGB color for a placed task.
type taskColor struct {
	R, G, B int
}

func (c taskColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// taskColors is shared by every renderer so a task keeps its color across formats.
var taskColors = []taskColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

func colorFor(task int) taskColor {
	return taskColors[task%len(taskColors)]
}

// Placement is one task rectangle resolved against the catalog. Day and
// Person are the start cells on the time and capacity axes.
type Placement struct {
	Task    int    `json:"task"`
	Shape   int    `json:"shape"`
	Label   string `json:"label"`
	Day     int    `json:"day"`
	Person  int    `json:"person"`
	Days    int    `json:"days"`
	Persons int    `json:"persons"`
	Finish  int    `json:"finish"`
}

// Placements lists the leaves of shape in task order.
func Placements(shape *model.Shape, catalog *model.Catalog) ([]Placement, error) {
	if shape == nil {
		return nil, ErrNoSolution
	}
	out := make([]Placement, 0, shape.N)
	for i, id := range shape.IDs {
		fp, ok := catalog.Footprint(id)
		if !ok {
			return nil, fmt.Errorf("shape references unknown footprint %s", id)
		}
		out = append(out, Placement{
			Task:    id.Task,
			Shape:   id.Index,
			Label:   catalog.Label(id.Task),
			Day:     shape.S[i],
			Person:  shape.F[i],
			Days:    fp.Width,
			Persons: fp.Height,
			Finish:  shape.S[i] + fp.EffectiveDelay(),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Task < out[b].Task })
	return out, nil
}

// Grid is the occupancy matrix of a shape: Cells[person][day] holds the task
// id using that cell, or -1.
type Grid struct {
	Days    int
	Persons int
	Cells   [][]int
}

// BuildGrid rasterizes placements onto a Days x Persons grid.
func BuildGrid(shape *model.Shape, placements []Placement) (Grid, error) {
	if shape == nil {
		return Grid{}, ErrNoSolution
	}
	g := Grid{Days: shape.W, Persons: shape.H, Cells: make([][]int, shape.H)}
	for p := range g.Cells {
		g.Cells[p] = make([]int, shape.W)
		for d := range g.Cells[p] {
			g.Cells[p][d] = -1
		}
	}
	for _, pl := range placements {
		for p := pl.Person; p < pl.Person+pl.Persons; p++ {
			for d := pl.Day; d < pl.Day+pl.Days; d++ {
				if p < 0 || p >= g.Persons || d < 0 || d >= g.Days {
					return Grid{}, fmt.Errorf("task %s leaves the %dx%d grid at day %d person %d", pl.Label, g.Days, g.Persons, d, p)
				}
				if other := g.Cells[p][d]; other >= 0 {
					return Grid{}, fmt.Errorf("%w: tasks %d and %d at day %d person %d", ErrOverlap, other, pl.Task, d, p)
				}
				g.Cells[p][d] = pl.Task
			}
		}
	}
	return g, nil
}

// Utilization is the share of grid cells in use.
func (g Grid) Utilization() float64 {
	if g.Days == 0 || g.Persons == 0 {
		return 0
	}
	used := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c >= 0 {
				used++
			}
		}
	}
	return float64(used) / float64(g.Days*g.Persons)
}

// SolutionHeader is the one-line shape caption used by every renderer.
func SolutionHeader(shape *model.Shape) string {
	if shape == nil {
		return "no solution"
	}
	return fmt.Sprintf("n=%d,w=%d,h=%d,d=%d", shape.N, shape.W, shape.H, shape.D)
}

// layout resolves the placements and grid of a result.
func layout(result model.Result, catalog *model.Catalog) ([]Placement, Grid, error) {
	if !result.HasSolution() {
		return nil, Grid{}, ErrNoSolution
	}
	placements, err := Placements(result.BestShape, catalog)
	if err != nil {
		return nil, Grid{}, err
	}
	grid, err := BuildGrid(result.BestShape, placements)
	if err != nil {
		return nil, Grid{}, err
	}
	return placements, grid, nil
}

// Package planner sets up unit-based planning problems and sweeps the
// capacity bound to find the smallest crew that can finish them.
package planner

import (
	"fmt"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
)

// basicFootprints are the per-unit task rectangles, width in days by height
// in persons. The first task of a unit is its head.
var basicFootprints = [model.TasksPerUnit]model.Footprint{
	{Width: 5, Height: 6},
	{Width: 2, Height: 3},
	{Width: 6, Height: 3},
	{Width: 5, Height: 3},
}

// BuildCatalog returns the catalog for units identical units on a grid of
// workers persons by maxDays days. Every task has weight 1.
func BuildCatalog(units, workers, maxDays int) (*model.Catalog, error) {
	if units < 1 {
		return nil, fmt.Errorf("%w: need at least one unit, got %d", model.ErrInvalidCatalog, units)
	}
	catalog := &model.Catalog{
		MaxWidth:  maxDays,
		MaxHeight: workers,
		Tasks:     make([]model.Task, 0, units*model.TasksPerUnit),
	}
	for u := 0; u < units; u++ {
		for k, fp := range basicFootprints {
			catalog.Tasks = append(catalog.Tasks, model.Task{
				Label:      model.UnitTaskLabel(u*model.TasksPerUnit + k),
				Weight:     1.0,
				Footprints: []model.Footprint{fp},
			})
		}
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// InitialExpression builds the start expression: per unit the head placed
// before its three members stacked on the capacity axis, and units chained in
// time.
func InitialExpression(units int) engine.Expression {
	expr := make(engine.Expression, 0, units*8)
	for u := 0; u < units; u++ {
		base := u * model.TasksPerUnit
		expr = append(expr,
			model.Operand(base),
			model.Operand(base+1),
			model.Operand(base+2),
			model.Horizontal(),
			model.Operand(base+3),
			model.Horizontal(),
			model.Vertical(),
		)
		if u > 0 {
			expr = append(expr, model.Vertical())
		}
	}
	return expr
}

// DefaultSettings returns the annealing schedule used for unit planning:
// a slow 0.99 cooling from temperature 100 under the task precedence
// constraint.
func DefaultSettings() model.Settings {
	s := model.DefaultSettings()
	s.StartTemperature = 100
	s.AnnealingRate = 0.99
	s.MaxAnnealingCount = 100
	s.IterationsPerTemperature = 100
	s.Constraint = model.ConstraintTaskPrecedence
	return s
}

// ChainExpression places tasks 0..n-1 one after another in time. It is the
// start expression for catalogs without unit structure.
func ChainExpression(tasks int) engine.Expression {
	if tasks < 1 {
		return nil
	}
	expr := make(engine.Expression, 0, 2*tasks-1)
	expr = append(expr, model.Operand(0))
	for t := 1; t < tasks; t++ {
		expr = append(expr, model.Operand(t), model.Vertical())
	}
	return expr
}

// Estimate returns the capacity lower bound of the unit problem over maxDays.
func Estimate(units, maxDays int, slackPercent float64) (model.CapacityEstimate, error) {
	catalog, err := BuildCatalog(units, 1, maxDays)
	if err != nil {
		return model.CapacityEstimate{}, err
	}
	return model.EstimateCapacity(catalog, maxDays, slackPercent), nil
}

package engine

import (
	"fmt"

	"github.com/piwi3910/GridPlan/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the annealing result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.Result
	Solved        bool
	Delay         int     // Raw delay of the best shape
	WeightedDelay float64 // Weighted delay of the best shape
	QueueingDelay int     // Sum of leaf start plus duration
	Makespan      int     // Width of the best shape
	Capacity      int     // Height of the best shape
}

// CompareScenarios runs one simulator per scenario on the same catalog and
// start expression and returns the results in scenario order. Each scenario
// gets its own cache and random source.
func CompareScenarios(scenarios []ComparisonScenario, catalog *model.Catalog, start Expression, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		sim, err := NewSimulator(catalog, scenario.Settings, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to set up scenario %q: %w", scenario.Name, err)
		}
		result, err := sim.Run(start)
		if err != nil {
			return nil, fmt.Errorf("failed to run scenario %q: %w", scenario.Name, err)
		}

		cr := ComparisonResult{Scenario: scenario, Result: result, Solved: result.HasSolution()}
		if cr.Solved {
			cr.Delay = result.BestShape.D
			cr.WeightedDelay = result.BestShape.WD
			cr.QueueingDelay = model.SumQueueingDelay(*result.BestShape, catalog)
			cr.Makespan = result.BestShape.W
			cr.Capacity = result.BestShape.H
		}
		results = append(results, cr)
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: Optimize the other objective
	alt := base
	if base.Objective == model.ObjectiveWeightedDelay {
		alt.Objective = model.ObjectiveDelay
		scenarios = append(scenarios, ComparisonScenario{Name: "Raw Delay", Settings: alt})
	} else {
		alt.Objective = model.ObjectiveWeightedDelay
		scenarios = append(scenarios, ComparisonScenario{Name: "Weighted Delay", Settings: alt})
	}

	// Scenario: Toggle the historical zero-delta acceptance
	legacy := base
	legacy.LegacyZeroDelta = !base.LegacyZeroDelta
	name := "Zero Delta (accept all solvable)"
	if base.LegacyZeroDelta {
		name = "Metropolis Delta"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Settings: legacy})

	// Scenario: Slower cooling
	if base.AnnealingRate < 0.95 {
		slow := base
		slow.AnnealingRate = 0.95
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Cooling %.2f", slow.AnnealingRate),
			Settings: slow,
		})
	}

	// Scenario: Another seed
	reseeded := base
	reseeded.Seed = base.Seed + 1
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Seed %d", reseeded.Seed),
		Settings: reseeded,
	})

	return scenarios
}

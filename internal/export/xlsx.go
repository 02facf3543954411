package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/planner"
)

const (
	sheetSummary    = "Summary"
	sheetPlacements = "Placements"
	sheetGrid       = "Grid"
	sheetTrials     = "Trials"
	sheetScenarios  = "Scenarios"
)

// ExportWorkbook writes a run to an Excel workbook with a summary sheet, a
// placement table and a colored day x person grid.
func ExportWorkbook(path string, result model.Result, catalog *model.Catalog) error {
	placements, grid, err := layout(result, catalog)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeRows(f, sheetSummary, summaryRows(result, catalog, grid)); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetPlacements); err != nil {
		return fmt.Errorf("failed to add placements sheet: %w", err)
	}
	rows := [][]interface{}{{"Task", "Label", "Shape", "Start Day", "First Person", "Days", "Persons", "Finish"}}
	for _, p := range placements {
		rows = append(rows, []interface{}{p.Task, p.Label, p.Shape, p.Day, p.Person, p.Days, p.Persons, p.Finish})
	}
	if err := writeRows(f, sheetPlacements, rows); err != nil {
		return err
	}

	if err := writeGridSheet(f, grid, catalog); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func summaryRows(result model.Result, catalog *model.Catalog, grid Grid) [][]interface{} {
	s := result.Settings
	return [][]interface{}{
		{"Field", "Value"},
		{"Run ID", result.RunID},
		{"Started", result.StartedAt.Format("2006-01-02 15:04:05")},
		{"Elapsed", result.Elapsed.String()},
		{"Solution", SolutionHeader(result.BestShape)},
		{"Best Expression", result.BestKey()},
		{"Minimum Delay", result.MinimumDelay},
		{"Weighted Delay", result.BestShape.WD},
		{"Queueing Delay", model.SumQueueingDelay(*result.BestShape, catalog)},
		{"Utilization", grid.Utilization()},
		{"Spare Capacity", model.TotalSpareArea(model.DetectSpareWindows(result.BestShape, catalog))},
		{"Terminate Reason", result.TerminateReason.String()},
		{"Levels", result.Levels},
		{"Evaluations", result.Evaluations},
		{"Cache Hit Rate", result.CacheHitRate},
		{"Cache Size", result.CacheSize},
		{"Shapes Combined", result.ShapesEvaluated},
		{"Shapes Retained", result.ShapesRetained},
		{"Delay Mean", result.Stats.Mean},
		{"Delay Std Dev", result.Stats.StdDev},
		{"Seed", s.Seed},
		{"Annealing Rate", s.AnnealingRate},
		{"Iterations per Temperature", s.IterationsPerTemperature},
		{"Objective", string(s.Objective)},
		{"Constraint", string(s.Constraint)},
	}
}

// writeGridSheet fills one cell per day and person, person 0 on the bottom row.
func writeGridSheet(f *excelize.File, grid Grid, catalog *model.Catalog) error {
	if _, err := f.NewSheet(sheetGrid); err != nil {
		return fmt.Errorf("failed to add grid sheet: %w", err)
	}

	styles := map[int]int{}
	styleFor := func(task int) (int, error) {
		if id, ok := styles[task]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorFor(task).Hex()}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Font:      &excelize.Font{Size: 8},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to create style: %w", err)
		}
		styles[task] = id
		return id, nil
	}

	for d := 0; d < grid.Days; d++ {
		cell, err := excelize.CoordinatesToCellName(d+2, grid.Persons+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetGrid, cell, d); err != nil {
			return err
		}
	}
	for p := 0; p < grid.Persons; p++ {
		row := grid.Persons - p
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetGrid, cell, p); err != nil {
			return err
		}
		for d, task := range grid.Cells[p] {
			if task < 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(d+2, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetGrid, cell, catalog.Label(task)); err != nil {
				return err
			}
			style, err := styleFor(task)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetGrid, cell, cell, style); err != nil {
				return err
			}
		}
	}

	last, err := excelize.ColumnNumberToName(grid.Days + 1)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheetGrid, "B", last, 4)
}

// ExportSweepWorkbook writes one row per sweep trial.
func ExportSweepWorkbook(path string, sweep planner.SweepResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetTrials); err != nil {
		return fmt.Errorf("failed to name trials sheet: %w", err)
	}
	rows := [][]interface{}{{"Workers", "Trial", "Seed", "Run ID", "Solved", "Minimum Delay", "Solution", "Terminate Reason", "Levels", "Cache Hit Rate"}}
	for _, tr := range sweep.Trials {
		delay := interface{}("")
		if tr.Result.HasSolution() {
			delay = tr.Result.MinimumDelay
		}
		rows = append(rows, []interface{}{
			tr.Workers, tr.Trial, tr.Seed, tr.Result.RunID, tr.Result.HasSolution(), delay,
			SolutionHeader(tr.Result.BestShape), tr.Result.TerminateReason.String(), tr.Result.Levels, tr.Result.CacheHitRate,
		})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Minimum workers", minimumWorkers(sweep)})
	if err := writeRows(f, sheetTrials, rows); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func minimumWorkers(sweep planner.SweepResult) interface{} {
	if !sweep.Solved() {
		return "none"
	}
	return sweep.SolvedWorkers
}

// ExportComparisonWorkbook writes one row per compared scenario.
func ExportComparisonWorkbook(path string, results []engine.ComparisonResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no scenarios to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetScenarios); err != nil {
		return fmt.Errorf("failed to name scenarios sheet: %w", err)
	}
	rows := [][]interface{}{{"Scenario", "Solved", "Delay", "Weighted Delay", "Queueing Delay", "Makespan", "Capacity", "Terminate Reason", "Evaluations"}}
	for _, cr := range results {
		rows = append(rows, []interface{}{
			cr.Scenario.Name, cr.Solved, cr.Delay, cr.WeightedDelay, cr.QueueingDelay, cr.Makespan, cr.Capacity,
			cr.Result.TerminateReason.String(), cr.Result.Evaluations,
		})
	}
	if err := writeRows(f, sheetScenarios, rows); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// writeRows writes a table starting at A1 with a bold header row.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, bold)
}

package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/GridPlan/internal/model"
)

// dxfCell is the drawing size of one day x person cell.
const dxfCell = 10.0

var dxfColors = []color.ColorNumber{
	color.Green,
	color.Blue,
	color.Yellow,
	color.Magenta,
	color.Cyan,
	color.Red,
}

// ExportDXF writes the best shape as a DXF drawing: one layer per task with
// its rectangle and label, a GRID layer with cell lines and a TEXT layer with
// the solution header. Day runs along X and person along Y.
func ExportDXF(path string, result model.Result, catalog *model.Catalog) error {
	placements, grid, err := layout(result, catalog)
	if err != nil {
		return err
	}

	d := dxf.NewDrawing()

	if _, err := d.AddLayer("GRID", color.ColorNumber(8), dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add grid layer: %w", err)
	}
	w := float64(grid.Days) * dxfCell
	h := float64(grid.Persons) * dxfCell
	for day := 0; day <= grid.Days; day++ {
		x := float64(day) * dxfCell
		if _, err := d.Line(x, 0, 0, x, h, 0); err != nil {
			return fmt.Errorf("failed to draw grid: %w", err)
		}
	}
	for person := 0; person <= grid.Persons; person++ {
		y := float64(person) * dxfCell
		if _, err := d.Line(0, y, 0, w, y, 0); err != nil {
			return fmt.Errorf("failed to draw grid: %w", err)
		}
	}

	for _, p := range placements {
		layer := fmt.Sprintf("TASK_%d", p.Task)
		if _, err := d.AddLayer(layer, dxfColors[p.Task%len(dxfColors)], dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", layer, err)
		}
		x0 := float64(p.Day) * dxfCell
		y0 := float64(p.Person) * dxfCell
		x1 := x0 + float64(p.Days)*dxfCell
		y1 := y0 + float64(p.Persons)*dxfCell
		if err := dxfRect(d, x0, y0, x1, y1); err != nil {
			return fmt.Errorf("failed to draw task %s: %w", p.Label, err)
		}
		if _, err := d.Text(p.Label, (x0+x1)/2-dxfCell/2, (y0+y1)/2, 0, dxfCell/2); err != nil {
			return fmt.Errorf("failed to label task %s: %w", p.Label, err)
		}
	}

	if _, err := d.AddLayer("TEXT", color.White, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add text layer: %w", err)
	}
	if _, err := d.Text("solution info: "+SolutionHeader(result.BestShape), 0, h+dxfCell/2, 0, dxfCell/2); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return d.SaveAs(path)
}

func dxfRect(d *drawing.Drawing, x0, y0, x1, y1 float64) error {
	corners := [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	for i := 0; i+1 < len(corners); i++ {
		a, b := corners[i], corners[i+1]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}

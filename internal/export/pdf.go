package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/GridPlan/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	axisMargin   = 8.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF writes the schedule chart of the best shape on the first page,
// days left to right and persons bottom to top, followed by a run summary.
func ExportPDF(path string, result model.Result, catalog *model.Catalog) error {
	placements, grid, err := layout(result, catalog)
	if err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderGridPage(pdf, result, placements, grid)

	pdf.AddPage()
	renderSummaryPage(pdf, result, catalog, grid)

	return pdf.OutputFileAndClose(path)
}

// renderGridPage draws the schedule grid on the current PDF page.
func renderGridPage(pdf *fpdf.Fpdf, result model.Result, placements []Placement, grid Grid) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Schedule: %s", SolutionHeader(result.BestShape))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Tasks: %d | Days: %d | Persons: %d | Utilization: %.1f%% | Expression: %s",
		len(placements), grid.Days, grid.Persons, grid.Utilization()*100, result.BestKey())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight - axisMargin
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight - axisMargin

	// One cell per day and person, kept square
	cell := math.Min(drawWidth/float64(grid.Days), drawHeight/float64(grid.Persons))
	canvasW := float64(grid.Days) * cell
	canvasH := float64(grid.Persons) * cell

	offsetX := marginLeft + axisMargin + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Person 0 sits on the bottom row
	cellY := func(person int) float64 {
		return offsetY + canvasH - float64(person+1)*cell
	}

	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for _, p := range placements {
		col := colorFor(p.Task)
		px := offsetX + float64(p.Day)*cell
		py := cellY(p.Person + p.Persons - 1)
		pw := float64(p.Days) * cell
		ph := float64(p.Persons) * cell

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 6 && ph > 4 {
			pdf.SetFont("Helvetica", "B", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			labelW := pdf.GetStringWidth(p.Label)
			if labelW < pw-1 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-2)
				pdf.CellFormat(labelW, 4, p.Label, "", 0, "C", false, 0, "")
			}
		}
	}

	drawGridLines(pdf, grid, cell, offsetX, offsetY, canvasW, canvasH)
	drawAxes(pdf, grid, cell, offsetX, offsetY, canvasH)
	drawTaskLegend(pdf, placements, offsetY+canvasH+axisMargin+2)
}

// drawGridLines draws dashed day separators over the chart.
func drawGridLines(pdf *fpdf.Fpdf, grid Grid, cell, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.1)
	pdf.SetDashPattern([]float64{0.8, 0.8}, 0)
	for d := 1; d < grid.Days; d++ {
		x := offsetX + float64(d)*cell
		pdf.Line(x, offsetY, x, offsetY+canvasH)
	}
	pdf.Line(offsetX, offsetY, offsetX+canvasW, offsetY)
	pdf.SetDashPattern([]float64{}, 0)
}

// drawAxes labels days below and persons to the left of the chart.
func drawAxes(pdf *fpdf.Fpdf, grid Grid, cell, offsetX, offsetY, canvasH float64) {
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(80, 80, 80)

	step := max(1, int(math.Ceil(4/cell)))
	for d := 0; d < grid.Days; d += step {
		label := fmt.Sprintf("%d", d)
		w := pdf.GetStringWidth(label)
		pdf.SetXY(offsetX+float64(d)*cell+(cell-w)/2, offsetY+canvasH+0.5)
		pdf.CellFormat(w, 3, label, "", 0, "C", false, 0, "")
	}
	for p := 0; p < grid.Persons; p += step {
		label := fmt.Sprintf("%d", p)
		w := pdf.GetStringWidth(label)
		pdf.SetXY(offsetX-w-1, offsetY+canvasH-float64(p+1)*cell+(cell-3)/2)
		pdf.CellFormat(w, 3, label, "", 0, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(offsetX, offsetY+canvasH+3.5)
	pdf.CellFormat(20, 4, "Days", "", 0, "L", false, 0, "")

	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-axisMargin+1, offsetY+canvasH/2)
	pdf.SetXY(offsetX-axisMargin+1, offsetY+canvasH/2-2)
	pdf.CellFormat(20, 4, "Persons", "", 0, "L", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawTaskLegend renders a compact legend of placed tasks at the bottom of the page.
func drawTaskLegend(pdf *fpdf.Fpdf, placements []Placement, startY float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Tasks placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, p := range placements {
		col := colorFor(p.Task)
		label := fmt.Sprintf("%s (%dx%d @ day %d)", p.Label, p.Days, p.Persons, p.Day)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws run statistics and the annealing settings.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.Result, catalog *model.Catalog, grid Grid) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Annealing Run Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	shape := result.BestShape

	y = drawKeyValues(pdf, "Result", y, []keyValue{
		{"Run ID", result.RunID},
		{"Terminate Reason", result.TerminateReason.String()},
		{"Minimum Delay", fmt.Sprintf("%g", result.MinimumDelay)},
		{"Weighted Delay", fmt.Sprintf("%g", shape.WD)},
		{"Queueing Delay", fmt.Sprintf("%d", model.SumQueueingDelay(*shape, catalog))},
		{"Makespan / Crew", fmt.Sprintf("%d days / %d persons", grid.Days, grid.Persons)},
		{"Grid Bounds", fmt.Sprintf("%d days / %d persons", catalog.MaxWidth, catalog.MaxHeight)},
		{"Levels / Evaluations", fmt.Sprintf("%d / %d", result.Levels, result.Evaluations)},
		{"Cache Hit Rate / Size", fmt.Sprintf("%.3f / %d", result.CacheHitRate, result.CacheSize)},
		{"Shapes Combined / Retained", fmt.Sprintf("%d / %d", result.ShapesEvaluated, result.ShapesRetained)},
		{"Delay Mean / Std Dev", fmt.Sprintf("%.2f / %.2f", result.Stats.Mean, result.Stats.StdDev)},
		{"Delay Min / Max", fmt.Sprintf("%g / %g", result.Stats.Min, result.Stats.Max)},
	})

	y += 5
	s := result.Settings
	drawKeyValues(pdf, "Annealing Settings", y, []keyValue{
		{"Seed", fmt.Sprintf("%d", s.Seed)},
		{"Iterations per Temperature", fmt.Sprintf("%d", s.IterationsPerTemperature)},
		{"Annealing Rate", fmt.Sprintf("%.3f", s.AnnealingRate)},
		{"Max Annealing Count", fmt.Sprintf("%d", s.MaxAnnealingCount)},
		{"Final Temperature", fmt.Sprintf("%.4g", result.FinalTemperature)},
		{"Objective / Constraint", fmt.Sprintf("%s / %s", s.Objective, s.Constraint)},
	})

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by GridPlan - slicing-tree schedule planner", "", 0, "C", false, 0, "")
}

type keyValue struct {
	label string
	value string
}

// drawKeyValues renders a titled two-column list and returns the next y.
func drawKeyValues(pdf *fpdf.Fpdf, title string, y float64, items []keyValue) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}
	return y
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 20:
		return 9
	case minDim > 10:
		return 7
	default:
		return 5
	}
}

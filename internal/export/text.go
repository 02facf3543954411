package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/piwi3910/GridPlan/internal/engine"
	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/planner"
)

// glyphs mark task cells in the terminal grid, cycling for large catalogs.
const glyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func glyph(task int) byte {
	return glyphs[task%len(glyphs)]
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF99")).Bold(true)
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0055")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
)

// TextOptions controls terminal rendering.
type TextOptions struct {
	Color bool // ANSI styling via lipgloss; plain text otherwise
}

func (o TextOptions) render(style lipgloss.Style, s string) string {
	if !o.Color {
		return s
	}
	return style.Render(s)
}

// RenderGrid draws the best shape as a character grid, person 0 on the
// bottom row, followed by a legend of the tasks.
func RenderGrid(w io.Writer, result model.Result, catalog *model.Catalog, opts TextOptions) error {
	placements, grid, err := layout(result, catalog)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(opts.render(titleStyle, "solution info: "+SolutionHeader(result.BestShape)))
	b.WriteByte('\n')

	for p := grid.Persons - 1; p >= 0; p-- {
		fmt.Fprintf(&b, "%3d |", p)
		for _, task := range grid.Cells[p] {
			if task < 0 {
				b.WriteString(opts.render(emptyStyle, "."))
				continue
			}
			cell := string(glyph(task))
			if opts.Color {
				col := colorFor(task)
				cell = lipgloss.NewStyle().
					Background(lipgloss.Color(col.Hex())).
					Foreground(lipgloss.Color("#000000")).
					Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	b.WriteString("    +" + strings.Repeat("-", grid.Days) + "\n")
	b.WriteString("     ")
	for d := 0; d < grid.Days; d++ {
		fmt.Fprintf(&b, "%d", d%10)
	}
	b.WriteByte('\n')

	for _, p := range placements {
		fmt.Fprintf(&b, "%c %-8s days %d-%d persons %d-%d finish %d\n",
			glyph(p.Task), p.Label, p.Day, p.Day+p.Days-1, p.Person, p.Person+p.Persons-1, p.Finish)
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// WriteSummary prints the run outcome. A result without a solution prints
// the retry hint instead of shape details.
func WriteSummary(w io.Writer, result model.Result, catalog *model.Catalog, opts TextOptions) error {
	var b strings.Builder
	line := func(label string, value interface{}) {
		fmt.Fprintf(&b, "%s %s\n", opts.render(labelStyle, fmt.Sprintf("%-18s", label+":")), opts.render(valueStyle, fmt.Sprint(value)))
	}

	b.WriteString(opts.render(titleStyle, "Annealing run "+result.RunID))
	b.WriteByte('\n')
	line("Terminate reason", result.TerminateReason)
	line("Levels", result.Levels)
	line("Evaluations", result.Evaluations)
	line("Final temperature", fmt.Sprintf("%.4g", result.FinalTemperature))
	line("Cache", fmt.Sprintf("%d entries, hit rate %.3f", result.CacheSize, result.CacheHitRate))
	line("Shapes", fmt.Sprintf("%d combined, %d retained", result.ShapesEvaluated, result.ShapesRetained))
	line("Elapsed", result.Elapsed)

	if !result.HasSolution() {
		b.WriteString(opts.render(dangerStyle, "no solution found; increase the iteration budget and retry"))
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}

	shape := result.BestShape
	line("Best expression", result.BestKey())
	line("Solution", SolutionHeader(shape))
	line("Minimum delay", result.MinimumDelay)
	line("Weighted delay", shape.WD)
	line("Queueing delay", model.SumQueueingDelay(*shape, catalog))
	spare := model.DetectSpareWindows(shape, catalog)
	line("Spare capacity", fmt.Sprintf("%d person-days in %d windows", model.TotalSpareArea(spare), len(spare)))
	line("Packing", shape.Summary())
	line("Delay stats", fmt.Sprintf("mean %.2f std %.2f min %g max %g over %d",
		result.Stats.Mean, result.Stats.StdDev, result.Stats.Min, result.Stats.Max, result.Stats.Samples))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSweep prints one line per sweep trial and the minimum crew found.
func WriteSweep(w io.Writer, sweep planner.SweepResult, opts TextOptions) error {
	var b strings.Builder
	b.WriteString(opts.render(titleStyle, fmt.Sprintf("Capacity sweep: %d units, %d days", sweep.Config.Units, sweep.Config.MaxDays)))
	b.WriteByte('\n')
	for _, tr := range sweep.Trials {
		status := opts.render(dangerStyle, "no solution")
		if tr.Result.HasSolution() {
			status = opts.render(valueStyle, fmt.Sprintf("delay %g %s", tr.Result.MinimumDelay, SolutionHeader(tr.Result.BestShape)))
		}
		fmt.Fprintf(&b, "workers=%-3d trial=%d seed=%d %s\n", tr.Workers, tr.Trial, tr.Seed, status)
	}
	if sweep.Solved() {
		b.WriteString(opts.render(titleStyle, fmt.Sprintf("the minimum workers = %d", sweep.SolvedWorkers)))
	} else {
		b.WriteString(opts.render(dangerStyle, "no worker count produced a solution"))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteComparison prints a table of compared scenarios.
func WriteComparison(w io.Writer, results []engine.ComparisonResult, opts TextOptions) error {
	var b strings.Builder
	header := fmt.Sprintf("%-34s %6s %8s %10s %9s %8s %8s", "Scenario", "Solved", "Delay", "Weighted", "Queueing", "Makespan", "Capacity")
	b.WriteString(opts.render(titleStyle, header))
	b.WriteByte('\n')
	for _, cr := range results {
		if !cr.Solved {
			fmt.Fprintf(&b, "%-34s %6s\n", cr.Scenario.Name, opts.render(dangerStyle, "no"))
			continue
		}
		fmt.Fprintf(&b, "%-34s %6s %8d %10.2f %9d %8d %8d\n",
			cr.Scenario.Name, "yes", cr.Delay, cr.WeightedDelay, cr.QueueingDelay, cr.Makespan, cr.Capacity)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

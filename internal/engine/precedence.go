package engine

import (
	"sort"

	"github.com/piwi3910/GridPlan/internal/model"
)

type span struct {
	start, end int
}

// CheckTaskPrecedence verifies the unit ordering rules on a packed shape:
// no unit head starts while another head is running, and every other task of
// a unit starts after its head completes. A nil shape never satisfies them.
func CheckTaskPrecedence(shape *model.Shape, catalog *model.Catalog) bool {
	if shape == nil {
		return false
	}

	spans := make(map[int]span, len(shape.IDs))
	var heads []int
	for i, id := range shape.IDs {
		fp, ok := catalog.Footprint(id)
		if !ok {
			return false
		}
		spans[id.Task] = span{start: shape.S[i], end: shape.S[i] + fp.Width}
		if id.Task%model.TasksPerUnit == 0 {
			heads = append(heads, id.Task)
		}
	}
	sort.Ints(heads)

	// Heads of different units must not overlap
	for _, h := range heads {
		for _, other := range heads {
			if h == other {
				continue
			}
			if s := spans[other].start; s >= spans[h].start && s < spans[h].end {
				return false
			}
		}
	}

	// The head completes before the rest of its unit starts
	for task, sp := range spans {
		head := task - task%model.TasksPerUnit
		if head == task {
			continue
		}
		if hs, ok := spans[head]; ok && sp.start < hs.end {
			return false
		}
	}
	return true
}

package model

import (
	"errors"
	"fmt"
)

// TasksPerUnit is the number of consecutive task ids forming one unit. The
// first task of a unit is its head.
const TasksPerUnit = 4

// ErrInvalidCatalog is returned by Catalog.Validate.
var ErrInvalidCatalog = errors.New("invalid shape catalog")

// Footprint is one admissible rectangle for a task: Width time slots by
// Height capacity units. Delay is the finish time of the task when it starts
// at 0. An unset (zero) Delay means Width, so a zero finish time cannot be
// declared; Validate rejects negative delays.
type Footprint struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	Delay  int `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// EffectiveDelay returns Delay, or Width when Delay is unset.
func (fp Footprint) EffectiveDelay() int {
	if fp.Delay == 0 {
		return fp.Width
	}
	return fp.Delay
}

// Task is a schedulable unit of work with its alternative footprints.
type Task struct {
	Label      string      `json:"label,omitempty" yaml:"label,omitempty"`
	Weight     float64     `json:"weight" yaml:"weight"`
	Footprints []Footprint `json:"footprints" yaml:"footprints"`
}

// StartLength is one allowed (start, length) placement on the time axis.
type StartLength struct {
	Start  int `json:"start" yaml:"start"`
	Length int `json:"length" yaml:"length"`
}

// Catalog maps task ids (the slice index) to footprints and carries the grid bounds.
type Catalog struct {
	MaxWidth      int           `json:"max_width" yaml:"max_width"`   // Time bound
	MaxHeight     int           `json:"max_height" yaml:"max_height"` // Capacity bound
	Tasks         []Task        `json:"tasks" yaml:"tasks"`
	AllowedStarts []StartLength `json:"allowed_starts,omitempty" yaml:"allowed_starts,omitempty"`
}

// NumTasks returns the number of tasks in the catalog.
func (c *Catalog) NumTasks() int {
	return len(c.Tasks)
}

// Validate checks bounds, weights and footprints.
func (c *Catalog) Validate() error {
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("%w: bounds must be positive (width %d, height %d)", ErrInvalidCatalog, c.MaxWidth, c.MaxHeight)
	}
	if len(c.Tasks) == 0 {
		return fmt.Errorf("%w: no tasks", ErrInvalidCatalog)
	}
	for i, t := range c.Tasks {
		if len(t.Footprints) == 0 {
			return fmt.Errorf("%w: task %d has no footprints", ErrInvalidCatalog, i)
		}
		if t.Weight < 0 {
			return fmt.Errorf("%w: task %d has negative weight", ErrInvalidCatalog, i)
		}
		for j, fp := range t.Footprints {
			if fp.Width <= 0 || fp.Height <= 0 || fp.Delay < 0 {
				return fmt.Errorf("%w: task %d footprint %d must have positive size", ErrInvalidCatalog, i, j)
			}
		}
	}
	return nil
}

// HasTask reports whether task is a valid id.
func (c *Catalog) HasTask(task int) bool {
	return task >= 0 && task < len(c.Tasks)
}

// LeafShapes returns the single-task shape list of a task in footprint order.
func (c *Catalog) LeafShapes(task int) []Shape {
	if !c.HasTask(task) {
		return nil
	}
	t := c.Tasks[task]
	shapes := make([]Shape, len(t.Footprints))
	for i, fp := range t.Footprints {
		shapes[i] = Shape{
			N:   1,
			W:   fp.Width,
			H:   fp.Height,
			D:   fp.EffectiveDelay(),
			WD:  t.Weight * float64(fp.Width),
			S:   []int{0},
			F:   []int{0},
			IDs: []ShapeID{{Task: task, Index: i}},
		}
	}
	return shapes
}

// UnitTaskLabel names a task "unit-position", both 1-based, for catalogs
// laid out TasksPerUnit tasks per unit.
func UnitTaskLabel(task int) string {
	return fmt.Sprintf("%d-%d", task/TasksPerUnit+1, task%TasksPerUnit+1)
}

// Label returns the task's label, falling back to its unit-position name.
func (c *Catalog) Label(task int) string {
	if c.HasTask(task) && c.Tasks[task].Label != "" {
		return c.Tasks[task].Label
	}
	return UnitTaskLabel(task)
}

// Footprint looks up the rectangle behind a shape id.
func (c *Catalog) Footprint(id ShapeID) (Footprint, bool) {
	if !c.HasTask(id.Task) {
		return Footprint{}, false
	}
	fps := c.Tasks[id.Task].Footprints
	if id.Index < 0 || id.Index >= len(fps) {
		return Footprint{}, false
	}
	return fps[id.Index], true
}

// Weight returns a task's weight, 0 for unknown tasks.
func (c *Catalog) Weight(task int) float64 {
	if !c.HasTask(task) {
		return 0
	}
	return c.Tasks[task].Weight
}

// Allows reports whether a leaf starting at start and lasting length slots is
// permitted. An empty allow-list permits everything.
func (c *Catalog) Allows(start, length int) bool {
	if len(c.AllowedStarts) == 0 {
		return true
	}
	for _, sl := range c.AllowedStarts {
		if sl.Start == start && sl.Length == length {
			return true
		}
	}
	return false
}

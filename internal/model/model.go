package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotOperator is returned when an operator-only operation is applied to an operand.
var ErrNotOperator = errors.New("symbol is not an operator")

// Tag classifies a symbol of a slicing expression.
type Tag int

const (
	TagOperand    Tag = iota // Leaf: a task
	TagHorizontal            // Stack children along the capacity axis ("F")
	TagVertical              // Place children one after another in time ("T")
)

func (t Tag) String() string {
	switch t {
	case TagHorizontal:
		return "F"
	case TagVertical:
		return "T"
	default:
		return "operand"
	}
}

// IsOperator reports whether the tag combines two subtrees.
func (t Tag) IsOperator() bool {
	return t == TagHorizontal || t == TagVertical
}

// Invert swaps horizontal and vertical combination.
func (t Tag) Invert() (Tag, error) {
	switch t {
	case TagHorizontal:
		return TagVertical, nil
	case TagVertical:
		return TagHorizontal, nil
	default:
		return t, fmt.Errorf("invert %s: %w", t, ErrNotOperator)
	}
}

// Symbol is one element of a slicing expression: a task operand or an operator.
type Symbol struct {
	Tag  Tag `json:"tag" yaml:"tag"`
	Task int `json:"task,omitempty" yaml:"task,omitempty"` // Only meaningful for operands
}

// Operand returns the leaf symbol for a task.
func Operand(task int) Symbol {
	return Symbol{Tag: TagOperand, Task: task}
}

// Horizontal returns the "F" operator symbol.
func Horizontal() Symbol {
	return Symbol{Tag: TagHorizontal}
}

// Vertical returns the "T" operator symbol.
func Vertical() Symbol {
	return Symbol{Tag: TagVertical}
}

// IsOperand reports whether the symbol is a task leaf.
func (s Symbol) IsOperand() bool {
	return s.Tag == TagOperand
}

// IsOperator reports whether the symbol is F or T.
func (s Symbol) IsOperator() bool {
	return s.Tag.IsOperator()
}

// SameTag compares two symbols the way the normalization rule does: operators
// match by tag, operands never match an operator.
func (s Symbol) SameTag(o Symbol) bool {
	if s.IsOperand() || o.IsOperand() {
		return s == o
	}
	return s.Tag == o.Tag
}

func (s Symbol) String() string {
	if s.IsOperand() {
		return strconv.Itoa(s.Task)
	}
	return s.Tag.String()
}

// ParseSymbol reads "F", "T" or a non-negative task id.
func ParseSymbol(text string) (Symbol, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "F", "H":
		return Horizontal(), nil
	case "T", "V":
		return Vertical(), nil
	}
	task, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || task < 0 {
		return Symbol{}, fmt.Errorf("invalid symbol %q", text)
	}
	return Operand(task), nil
}

// ShapeID identifies one footprint of one task in the catalog.
type ShapeID struct {
	Task  int `json:"task" yaml:"task"`
	Index int `json:"index" yaml:"index"`
}

func (id ShapeID) String() string {
	return fmt.Sprintf("%d-%d", id.Task, id.Index)
}

// Shape is one feasible packing of a subtree's tasks on the grid.
// W is the extent along the time axis, H along the capacity axis. S holds each
// leaf's start on the time axis and F its start on the capacity axis.
type Shape struct {
	N   int       `json:"n"`
	W   int       `json:"w"`
	H   int       `json:"h"`
	D   int       `json:"d"`  // Sum of leaf finish times
	WD  float64   `json:"wd"` // Weighted sum of leaf finish times
	S   []int     `json:"s"`
	F   []int     `json:"f"`
	IDs []ShapeID `json:"id"`
}

// NewShape builds a shape and checks that the per-leaf lists agree with n.
func NewShape(n, w, h, d int, wd float64, s, f []int, ids []ShapeID) (Shape, error) {
	if len(s) != n || len(f) != n || len(ids) != n {
		return Shape{}, fmt.Errorf("shape with n=%d has %d/%d/%d leaf entries", n, len(s), len(f), len(ids))
	}
	return Shape{N: n, W: w, H: h, D: d, WD: wd, S: s, F: f, IDs: ids}, nil
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	cp := s
	cp.S = append([]int(nil), s.S...)
	cp.F = append([]int(nil), s.F...)
	cp.IDs = append([]ShapeID(nil), s.IDs...)
	return cp
}

// Cost returns the value minimized under the given objective.
func (s Shape) Cost(objective Objective) float64 {
	if objective == ObjectiveWeightedDelay {
		return s.WD
	}
	return float64(s.D)
}

// Dominates reports whether o is at least as wide and at least as tall as s,
// which makes o redundant next to s on the Pareto front.
func (s Shape) Dominates(o Shape) bool {
	return o.W >= s.W && o.H >= s.H
}

// Summary packs the shape into one log-friendly line.
func (s *Shape) Summary() string {
	if s == nil {
		return "no-solution"
	}
	ids := make([]string, len(s.IDs))
	for i, id := range s.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("n%dw%dh%dd%dwd%gs:%vf:%vid:%s", s.N, s.W, s.H, s.D, s.WD, s.S, s.F, strings.Join(ids, ","))
}

// SumQueueingDelay adds up start plus duration of every leaf of a shape.
func SumQueueingDelay(s Shape, catalog *Catalog) int {
	total := 0
	for i, id := range s.IDs {
		fp, ok := catalog.Footprint(id)
		if !ok {
			continue
		}
		total += s.S[i] + fp.Width
	}
	return total
}

package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/GridPlan/internal/model"
)

// combine merges every (left, right) pair under the node's tag and drops
// shapes that leave the catalog's grid bounds.
func combine(tag model.Tag, left, right []model.Shape, catalog *model.Catalog) ([]model.Shape, error) {
	shapes := make([]model.Shape, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			var (
				merged model.Shape
				err    error
			)
			switch tag {
			case model.TagHorizontal:
				merged, err = combineHorizontal(l, r)
			case model.TagVertical:
				merged, err = combineVertical(l, r)
			default:
				return nil, fmt.Errorf("combine with %s: %w", tag, model.ErrNotOperator)
			}
			if err != nil {
				return nil, err
			}
			if merged.W > catalog.MaxWidth || merged.H > catalog.MaxHeight {
				continue
			}
			merged.WD = weightedDelay(merged, catalog)
			shapes = append(shapes, merged)
		}
	}
	return shapes, nil
}

// combineHorizontal stacks r above l on the capacity axis. Both sides must
// start at the same time.
func combineHorizontal(l, r model.Shape) (model.Shape, error) {
	if minOf(l.S) != minOf(r.S) {
		return model.Shape{}, fmt.Errorf("%w: horizontal merge of children starting at %d and %d",
			ErrInvariant, minOf(l.S), minOf(r.S))
	}
	offset := minOf(l.F) + l.H
	f := make([]int, 0, l.N+r.N)
	f = append(f, l.F...)
	for _, y := range r.F {
		f = append(f, y+offset)
	}
	return model.NewShape(
		l.N+r.N,
		max(l.W, r.W),
		l.H+r.H,
		l.D+r.D,
		0,
		concat(l.S, r.S),
		f,
		append(append([]model.ShapeID(nil), l.IDs...), r.IDs...),
	)
}

// combineVertical places r after l on the time axis. Every task of r waits
// the full width of l.
func combineVertical(l, r model.Shape) (model.Shape, error) {
	if minOf(l.F) != minOf(r.F) {
		return model.Shape{}, fmt.Errorf("%w: vertical merge of children based at %d and %d",
			ErrInvariant, minOf(l.F), minOf(r.F))
	}
	offset := minOf(l.S) + l.W
	s := make([]int, 0, l.N+r.N)
	s = append(s, l.S...)
	for _, x := range r.S {
		s = append(s, x+offset)
	}
	return model.NewShape(
		l.N+r.N,
		l.W+r.W,
		max(l.H, r.H),
		l.D+l.W*r.N+r.D,
		0,
		s,
		concat(l.F, r.F),
		append(append([]model.ShapeID(nil), l.IDs...), r.IDs...),
	)
}

// weightedDelay sums weight * finish time over the leaves of a shape.
func weightedDelay(s model.Shape, catalog *model.Catalog) float64 {
	total := 0.0
	for i, id := range s.IDs {
		fp, ok := catalog.Footprint(id)
		if !ok {
			continue
		}
		total += catalog.Weight(id.Task) * float64(s.S[i]+fp.Width)
	}
	return total
}

// filterAllowed keeps the shapes whose every leaf placement is on the
// catalog's start/length allow-list.
func filterAllowed(shapes []model.Shape, catalog *model.Catalog) []model.Shape {
	if len(catalog.AllowedStarts) == 0 {
		return shapes
	}
	kept := make([]model.Shape, 0, len(shapes))
	for _, s := range shapes {
		allowed := true
		for i, id := range s.IDs {
			fp, ok := catalog.Footprint(id)
			if !ok || !catalog.Allows(s.S[i], fp.Width) {
				allowed = false
				break
			}
		}
		if allowed {
			kept = append(kept, s)
		}
	}
	return kept
}

// Prune sorts shapes by the objective and removes every shape that is at
// least as wide and as tall as a better one before it. The input is not modified.
func Prune(shapes []model.Shape, objective model.Objective) []model.Shape {
	sorted := append([]model.Shape(nil), shapes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cost(objective) < sorted[j].Cost(objective)
	})

	kept := make([]model.Shape, 0, len(sorted))
	for _, candidate := range sorted {
		dominated := false
		for _, k := range kept {
			if k.Dominates(candidate) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func minOf(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = min(m, x)
	}
	return m
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

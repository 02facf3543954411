package model

import "sort"

// SpareWindow is a rectangle of the grid a packing leaves unused, in days by
// persons.
type SpareWindow struct {
	Day     int `json:"day"`     // First free day
	Person  int `json:"person"`  // First free person
	Days    int `json:"days"`    // Extent along the time axis
	Persons int `json:"persons"` // Extent along the capacity axis
}

// Area returns the spare capacity of the window in person-days.
func (w SpareWindow) Area() int {
	return w.Days * w.Persons
}

// DetectSpareWindows finds the strips of the grid left over by a packing: the
// days after its makespan across the whole crew, and the persons above its
// height during the makespan. Windows are sorted by area, largest first. A nil
// shape leaves the whole grid spare.
func DetectSpareWindows(shape *Shape, catalog *Catalog) []SpareWindow {
	if shape == nil {
		if catalog.MaxWidth <= 0 || catalog.MaxHeight <= 0 {
			return nil
		}
		return []SpareWindow{{Days: catalog.MaxWidth, Persons: catalog.MaxHeight}}
	}

	var windows []SpareWindow

	// Right strip: every person after the last finishing task
	if days := catalog.MaxWidth - shape.W; days > 0 && catalog.MaxHeight > 0 {
		windows = append(windows, SpareWindow{
			Day:     shape.W,
			Person:  0,
			Days:    days,
			Persons: catalog.MaxHeight,
		})
	}

	// Top strip: persons above the packing, only up to the makespan to avoid
	// overlap with the right strip
	if persons := catalog.MaxHeight - shape.H; persons > 0 && shape.W > 0 {
		windows = append(windows, SpareWindow{
			Day:     0,
			Person:  shape.H,
			Days:    min(shape.W, catalog.MaxWidth),
			Persons: persons,
		})
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Area() > windows[j].Area()
	})
	return windows
}

// TotalSpareArea returns the person-days of all windows.
func TotalSpareArea(windows []SpareWindow) int {
	total := 0
	for _, w := range windows {
		total += w.Area()
	}
	return total
}

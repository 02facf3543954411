package model

import "math"

// CapacityEstimate is an area lower bound on the crew needed to finish a
// catalog within a number of days.
type CapacityEstimate struct {
	TotalWork          int     `json:"total_work"`           // Person-days, smallest footprint of every task
	TallestTask        int     `json:"tallest_task"`         // Largest per-task minimum height
	LongestTask        int     `json:"longest_task"`         // Largest per-task minimum width
	Days               int     `json:"days"`                 // Time bound used
	WorkersNeededExact float64 `json:"workers_needed_exact"` // TotalWork / Days
	WorkersNeededMin   int     `json:"workers_needed_min"`   // Ceiling of exact, at least TallestTask
	WorkersWithSlack   int     `json:"workers_with_slack"`   // Recommended crew including slack
	SlackPercent       float64 `json:"slack_percent"`        // Slack applied (e.g., 20 for 20%)
	FitsInDays         bool    `json:"fits_in_days"`         // Every task has a footprint no wider than Days
}

// EstimateCapacity computes how many persons a catalog needs over days.
// No packing can use fewer than WorkersNeededMin; slackPercent accounts for
// the grid cells a slicing packing leaves empty.
func EstimateCapacity(c *Catalog, days int, slackPercent float64) CapacityEstimate {
	est := CapacityEstimate{Days: days, SlackPercent: slackPercent, FitsInDays: true}
	for _, t := range c.Tasks {
		if len(t.Footprints) == 0 {
			continue
		}
		area, height, width := math.MaxInt, math.MaxInt, math.MaxInt
		for _, fp := range t.Footprints {
			area = min(area, fp.Width*fp.Height)
			height = min(height, fp.Height)
			width = min(width, fp.Width)
		}
		est.TotalWork += area
		est.TallestTask = max(est.TallestTask, height)
		est.LongestTask = max(est.LongestTask, width)
		if width > days {
			est.FitsInDays = false
		}
	}

	if days <= 0 {
		est.FitsInDays = false
		return est
	}

	exact := float64(est.TotalWork) / float64(days)
	minWorkers := max(int(math.Ceil(exact)), est.TallestTask)

	slackFactor := 1.0 + (slackPercent / 100.0)
	withSlack := max(int(math.Ceil(exact*slackFactor)), minWorkers)

	est.WorkersNeededExact = exact
	est.WorkersNeededMin = minWorkers
	est.WorkersWithSlack = withSlack
	return est
}

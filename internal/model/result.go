package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// TerminateReason records which rule stopped an annealing run.
type TerminateReason int

const (
	TerminateNone TerminateReason = iota // The run never reached a termination check
	NeighborsRejectRateTooHigh
	FrozenTemperatureReached
	MaxAnnealCountReached
	TooHighHitCacheRate
)

var terminateNames = map[TerminateReason]string{
	TerminateNone:              "none",
	NeighborsRejectRateTooHigh: "neighbors_reject_rate_too_high",
	FrozenTemperatureReached:   "frozen_temperature_reached",
	MaxAnnealCountReached:      "max_anneal_count_reached",
	TooHighHitCacheRate:        "too_high_hit_cache_rate",
}

func (r TerminateReason) String() string {
	if name, ok := terminateNames[r]; ok {
		return name
	}
	return fmt.Sprintf("terminate(%d)", int(r))
}

func (r TerminateReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *TerminateReason) UnmarshalText(text []byte) error {
	for reason, name := range terminateNames {
		if name == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown terminate reason %q", text)
}

// DelayStats summarizes the delays of every solvable neighbor seen during a run.
type DelayStats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"` // Population standard deviation
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// NewDelayStats computes the statistics of a sample set; all zero when empty.
func NewDelayStats(samples []float64) DelayStats {
	if len(samples) == 0 {
		return DelayStats{}
	}
	st := DelayStats{Samples: len(samples), Min: samples[0], Max: samples[0]}
	sum := 0.0
	for _, v := range samples {
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	st.Mean = sum / float64(len(samples))
	variance := 0.0
	for _, v := range samples {
		d := v - st.Mean
		variance += d * d
	}
	st.StdDev = math.Sqrt(variance / float64(len(samples)))
	return st
}

// Result is the outcome of one annealing run.
type Result struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Settings  Settings      `json:"settings"`

	BestExpression []Symbol `json:"best_expression,omitempty"` // nil when no solution was found
	BestShape      *Shape   `json:"best_shape,omitempty"`
	MinimumDelay   float64  `json:"-"` // +Inf when no solution was found

	Stats            DelayStats      `json:"stats"`
	CacheHitRate     float64         `json:"cache_hit_rate"`
	CacheSize        int             `json:"cache_size"`
	Levels           int             `json:"levels"`
	FinalTemperature float64         `json:"final_temperature"`
	Evaluations      int             `json:"evaluations"`
	ShapesEvaluated  int             `json:"shapes_evaluated"` // Shape pairs combined over all cache misses
	ShapesRetained   int             `json:"shapes_retained"`  // Shapes kept after pruning over all cache misses
	TerminateReason  TerminateReason `json:"terminate_reason"`
}

// HasSolution reports whether the run found at least one feasible packing.
func (r *Result) HasSolution() bool {
	return r.BestShape != nil && len(r.BestExpression) > 0
}

// BestKey returns the compact form of the best expression, empty when none.
func (r *Result) BestKey() string {
	parts := make([]string, len(r.BestExpression))
	for i, s := range r.BestExpression {
		parts[i] = s.String()
	}
	return strings.Join(parts, "-")
}

// MarshalJSON writes MinimumDelay as null when it is infinite.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		MinimumDelay *float64 `json:"minimum_delay"`
	}{plain: plain(r)}
	if !math.IsInf(r.MinimumDelay, 0) && !math.IsNaN(r.MinimumDelay) {
		d := r.MinimumDelay
		out.MinimumDelay = &d
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null MinimumDelay as +Inf.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	in := struct {
		*plain
		MinimumDelay *float64 `json:"minimum_delay"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.MinimumDelay = math.Inf(1)
	if in.MinimumDelay != nil {
		r.MinimumDelay = *in.MinimumDelay
	}
	return nil
}

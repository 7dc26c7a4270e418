package timeline

import "math"

// Window maps display positions and elapsed times to timeline indices.
// All methods are pure and clamp instead of failing, for any Size including
// zero and any factor including out-of-range and NaN values.
type Window struct {
	Size         int     // number of snapshots in the timeline
	TotalSeconds int     // width of the display window
	IntervalMs   float64 // sampling interval in milliseconds
}

// SamplesPerWindow returns how many snapshots fit into the display window.
func (w Window) SamplesPerWindow() int {
	if w.IntervalMs <= 0 || w.TotalSeconds <= 0 {
		return 0
	}
	return int(float64(w.TotalSeconds) * 1000 / w.IntervalMs)
}

// IndexByFactor returns the absolute index at relative position f.
func (w Window) IndexByFactor(f float64) int {
	return w.clamp(floor(float64(w.Size) * sanitize(f)))
}

// StartIndexByFactor returns the left edge of the sliding window at
// relative position f.
func (w Window) StartIndexByFactor(f float64) int {
	return w.clamp(floor(float64(w.Size-w.SamplesPerWindow()) * sanitize(f)))
}

// EndIndexByFactor returns the right edge of the sliding window at
// relative position f.
func (w Window) EndIndexByFactor(f float64) int {
	return w.clamp(w.StartIndexByFactor(f) + w.SamplesPerWindow())
}

// StartIndex returns the left edge of a window ending at end.
func (w Window) StartIndex(end int) int {
	return max(0, end-w.SamplesPerWindow())
}

// EndIndex returns the right edge of a window starting at start.
func (w Window) EndIndex(start int) int {
	return max(0, min(w.Size-1, start+w.SamplesPerWindow()))
}

// IndexByTime returns the index of the snapshot taken seconds after the
// collection origin.
func (w Window) IndexByTime(seconds float64) int {
	if w.IntervalMs <= 0 {
		return 0
	}
	return w.clamp(floor(sanitize(seconds) * 1000 / w.IntervalMs))
}

func (w Window) clamp(i int) int {
	if w.Size <= 0 || i < 0 {
		return 0
	}
	return min(i, w.Size-1)
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}

func floor(f float64) int {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(f))
}

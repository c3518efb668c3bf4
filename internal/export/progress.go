package export

import (
	"math"
	"sync"
)

// progressReporter enforces the progress contract: integer percentages,
// strictly non-decreasing, terminating at exactly 100 on success, and never
// delivered after a terminal state.
type progressReporter struct {
	mu       sync.Mutex
	fn       func(int)
	last     int
	terminal bool
}

func newProgressReporter(fn func(int)) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

// report delivers percent, clamped into [last, 100]. Repeats of the current
// value are suppressed.
func (r *progressReporter) report(percent float64) {
	value := int(math.Round(percent))
	if value > 100 {
		value = 100
	}

	r.mu.Lock()
	if r.terminal || value <= r.last {
		r.mu.Unlock()
		return
	}
	r.last = value
	fn := r.fn
	r.mu.Unlock()

	if fn != nil {
		fn(value)
	}
}

// complete reports 100 and seals the reporter.
func (r *progressReporter) complete() {
	r.report(100)
	r.seal()
}

// seal stops all further delivery. Called on every terminal transition.
func (r *progressReporter) seal() {
	r.mu.Lock()
	r.terminal = true
	r.mu.Unlock()
}

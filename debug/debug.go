// Package debug provides small frame-timing helpers for demos and tests.
package debug

import (
	"time"
)

const samples = 32

// Timer keeps a moving average over the last 32 recorded durations.
type Timer struct {
	times [samples]time.Duration
	index int
}

// Add records one duration.
func (t *Timer) Add(dt time.Duration) {
	t.times[t.index] = dt
	t.index = (t.index + 1) & (samples - 1)
}

// Average returns the mean of the recorded durations.
func (t *Timer) Average() time.Duration {
	var avg time.Duration
	for _, dt := range t.times {
		avg += dt
	}
	return avg / time.Duration(len(t.times))
}

// AveragePerSecond returns how many average-length periods fit in a second,
// i.e. an FPS value when frame times are recorded.
func (t *Timer) AveragePerSecond() float64 {
	return float64(time.Second) / float64(t.Average())
}

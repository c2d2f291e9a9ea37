package batch

import "fmt"

// Stats accumulates renderer counters over its lifetime.
type Stats struct {
	// Flushes is the number of non-empty flushes.
	Flushes int

	// DrawCalls is the total number of draw calls issued.
	DrawCalls int

	// Rebinds is the number of texture-unit binds actually performed,
	// after unchanged-unit elision.
	Rebinds int

	// PeakVertices is the largest vertex count seen in a single flush.
	PeakVertices int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Batch[%d flushes, %d draw calls, %d rebinds, peak %d vertices]",
		s.Flushes, s.DrawCalls, s.Rebinds, s.PeakVertices)
}

// Stats returns a snapshot of the renderer's counters.
func (r *Renderer) Stats() Stats { return r.stats }

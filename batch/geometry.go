package batch

import (
	"github.com/pkg/errors"

	pixi "github.com/wufuqi123/pixi.js"
)

// geometryRing is a small ring of GPU-backed geometry objects. Devices that
// tolerate re-uploading one buffer several times per frame only ever use
// slot 0; others cycle through slots, one per flush, restarting from slot 0
// at each frame boundary. Slots are created lazily and live until teardown
// or context loss.
type geometryRing struct {
	slots  []pixi.Geometry
	cursor int
}

// acquire returns the geometry slot for the next flush.
func (g *geometryRing) acquire(ctx pixi.Context, sameBuffer bool) (pixi.Geometry, error) {
	i := 0
	if !sameBuffer {
		i = g.cursor
		g.cursor++
	}
	for len(g.slots) <= i {
		geom, err := ctx.NewGeometry()
		if err != nil {
			return nil, errors.Wrap(err, "batch: geometry slot")
		}
		g.slots = append(g.slots, geom)
	}
	return g.slots[i], nil
}

// rewind restarts slot allocation for a new frame.
func (g *geometryRing) rewind() { g.cursor = 0 }

// invalidate drops all slots without deleting them. Used after context loss,
// when the underlying device objects are already gone.
func (g *geometryRing) invalidate() {
	g.slots = g.slots[:0]
	g.cursor = 0
}

// release deletes all slots.
func (g *geometryRing) release() {
	for _, s := range g.slots {
		s.Delete()
	}
	g.slots = g.slots[:0]
	g.cursor = 0
}

package batch

import (
	pixi "github.com/wufuqi123/pixi.js"
)

// assignment is the transient per-flush batching state of one texture: the
// tick it was grouped under, its position within that group, and the sampler
// unit it will be bound to. Valid only while tick matches the session's
// current tick.
type assignment struct {
	tick int
	slot int
	unit int
}

// flushSession owns all transient slot-assignment state for one flush.
// Textures are identified through a side table keyed by texture ID rather
// than stamped in place, so externally owned Texture values never carry
// batching state. The tick advances once per texture-array group, which
// makes "already assigned in this group" a single map lookup and integer
// compare.
type flushSession struct {
	tick  int
	table map[uint32]assignment
}

func newFlushSession() *flushSession {
	return &flushSession{table: make(map[uint32]assignment)}
}

// begin resets the session for a new flush.
func (s *flushSession) begin() {
	clear(s.table)
	s.tick++
}

// nextTick opens a new texture-array group, invalidating all assignments
// made under the previous tick.
func (s *flushSession) nextTick() { s.tick++ }

// assigned reports whether t already belongs to the current group.
func (s *flushSession) assigned(t *pixi.Texture) bool {
	return s.table[t.ID()].tick == s.tick
}

// assign records t's position within the current group.
func (s *flushSession) assign(t *pixi.Texture, slot int) {
	s.table[t.ID()] = assignment{tick: s.tick, slot: slot, unit: -1}
}

// setUnit records the sampler unit chosen for t when its group was closed.
func (s *flushSession) setUnit(t *pixi.Texture, unit int) {
	a := s.table[t.ID()]
	a.unit = unit
	s.table[t.ID()] = a
}

// unit returns the sampler unit t's group bound it to.
func (s *flushSession) unit(t *pixi.Texture) int {
	return s.table[t.ID()].unit
}

// Package ooo provides the out-of-order execution engine: a Tomasulo
// pipeline with a register alias table, reservation stations, a reorder
// buffer, a common data bus, and four functional units, driven one cycle
// at a time by the Core.
package ooo

import "github.com/tinyrv/ooosim/emu"

// ratEmpty marks an architectural register whose value resides in the
// register file.
const ratEmpty = -1

// RAT is the register alias table. For each architectural register it
// records the ROB index of the most recent in-flight producer, or
// nothing when the committed value in the register file is current.
// Register 0 is never renamed.
type RAT struct {
	tags [emu.NumRegs]int
}

// NewRAT creates a RAT with no register renamed.
func NewRAT() *RAT {
	r := &RAT{}
	for i := range r.tags {
		r.tags[i] = ratEmpty
	}
	return r
}

// Exists reports whether reg currently has an in-flight producer.
func (r *RAT) Exists(reg uint8) bool {
	return r.tags[reg] != ratEmpty
}

// Get returns the ROB index of reg's in-flight producer.
func (r *RAT) Get(reg uint8) int {
	return r.tags[reg]
}

// Set maps reg to the ROB index of a new producer, overwriting any
// prior mapping. Register 0 is never mapped.
func (r *RAT) Set(reg uint8, robIndex int) {
	if reg == 0 {
		return
	}
	r.tags[reg] = robIndex
}

// Clear removes reg's mapping.
func (r *RAT) Clear(reg uint8) {
	r.tags[reg] = ratEmpty
}

// Reset removes all mappings.
func (r *RAT) Reset() {
	for i := range r.tags {
		r.tags[i] = ratEmpty
	}
}

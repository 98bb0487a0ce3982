package ooo

import "github.com/tinyrv/ooosim/insts"

// TagNone marks an operand whose value is already captured in the entry.
const TagNone = -1

// RSEntry is one reservation station slot. An entry waits for its
// pending operands, identified by the reservation station index of the
// producing instruction, then dispatches to a functional unit.
type RSEntry struct {
	// Valid is set while the slot is occupied.
	Valid bool
	// Running is set once the entry has been dispatched to a
	// functional unit; a running entry must not dispatch again.
	Running bool
	// Instr is the operation held by this slot.
	Instr *insts.Instr
	// ROBIndex is the reorder buffer slot allocated to this instruction.
	ROBIndex int
	// Rs1Tag and Rs2Tag identify the producing station of each pending
	// operand, or TagNone when the data is captured.
	Rs1Tag int
	Rs2Tag int
	// Rs1Data and Rs2Data are the captured operand values.
	Rs1Data uint32
	Rs2Data uint32
}

// OperandsReady reports whether both operands are captured.
func (e *RSEntry) OperandsReady() bool {
	return e.Rs1Tag == TagNone && e.Rs2Tag == TagNone
}

// UpdateOperands captures a broadcast result into any operand still
// waiting for the producing station.
func (e *RSEntry) UpdateOperands(d CDBData) {
	if !e.Valid {
		return
	}
	if e.Rs1Tag == d.RSIndex {
		e.Rs1Data = d.Result
		e.Rs1Tag = TagNone
	}
	if e.Rs2Tag == d.RSIndex {
		e.Rs2Data = d.Result
		e.Rs2Tag = TagNone
	}
}

// LockPolicy decides whether a reservation station entry is barred from
// dispatch this cycle. The core installs a policy that enforces memory
// ordering for LSU entries.
type LockPolicy func(e *RSEntry) bool

// RS is the reservation station pool: a fixed set of slots indexed by
// station index.
type RS struct {
	entries []RSEntry
	used    int
	lock    LockPolicy
}

// NewRS creates a pool with the given number of slots.
func NewRS(size int) *RS {
	return &RS{
		entries: make([]RSEntry, size),
	}
}

// SetLockPolicy installs the dispatch lock predicate.
func (s *RS) SetLockPolicy(lock LockPolicy) {
	s.lock = lock
}

// Size returns the number of slots.
func (s *RS) Size() int {
	return len(s.entries)
}

// Full reports whether no slot is free.
func (s *RS) Full() bool {
	return s.used == len(s.entries)
}

// Entry returns the slot at the given station index.
func (s *RS) Entry(index int) *RSEntry {
	return &s.entries[index]
}

// Locked reports whether the entry at index is barred from dispatch.
func (s *RS) Locked(index int) bool {
	if s.lock == nil {
		return false
	}
	return s.lock(&s.entries[index])
}

// Issue places an instruction into a free slot and returns its station
// index. The caller must check Full first.
func (s *RS) Issue(robIndex, rs1Tag, rs2Tag int, rs1Data, rs2Data uint32, instr *insts.Instr) int {
	for i := range s.entries {
		if s.entries[i].Valid {
			continue
		}
		s.entries[i] = RSEntry{
			Valid:    true,
			Instr:    instr,
			ROBIndex: robIndex,
			Rs1Tag:   rs1Tag,
			Rs2Tag:   rs2Tag,
			Rs1Data:  rs1Data,
			Rs2Data:  rs2Data,
		}
		s.used++
		return i
	}
	return -1
}

// Release frees the slot at the given station index.
func (s *RS) Release(index int) {
	if !s.entries[index].Valid {
		return
	}
	s.entries[index] = RSEntry{}
	s.used--
}

// Reset frees all slots.
func (s *RS) Reset() {
	for i := range s.entries {
		s.entries[i] = RSEntry{}
	}
	s.used = 0
}

package ooo

import "github.com/tinyrv/ooosim/insts"

// ROBEntry is one in-flight instruction in the reorder buffer.
type ROBEntry struct {
	// Instr is the instruction occupying this slot.
	Instr *insts.Instr
	// Result is the computed value, valid once Ready is set.
	Result uint32
	// Ready is set at writeback when the result has arrived.
	Ready bool
}

// ROB is the reorder buffer: a circular FIFO of in-flight instructions.
// Entries are allocated at issue in program order and retired from the
// head at commit, which preserves in-order retirement.
type ROB struct {
	entries []ROBEntry
	head    int
	tail    int
	count   int
}

// NewROB creates a reorder buffer with the given capacity.
func NewROB(capacity int) *ROB {
	return &ROB{
		entries: make([]ROBEntry, capacity),
	}
}

// Capacity returns the number of slots.
func (b *ROB) Capacity() int {
	return len(b.entries)
}

// Full reports whether no slot is free.
func (b *ROB) Full() bool {
	return b.count == len(b.entries)
}

// Empty reports whether no instruction is in flight.
func (b *ROB) Empty() bool {
	return b.count == 0
}

// Allocate appends instr at the tail and returns its absolute slot index.
// The caller must check Full first.
func (b *ROB) Allocate(instr *insts.Instr) int {
	index := b.tail
	b.entries[index] = ROBEntry{Instr: instr}
	b.tail = (b.tail + 1) % len(b.entries)
	b.count++
	return index
}

// HeadIndex returns the slot index of the oldest in-flight instruction.
func (b *ROB) HeadIndex() int {
	return b.head
}

// Entry returns the entry at the given slot index.
func (b *ROB) Entry(index int) *ROBEntry {
	return &b.entries[index]
}

// Update stores the broadcast result and marks the entry ready.
func (b *ROB) Update(d CDBData) {
	entry := &b.entries[d.ROBIndex]
	entry.Result = d.Result
	entry.Ready = true
}

// Pop retires the head entry.
func (b *ROB) Pop() {
	b.entries[b.head] = ROBEntry{}
	b.head = (b.head + 1) % len(b.entries)
	b.count--
}

// OlderInFlight calls fn for every in-flight entry older than robIndex,
// from the head forward, stopping early when fn returns false.
func (b *ROB) OlderInFlight(robIndex int, fn func(e *ROBEntry) bool) {
	for i, idx := 0, b.head; i < b.count; i++ {
		if idx == robIndex {
			return
		}
		if !fn(&b.entries[idx]) {
			return
		}
		idx = (idx + 1) % len(b.entries)
	}
}

// Reset discards all in-flight entries.
func (b *ROB) Reset() {
	for i := range b.entries {
		b.entries[i] = ROBEntry{}
	}
	b.head = 0
	b.tail = 0
	b.count = 0
}

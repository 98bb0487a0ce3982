package ooo

// rstEmpty marks a ROB slot with no producing reservation station.
const rstEmpty = -1

// RST is the reservation station tracker. It maps a ROB index to the
// reservation station slot currently producing its result. The mapping
// is recorded when a station issues; the issue stage consults it to
// translate a pending ROB tag into the producing station's index.
type RST struct {
	rs []int
}

// NewRST creates a tracker covering robCapacity ROB slots.
func NewRST(robCapacity int) *RST {
	t := &RST{
		rs: make([]int, robCapacity),
	}
	for i := range t.rs {
		t.rs[i] = rstEmpty
	}
	return t
}

// Set records that the instruction at robIndex is produced by the
// station at rsIndex.
func (t *RST) Set(robIndex, rsIndex int) {
	t.rs[robIndex] = rsIndex
}

// Get returns the producing station for robIndex, or -1 if none.
func (t *RST) Get(robIndex int) int {
	return t.rs[robIndex]
}

// Clear removes the mapping for robIndex.
func (t *RST) Clear(robIndex int) {
	t.rs[robIndex] = rstEmpty
}

// Reset removes all mappings.
func (t *RST) Reset() {
	for i := range t.rs {
		t.rs[i] = rstEmpty
	}
}

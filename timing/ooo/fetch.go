package ooo

import (
	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
)

// IssueQueue buffers decoded instructions between the front end and the
// issue stage, in fetch order.
type IssueQueue struct {
	instrs []*insts.Instr
	cap    int
}

// NewIssueQueue creates a queue holding at most capacity instructions.
func NewIssueQueue(capacity int) *IssueQueue {
	return &IssueQueue{cap: capacity}
}

// Empty reports whether no instruction is buffered.
func (q *IssueQueue) Empty() bool {
	return len(q.instrs) == 0
}

// Full reports whether the queue is at capacity.
func (q *IssueQueue) Full() bool {
	return len(q.instrs) >= q.cap
}

// Data returns the oldest buffered instruction.
func (q *IssueQueue) Data() *insts.Instr {
	return q.instrs[0]
}

// Push appends an instruction.
func (q *IssueQueue) Push(instr *insts.Instr) {
	q.instrs = append(q.instrs, instr)
}

// Pop removes the oldest instruction.
func (q *IssueQueue) Pop() {
	q.instrs = q.instrs[1:]
}

// Reset discards all buffered instructions.
func (q *IssueQueue) Reset() {
	q.instrs = nil
}

// FetchUnit is the sequential front end. It fetches one word per cycle
// from instruction memory, decodes it, and pushes the descriptor into
// the issue queue. There is no speculation: fetch stalls on a control
// transfer until the BRU resolves it, and stops entirely once a
// terminator has been fetched or a word fails to decode.
type FetchUnit struct {
	mem     *emu.Memory
	decoder *insts.Decoder
	queue   *IssueQueue

	pc      uint32
	uuid    uint64
	stalled bool
	stopped bool
	err     error

	fetched uint64
}

// NewFetchUnit creates a front end fetching from mem into queue.
func NewFetchUnit(mem *emu.Memory, queue *IssueQueue) *FetchUnit {
	return &FetchUnit{
		mem:     mem,
		decoder: insts.NewDecoder(),
		queue:   queue,
	}
}

// SetPC sets the fetch program counter.
func (f *FetchUnit) SetPC(pc uint32) {
	f.pc = pc
}

// PC returns the fetch program counter.
func (f *FetchUnit) PC() uint32 {
	return f.pc
}

// Fetched returns the number of instructions fetched so far.
func (f *FetchUnit) Fetched() uint64 {
	return f.fetched
}

// Err returns the decode error that stopped the front end, if any.
func (f *FetchUnit) Err() error {
	return f.err
}

// Tick fetches and decodes at most one instruction.
func (f *FetchUnit) Tick() {
	if f.stalled || f.stopped || f.queue.Full() {
		return
	}

	word := f.mem.Read32(f.pc)
	instr, err := f.decoder.Decode(word, f.pc, f.uuid)
	if err != nil {
		f.err = err
		f.stopped = true
		return
	}
	f.uuid++
	f.fetched++

	f.queue.Push(instr)

	switch {
	case instr.ExeFlags.IsExit():
		f.stopped = true
	case instr.IsBranch():
		f.stalled = true
	default:
		f.pc += 4
	}
}

// Redirect resumes fetch at target after a control transfer resolves.
func (f *FetchUnit) Redirect(target uint32) {
	f.pc = target
	f.stalled = false
}

// Reset returns the front end to its initial state.
func (f *FetchUnit) Reset() {
	f.pc = 0
	f.uuid = 0
	f.stalled = false
	f.stopped = false
	f.err = nil
	f.fetched = 0
}

package ooo

import (
	"fmt"
	"io"

	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/latency"
)

// Default structural sizes.
const (
	DefaultROBCapacity   = 32
	DefaultRSCount       = 16
	DefaultIssueQueueCap = 8
)

// Statistics holds core performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Fetched is the number of instructions fetched by the front end.
	Fetched uint64
	// IssueStalls is the number of cycles the issue stage stalled on a
	// full reservation station pool or reorder buffer.
	IssueStalls uint64
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithROBCapacity sets the reorder buffer capacity.
func WithROBCapacity(n int) CoreOption {
	return func(c *Core) {
		c.robCapacity = n
	}
}

// WithRSCount sets the number of reservation station slots.
func WithRSCount(n int) CoreOption {
	return func(c *Core) {
		c.rsCount = n
	}
}

// WithIssueQueueCapacity sets the issue queue depth.
func WithIssueQueueCapacity(n int) CoreOption {
	return func(c *Core) {
		c.queueCap = n
	}
}

// WithLatencyTable sets a custom latency table for functional unit
// timing.
func WithLatencyTable(table *latency.Table) CoreOption {
	return func(c *Core) {
		c.table = table
	}
}

// WithCSRFile sets the CSR file backing the SFU.
func WithCSRFile(csr *emu.CSRFile) CoreOption {
	return func(c *Core) {
		c.csr = csr
	}
}

// WithDataMem sets the data port used by the LSU (e.g. an L1 D-cache).
func WithDataMem(mem DataMem) CoreOption {
	return func(c *Core) {
		c.dataMem = mem
	}
}

// WithTrace emits Issue/Commit trace lines to w.
func WithTrace(w io.Writer) CoreOption {
	return func(c *Core) {
		c.trace = w
	}
}

// Core is the out-of-order processor core. Each simulated cycle drives
// the four pipeline stages in reverse order (commit, writeback,
// execute, issue) so that a value produced in one stage is observed by
// downstream stages exactly one cycle later, then lets the front end
// fetch. All shared structures are mutated by exactly one stage per
// cycle per field, which keeps the model correct without any locking.
type Core struct {
	regFile *emu.RegFile
	mem     *emu.Memory
	csr     *emu.CSRFile
	dataMem DataMem
	table   *latency.Table

	rat   *RAT
	rob   *ROB
	rs    *RS
	cdb   *CDB
	rst   *RST
	fus   [insts.NumFUTypes]FU
	bru   *BRU
	queue *IssueQueue
	fetch *FetchUnit

	robCapacity int
	rsCount     int
	queueCap    int

	trace io.Writer

	stats  Statistics
	exited bool
}

// NewCore creates a core over the given register file and memory.
func NewCore(regFile *emu.RegFile, mem *emu.Memory, opts ...CoreOption) *Core {
	c := &Core{
		regFile:     regFile,
		mem:         mem,
		robCapacity: DefaultROBCapacity,
		rsCount:     DefaultRSCount,
		queueCap:    DefaultIssueQueueCap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.table == nil {
		c.table = latency.NewTable()
	}
	if c.csr == nil {
		c.csr = emu.NewCSRFile()
	}
	if c.dataMem == nil {
		c.dataMem = NewMemoryPort(mem)
	}

	c.rat = NewRAT()
	c.rob = NewROB(c.robCapacity)
	c.rs = NewRS(c.rsCount)
	c.cdb = NewCDB()
	c.rst = NewRST(c.robCapacity)
	c.queue = NewIssueQueue(c.queueCap)
	c.fetch = NewFetchUnit(mem, c.queue)

	c.bru = NewBRU(c.table)
	c.fus[insts.FUTypeALU] = NewALU(c.table)
	c.fus[insts.FUTypeBRU] = c.bru
	c.fus[insts.FUTypeLSU] = NewLSU(c.dataMem, c.table)
	c.fus[insts.FUTypeSFU] = NewSFU(c.csr, c.table)

	// Side-effect ordering: an LSU or SFU entry may not dispatch while
	// an older operation of the same unit is still in flight. Stores
	// therefore reach memory in program order, loads observe all older
	// stores, and CSR read-modify-writes serialize.
	c.rs.SetLockPolicy(func(e *RSEntry) bool {
		fuType := e.Instr.FUType
		if fuType != insts.FUTypeLSU && fuType != insts.FUTypeSFU {
			return false
		}
		locked := false
		c.rob.OlderInFlight(e.ROBIndex, func(o *ROBEntry) bool {
			if o.Instr.FUType == fuType {
				locked = true
				return false
			}
			return true
		})
		return locked
	})

	return c
}

// SetPC sets the front end's fetch program counter.
func (c *Core) SetPC(pc uint32) {
	c.fetch.SetPC(pc)
}

// RAT returns the register alias table.
func (c *Core) RAT() *RAT { return c.rat }

// ROB returns the reorder buffer.
func (c *Core) ROB() *ROB { return c.rob }

// RS returns the reservation station pool.
func (c *Core) RS() *RS { return c.rs }

// CDB returns the common data bus.
func (c *Core) CDB() *CDB { return c.cdb }

// RST returns the reservation station tracker.
func (c *Core) RST() *RST { return c.rst }

// IssueQueue returns the queue between the front end and issue.
func (c *Core) IssueQueue() *IssueQueue { return c.queue }

// FetchUnit returns the front end.
func (c *Core) FetchUnit() *FetchUnit { return c.fetch }

// Stats returns the core statistics.
func (c *Core) Stats() Statistics {
	s := c.stats
	s.Fetched = c.fetch.Fetched()
	return s
}

// Exited reports whether a terminator instruction has committed.
func (c *Core) Exited() bool {
	return c.exited
}

// Err returns the fatal decode error that stopped the front end, if
// any.
func (c *Core) Err() error {
	return c.fetch.Err()
}

// Halted reports whether the core has stopped, either through a
// committed terminator or a fatal decode error.
func (c *Core) Halted() bool {
	return c.exited || c.fetch.Err() != nil
}

// Issue moves at most one instruction from the issue queue into a
// reservation station and the reorder buffer. The stage stalls when
// the queue is empty or when either structure is full.
func (c *Core) Issue() {
	if c.queue.Empty() {
		return
	}
	if c.rs.Full() || c.rob.Full() {
		c.stats.IssueStalls++
		return
	}

	instr := c.queue.Data()
	flags := instr.ExeFlags

	rs1Data, rs1Tag := c.readOperand(instr.Rs1, flags.UseRs1())
	rs2Data, rs2Tag := c.readOperand(instr.Rs2, flags.UseRs2())

	robIndex := c.rob.Allocate(instr)

	if flags.UseRd() {
		c.rat.Set(instr.Rd, robIndex)
	}

	rsIndex := c.rs.Issue(robIndex, rs1Tag, rs2Tag, rs1Data, rs2Data, instr)
	c.rst.Set(robIndex, rsIndex)

	if c.trace != nil {
		fmt.Fprintf(c.trace, "Issue: %s\n", instr)
	}

	c.queue.Pop()
}

// readOperand resolves one source register at issue time. A register
// with no in-flight producer reads from the register file; a ready
// producer's result is copied from the reorder buffer; otherwise the
// operand waits on the producing reservation station.
func (c *Core) readOperand(reg uint8, used bool) (data uint32, tag int) {
	tag = TagNone
	if !used {
		return 0, tag
	}
	if !c.rat.Exists(reg) {
		return c.regFile.Read(reg), tag
	}
	robIndex := c.rat.Get(reg)
	entry := c.rob.Entry(robIndex)
	if entry.Ready {
		return entry.Result, tag
	}
	return 0, c.rst.Get(robIndex)
}

// Execute advances every functional unit one cycle, publishes at most
// one completed result on the common data bus, and dispatches ready
// reservation station entries to idle functional units.
func (c *Core) Execute() {
	for _, fu := range c.fus {
		fu.Execute()
	}

	// The CDB serves one functional unit per cycle.
	for _, fu := range c.fus {
		if !fu.Done() {
			continue
		}
		out := fu.Output()
		if err := c.cdb.Push(out.Result, out.ROBIndex, out.RSIndex); err != nil {
			break
		}
		if _, isBranch := fu.(*BRU); isBranch {
			c.redirectFrontEnd(out.ROBIndex)
		}
		fu.Clear()
		break
	}

	// Dispatch ready entries, one per distinct functional unit.
	for rsIndex := 0; rsIndex < c.rs.Size(); rsIndex++ {
		entry := c.rs.Entry(rsIndex)
		if !entry.Valid || entry.Running || !entry.OperandsReady() || c.rs.Locked(rsIndex) {
			continue
		}
		fu := c.fus[entry.Instr.FUType]
		if fu.Busy() {
			continue
		}
		fu.Issue(entry.Instr, entry.ROBIndex, rsIndex, entry.Rs1Data, entry.Rs2Data)
		entry.Running = true
	}
}

// redirectFrontEnd resumes fetch after the BRU resolved the control
// transfer at the given ROB slot.
func (c *Core) redirectFrontEnd(robIndex int) {
	instr := c.rob.Entry(robIndex).Instr
	taken, target := c.bru.Outcome()
	if taken {
		c.fetch.Redirect(target)
	} else {
		c.fetch.Redirect(instr.PC + 4)
	}
}

// Writeback consumes the common data bus: waiting reservation station
// entries capture the broadcast value, the producing station is freed,
// and the reorder buffer entry is marked ready.
func (c *Core) Writeback() {
	if c.cdb.Empty() {
		return
	}
	d := c.cdb.Data()

	for rsIndex := 0; rsIndex < c.rs.Size(); rsIndex++ {
		c.rs.Entry(rsIndex).UpdateOperands(d)
	}

	c.rs.Release(d.RSIndex)
	c.rob.Update(d)
	c.rst.Clear(d.ROBIndex)

	c.cdb.Pop()
}

// Commit retires the reorder buffer head once its result is ready,
// writing the register file and clearing the alias table entry when it
// still points at the retiring slot.
func (c *Core) Commit() {
	if c.rob.Empty() {
		return
	}

	headIndex := c.rob.HeadIndex()
	head := c.rob.Entry(headIndex)
	if !head.Ready {
		return
	}

	instr := head.Instr
	flags := instr.ExeFlags

	if flags.UseRd() {
		c.regFile.Write(instr.Rd, head.Result)
		// A later in-flight writer must not be clobbered.
		if c.rat.Exists(instr.Rd) && c.rat.Get(instr.Rd) == headIndex {
			c.rat.Clear(instr.Rd)
		}
	}

	c.rob.Pop()
	c.stats.Instructions++

	if c.trace != nil {
		fmt.Fprintf(c.trace, "Commit: %s\n", instr)
	}

	if flags.IsExit() {
		c.exited = true
	}
}

// Tick executes one cycle: commit, writeback, execute, issue, in
// reverse pipeline order, followed by one front-end fetch.
func (c *Core) Tick() {
	if c.Halted() {
		return
	}

	c.stats.Cycles++

	c.Commit()
	c.Writeback()
	c.Execute()
	c.Issue()

	c.fetch.Tick()
}

// Run executes until the core halts. It returns the fatal decode error
// if one stopped the front end, or nil on normal termination.
func (c *Core) Run() error {
	for !c.Halted() {
		c.Tick()
	}
	return c.fetch.Err()
}

// RunCycles executes at most the given number of cycles. It reports
// whether the core is still running.
func (c *Core) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !c.Halted(); i++ {
		c.Tick()
	}
	return !c.Halted()
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.rat.Reset()
	c.rob.Reset()
	c.rs.Reset()
	c.cdb.Pop()
	c.rst.Reset()
	c.queue.Reset()
	c.fetch.Reset()
	for i := range c.fus {
		c.fus[i].Clear()
	}
	c.stats = Statistics{}
	c.exited = false
}

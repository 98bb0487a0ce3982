package ooo

import (
	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/latency"
)

// DataMem is the data memory port used by the LSU. Implementations
// return any extra access latency in cycles beyond the unit's base
// latency (a flat memory returns 0; a cache returns its hit or miss
// penalty).
type DataMem interface {
	// Load reads size bytes at addr, zero-extended into the low bits.
	Load(addr uint32, size int) (value uint32, extraLatency uint64)
	// Store writes the low size bytes of value at addr.
	Store(addr uint32, size int, value uint32) (extraLatency uint64)
}

// MemoryPort adapts emu.Memory as a flat, zero-penalty data port.
type MemoryPort struct {
	mem *emu.Memory
}

// NewMemoryPort creates a data port over mem.
func NewMemoryPort(mem *emu.Memory) *MemoryPort {
	return &MemoryPort{mem: mem}
}

// Load reads size bytes at addr.
func (p *MemoryPort) Load(addr uint32, size int) (uint32, uint64) {
	switch size {
	case 1:
		return uint32(p.mem.Read8(addr)), 0
	case 2:
		return uint32(p.mem.Read16(addr)), 0
	default:
		return p.mem.Read32(addr), 0
	}
}

// Store writes the low size bytes of value at addr.
func (p *MemoryPort) Store(addr uint32, size int, value uint32) uint64 {
	switch size {
	case 1:
		p.mem.Write8(addr, uint8(value))
	case 2:
		p.mem.Write16(addr, uint16(value))
	default:
		p.mem.Write32(addr, value)
	}
	return 0
}

// LSU is the load/store unit. The address is rs1 plus the immediate;
// the access width and load extension come from func3. The core's lock
// policy guarantees memory operations dispatch in program order, so the
// unit performs the access when the operation is accepted and holds the
// result for the latency countdown.
type LSU struct {
	fuBase
	table *latency.Table
	mem   DataMem
	value uint32
}

// NewLSU creates an LSU over the given data port.
func NewLSU(mem DataMem, table *latency.Table) *LSU {
	return &LSU{table: table, mem: mem}
}

// SetDataMem replaces the data port (used to slot a cache under the LSU).
func (u *LSU) SetDataMem(mem DataMem) {
	u.mem = mem
}

// Issue accepts an operation and performs the memory access.
func (u *LSU) Issue(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32) {
	addr := selectOp1(instr, op1) + selectOp2(instr, op2)
	size := accessSize(instr.Func3)

	var extra uint64
	if instr.ExeFlags.IsStore() {
		extra = u.mem.Store(addr, size, op2)
		u.value = 0
	} else {
		var raw uint32
		raw, extra = u.mem.Load(addr, size)
		u.value = extendLoad(instr.Func3, raw)
	}

	u.accept(instr, robIndex, rsIndex, op1, op2, u.table.Latency(instr)+extra)
}

// Execute advances the unit by one cycle.
func (u *LSU) Execute() {
	u.step(func() uint32 {
		return u.value
	})
}

// accessSize returns the access width in bytes for a load/store func3.
func accessSize(func3 uint8) int {
	switch func3 & 0x3 {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

// extendLoad applies the load extension: LB and LH sign-extend, LBU and
// LHU zero-extend, LW is full width.
func extendLoad(func3 uint8, raw uint32) uint32 {
	switch func3 {
	case 0: // LB
		return uint32(int32(int8(raw)))
	case 1: // LH
		return uint32(int32(int16(raw)))
	default: // LW, LBU, LHU
		return raw
	}
}

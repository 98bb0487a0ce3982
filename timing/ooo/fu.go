package ooo

import (
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/latency"
)

// FUOutput is the result a functional unit delivers to the common data
// bus.
type FUOutput struct {
	// Result is the computed value.
	Result uint32
	// ROBIndex is the reorder buffer slot of the instruction.
	ROBIndex int
	// RSIndex is the reservation station slot of the instruction.
	RSIndex int
}

// FU is the uniform functional unit contract. A unit accepts one
// operation at a time, advances one cycle per Execute call, and holds
// its output until cleared.
type FU interface {
	// Issue accepts an operation. The behavior is undefined while the
	// unit is busy; the dispatcher must check Busy first.
	Issue(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32)
	// Execute advances the unit by one cycle.
	Execute()
	// Done reports whether a result is available.
	Done() bool
	// Output returns the available result.
	Output() FUOutput
	// Clear returns the unit to idle.
	Clear()
	// Busy reports whether the unit holds an operation.
	Busy() bool
}

// fuBase carries the state machine shared by all functional units:
// accept, count down the latency, latch the output.
type fuBase struct {
	busy      bool
	done      bool
	remaining uint64
	instr     *insts.Instr
	robIndex  int
	rsIndex   int
	op1       uint32
	op2       uint32
	out       FUOutput
}

func (u *fuBase) accept(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32, lat uint64) {
	u.busy = true
	u.done = false
	u.instr = instr
	u.robIndex = robIndex
	u.rsIndex = rsIndex
	u.op1 = op1
	u.op2 = op2
	u.remaining = lat
	if u.remaining == 0 {
		u.remaining = 1
	}
}

// step advances the countdown and latches the result computed by fn
// when the latency expires.
func (u *fuBase) step(fn func() uint32) {
	if !u.busy || u.done {
		return
	}
	u.remaining--
	if u.remaining == 0 {
		u.out = FUOutput{
			Result:   fn(),
			ROBIndex: u.robIndex,
			RSIndex:  u.rsIndex,
		}
		u.done = true
	}
}

// Done reports whether a result is available.
func (u *fuBase) Done() bool {
	return u.done
}

// Output returns the latched result.
func (u *fuBase) Output() FUOutput {
	return u.out
}

// Busy reports whether the unit holds an operation.
func (u *fuBase) Busy() bool {
	return u.busy
}

// Clear returns the unit to idle.
func (u *fuBase) Clear() {
	*u = fuBase{}
}

// selectOp1 applies the operand-1 execution flags: PC substitution, the
// rs1 field literal (CSR immediate forms), and inversion.
func selectOp1(instr *insts.Instr, op1 uint32) uint32 {
	flags := instr.ExeFlags
	v := op1
	if flags.AluS1PC() {
		v = instr.PC
	}
	if flags.AluS1Rs1() {
		v = uint32(instr.Rs1)
	}
	if flags.AluS1Inv() {
		v = ^v
	}
	return v
}

// selectOp2 applies the operand-2 execution flags. CSR substitution is
// handled by the SFU, which owns the CSR file.
func selectOp2(instr *insts.Instr, op2 uint32) uint32 {
	if instr.ExeFlags.AluS2Imm() {
		return instr.Imm
	}
	return op2
}

// aluEval evaluates an ALU micro-op.
func aluEval(op insts.AluOp, a, b uint32) uint32 {
	switch op {
	case insts.AluAdd:
		return a + b
	case insts.AluSub:
		return a - b
	case insts.AluSll:
		return a << (b & 31)
	case insts.AluSrl:
		return a >> (b & 31)
	case insts.AluSra:
		return uint32(int32(a) >> (b & 31))
	case insts.AluLti:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.AluLtu:
		if a < b {
			return 1
		}
		return 0
	case insts.AluXor:
		return a ^ b
	case insts.AluOr:
		return a | b
	case insts.AluAnd:
		return a & b
	default:
		return 0
	}
}

// ALU is the arithmetic and logic unit.
type ALU struct {
	fuBase
	table *latency.Table
}

// NewALU creates an ALU with the given latency table.
func NewALU(table *latency.Table) *ALU {
	return &ALU{table: table}
}

// Issue accepts an operation.
func (u *ALU) Issue(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32) {
	u.accept(instr, robIndex, rsIndex, op1, op2, u.table.Latency(instr))
}

// Execute advances the unit by one cycle.
func (u *ALU) Execute() {
	u.step(func() uint32 {
		return aluEval(u.instr.AluOp, selectOp1(u.instr, u.op1), selectOp2(u.instr, u.op2))
	})
}

// BRU is the branch resolution unit. It computes the branch target from
// the ALU operand selection, evaluates the branch condition on the raw
// register operands, and produces the link value (PC+4) as its result.
type BRU struct {
	fuBase
	table  *latency.Table
	taken  bool
	target uint32
}

// NewBRU creates a BRU with the given latency table.
func NewBRU(table *latency.Table) *BRU {
	return &BRU{table: table}
}

// Issue accepts an operation.
func (u *BRU) Issue(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32) {
	u.accept(instr, robIndex, rsIndex, op1, op2, u.table.Latency(instr))
	u.taken = false
	u.target = 0
}

// Execute advances the unit by one cycle.
func (u *BRU) Execute() {
	u.step(func() uint32 {
		target := aluEval(insts.AluAdd, selectOp1(u.instr, u.op1), selectOp2(u.instr, u.op2))
		if u.instr.BrOp == insts.BrJalr {
			target &^= 1
		}
		u.target = target
		u.taken = branchTaken(u.instr.BrOp, u.op1, u.op2)
		return u.instr.PC + 4
	})
}

// Outcome returns the resolved branch direction and target. It is valid
// once Done reports true.
func (u *BRU) Outcome() (taken bool, target uint32) {
	return u.taken, u.target
}

// branchTaken evaluates a branch condition on the register operands.
func branchTaken(op insts.BrOp, rs1, rs2 uint32) bool {
	switch op {
	case insts.BrBeq:
		return rs1 == rs2
	case insts.BrBne:
		return rs1 != rs2
	case insts.BrBlt:
		return int32(rs1) < int32(rs2)
	case insts.BrBge:
		return int32(rs1) >= int32(rs2)
	case insts.BrBltu:
		return rs1 < rs2
	case insts.BrBgeu:
		return rs1 >= rs2
	case insts.BrJal, insts.BrJalr:
		return true
	default:
		return false
	}
}

package ooo

import (
	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/latency"
)

// SFU is the special function unit. It executes the CSR
// read-modify-write group: the old CSR value goes to rd, the new value
// is derived from operand 1 under the instruction's ALU micro-op
// (ADD writes the operand through, OR sets bits, AND with the inverted
// operand clears bits). The CSR number is the instruction immediate.
type SFU struct {
	fuBase
	table *latency.Table
	csr   *emu.CSRFile
}

// NewSFU creates an SFU over the given CSR file.
func NewSFU(csr *emu.CSRFile, table *latency.Table) *SFU {
	return &SFU{table: table, csr: csr}
}

// Issue accepts an operation.
func (u *SFU) Issue(instr *insts.Instr, robIndex, rsIndex int, op1, op2 uint32) {
	u.accept(instr, robIndex, rsIndex, op1, op2, u.table.Latency(instr))
}

// Execute advances the unit by one cycle.
func (u *SFU) Execute() {
	u.step(func() uint32 {
		csrNum := u.instr.Imm
		old := u.csr.Read(csrNum)
		s1 := selectOp1(u.instr, u.op1)

		var next uint32
		switch u.instr.AluOp {
		case insts.AluOr:
			next = old | s1
		case insts.AluAnd:
			next = old & s1
		default:
			next = s1
		}
		u.csr.Write(csrNum, next)

		return old
	})
}

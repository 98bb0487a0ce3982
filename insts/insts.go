// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction descriptors. It supports:
//   - Integer register-register and register-immediate arithmetic
//   - Loads and stores (LB/LH/LW/LBU/LHU, SB/SH/SW)
//   - Control transfer: conditional branches, JAL, JALR
//   - LUI, AUIPC, FENCE
//   - System instructions: ECALL/EBREAK/xRET and the CSR group
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	instr, err := decoder.Decode(0x00500093, 0, 1) // ADDI x1, x0, 5
//	fmt.Println(instr) // "ADDI x1, x0, 0x5, PC=0x0 (#1)"
package insts

// Opcode is the top-level 7-bit RV32I opcode field.
type Opcode uint8

// RV32I opcodes.
const (
	OpcodeR     Opcode = 0x33
	OpcodeL     Opcode = 0x03
	OpcodeI     Opcode = 0x13
	OpcodeS     Opcode = 0x23
	OpcodeB     Opcode = 0x63
	OpcodeLUI   Opcode = 0x37
	OpcodeAUIPC Opcode = 0x17
	OpcodeJAL   Opcode = 0x6f
	OpcodeJALR  Opcode = 0x67
	OpcodeSYS   Opcode = 0x73
	OpcodeFENCE Opcode = 0x0f
)

// InstType is the instruction encoding format.
type InstType uint8

// Encoding formats.
const (
	InstTypeR InstType = iota
	InstTypeI
	InstTypeS
	InstTypeB
	InstTypeU
	InstTypeJ
)

// AluOp selects the ALU micro-operation.
type AluOp uint8

// ALU micro-operations.
const (
	AluNone AluOp = iota
	AluAdd
	AluSub
	AluSll
	AluSrl
	AluSra
	AluLti
	AluLtu
	AluXor
	AluOr
	AluAnd
)

// BrOp selects the branch micro-operation.
type BrOp uint8

// Branch micro-operations.
const (
	BrNone BrOp = iota
	BrBeq
	BrBne
	BrBlt
	BrBge
	BrBltu
	BrBgeu
	BrJal
	BrJalr
)

// FUType identifies the functional unit an instruction executes on.
type FUType uint8

// Functional unit types. The numeric values index the core's FU table.
const (
	FUTypeALU FUType = iota
	FUTypeBRU
	FUTypeLSU
	FUTypeSFU
	FUTypeNone
)

// NumFUTypes is the number of dispatchable functional unit types.
const NumFUTypes = 4

// ExeFlags is a bitset of execution control flags.
type ExeFlags uint16

// Execution flag bits.
const (
	// FlagUseRd is set when the instruction writes a destination register.
	FlagUseRd ExeFlags = 1 << iota
	// FlagUseRs1 is set when the instruction reads rs1.
	FlagUseRs1
	// FlagUseRs2 is set when the instruction reads rs2.
	FlagUseRs2
	// FlagUseImm is set when the instruction carries an immediate.
	FlagUseImm
	// FlagAluS1PC selects PC as ALU operand 1.
	FlagAluS1PC
	// FlagAluS1Inv inverts ALU operand 1 (CSRRC/CSRRCI).
	FlagAluS1Inv
	// FlagAluS1Rs1 selects the rs1 field literal as ALU operand 1
	// (CSR immediate forms).
	FlagAluS1Rs1
	// FlagAluS2Imm selects the immediate as ALU operand 2.
	FlagAluS2Imm
	// FlagAluS2CSR selects the CSR value as ALU operand 2.
	FlagAluS2CSR
	// FlagIsLoad marks memory loads.
	FlagIsLoad
	// FlagIsStore marks memory stores.
	FlagIsStore
	// FlagIsCSR marks CSR read-modify-write instructions.
	FlagIsCSR
	// FlagIsExit marks program terminators (ECALL/EBREAK).
	FlagIsExit
)

// UseRd reports whether the instruction writes a destination register.
func (f ExeFlags) UseRd() bool { return f&FlagUseRd != 0 }

// UseRs1 reports whether the instruction reads rs1.
func (f ExeFlags) UseRs1() bool { return f&FlagUseRs1 != 0 }

// UseRs2 reports whether the instruction reads rs2.
func (f ExeFlags) UseRs2() bool { return f&FlagUseRs2 != 0 }

// UseImm reports whether the instruction carries an immediate.
func (f ExeFlags) UseImm() bool { return f&FlagUseImm != 0 }

// AluS1PC reports whether ALU operand 1 is the PC.
func (f ExeFlags) AluS1PC() bool { return f&FlagAluS1PC != 0 }

// AluS1Inv reports whether ALU operand 1 is inverted.
func (f ExeFlags) AluS1Inv() bool { return f&FlagAluS1Inv != 0 }

// AluS1Rs1 reports whether ALU operand 1 is the rs1 field literal.
func (f ExeFlags) AluS1Rs1() bool { return f&FlagAluS1Rs1 != 0 }

// AluS2Imm reports whether ALU operand 2 is the immediate.
func (f ExeFlags) AluS2Imm() bool { return f&FlagAluS2Imm != 0 }

// AluS2CSR reports whether ALU operand 2 is the CSR value.
func (f ExeFlags) AluS2CSR() bool { return f&FlagAluS2CSR != 0 }

// IsLoad reports whether the instruction is a memory load.
func (f ExeFlags) IsLoad() bool { return f&FlagIsLoad != 0 }

// IsStore reports whether the instruction is a memory store.
func (f ExeFlags) IsStore() bool { return f&FlagIsStore != 0 }

// IsCSR reports whether the instruction is a CSR access.
func (f ExeFlags) IsCSR() bool { return f&FlagIsCSR != 0 }

// IsExit reports whether the instruction terminates the program.
func (f ExeFlags) IsExit() bool { return f&FlagIsExit != 0 }

// Instr is a decoded RV32I instruction. It is immutable after decode.
type Instr struct {
	// PC is the program counter of this instruction.
	PC uint32
	// UUID is a monotonically increasing identifier for logging.
	UUID uint64

	// Opcode is the top-level opcode class.
	Opcode Opcode

	// Rd, Rs1, Rs2 are the 5-bit register fields.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Func3 and Func7 are the raw function fields from the encoding.
	Func3 uint8
	Func7 uint8

	// Imm is the 32-bit immediate, sign-extended where applicable.
	Imm uint32

	// AluOp is the ALU micro-op.
	AluOp AluOp
	// BrOp is the branch micro-op.
	BrOp BrOp
	// FUType routes the instruction to a functional unit.
	FUType FUType
	// ExeFlags holds the execution control flags.
	ExeFlags ExeFlags
}

// IsBranch reports whether the instruction is a control transfer.
func (i *Instr) IsBranch() bool {
	return i.BrOp != BrNone
}

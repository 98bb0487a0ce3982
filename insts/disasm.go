package insts

import (
	"fmt"
	"strings"
)

// Mnemonic returns the assembly mnemonic for the instruction.
func (i *Instr) Mnemonic() string {
	switch i.Opcode {
	case OpcodeLUI:
		return "LUI"
	case OpcodeAUIPC:
		return "AUIPC"
	case OpcodeR:
		switch i.Func3 {
		case 0:
			if i.Func7 != 0 {
				return "SUB"
			}
			return "ADD"
		case 1:
			return "SLL"
		case 2:
			return "SLT"
		case 3:
			return "SLTU"
		case 4:
			return "XOR"
		case 5:
			if i.Func7&0x20 != 0 {
				return "SRA"
			}
			return "SRL"
		case 6:
			return "OR"
		case 7:
			return "AND"
		}
	case OpcodeI:
		switch i.Func3 {
		case 0:
			return "ADDI"
		case 1:
			return "SLLI"
		case 2:
			return "SLTI"
		case 3:
			return "SLTIU"
		case 4:
			return "XORI"
		case 5:
			if i.Func7&0x20 != 0 {
				return "SRAI"
			}
			return "SRLI"
		case 6:
			return "ORI"
		case 7:
			return "ANDI"
		}
	case OpcodeB:
		switch i.Func3 {
		case 0:
			return "BEQ"
		case 1:
			return "BNE"
		case 4:
			return "BLT"
		case 5:
			return "BGE"
		case 6:
			return "BLTU"
		case 7:
			return "BGEU"
		}
	case OpcodeJAL:
		return "JAL"
	case OpcodeJALR:
		return "JALR"
	case OpcodeL:
		switch i.Func3 {
		case 0:
			return "LB"
		case 1:
			return "LH"
		case 2:
			return "LW"
		case 4:
			return "LBU"
		case 5:
			return "LHU"
		}
	case OpcodeS:
		switch i.Func3 {
		case 0:
			return "SB"
		case 1:
			return "SH"
		case 2:
			return "SW"
		}
	case OpcodeSYS:
		switch i.Func3 {
		case 0:
			switch i.Imm {
			case 0x000:
				return "ECALL"
			case 0x001:
				return "EBREAK"
			case 0x002:
				return "URET"
			case 0x102:
				return "SRET"
			case 0x302:
				return "MRET"
			}
		case 1:
			return "CSRRW"
		case 2:
			return "CSRRS"
		case 3:
			return "CSRRC"
		case 5:
			return "CSRRWI"
		case 6:
			return "CSRRSI"
		case 7:
			return "CSRRCI"
		}
	case OpcodeFENCE:
		return "FENCE"
	}
	return "???"
}

// String renders the instruction for debug logs: the mnemonic followed by
// the used operands in rd, rs1, rs2, imm order, then the PC and uuid.
// Registers print as x<n> in decimal, the immediate in hex.
func (i *Instr) String() string {
	var b strings.Builder
	b.WriteString(i.Mnemonic())

	sep := 0
	writeSep := func() {
		if sep != 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(" ")
		}
		sep++
	}

	flags := i.ExeFlags
	if flags.UseRd() {
		writeSep()
		fmt.Fprintf(&b, "x%d", i.Rd)
	}
	if flags.UseRs1() {
		writeSep()
		fmt.Fprintf(&b, "x%d", i.Rs1)
	}
	if flags.UseRs2() {
		writeSep()
		fmt.Fprintf(&b, "x%d", i.Rs2)
	}
	if flags.UseImm() {
		writeSep()
		fmt.Fprintf(&b, "0x%x", i.Imm)
	}

	fmt.Fprintf(&b, ", PC=0x%x", i.PC)
	fmt.Fprintf(&b, " (#%d)", i.UUID)

	return b.String()
}

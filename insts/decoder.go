package insts

import (
	"errors"
	"fmt"
)

// ErrIllegalInstr is returned when an instruction word cannot be decoded.
// It covers unknown opcodes as well as unreachable func3/func7/imm
// combinations within a known opcode.
var ErrIllegalInstr = errors.New("illegal instruction")

// Bit layout constants. All fields are little-endian within the 32-bit word:
// opcode[6:0], rd[11:7], func3[14:12], rs1[19:15], rs2[24:20], func7[31:25].
const (
	widthOpcode = 7
	widthReg    = 5
	widthFunc3  = 3
	widthIImm   = 12
	widthJImm   = 20

	shiftOpcode = 0
	shiftRd     = widthOpcode
	shiftFunc3  = shiftRd + widthReg
	shiftRs1    = shiftFunc3 + widthFunc3
	shiftRs2    = shiftRs1 + widthReg
	shiftFunc7  = shiftRs2 + widthReg

	maskOpcode = (1 << widthOpcode) - 1
	maskReg    = (1 << widthReg) - 1
	maskFunc3  = (1 << widthFunc3) - 1
	maskFunc7  = 0x7f
)

// instTypeTable maps each opcode class to its encoding format.
var instTypeTable = map[Opcode]InstType{
	OpcodeR:     InstTypeR,
	OpcodeL:     InstTypeI,
	OpcodeI:     InstTypeI,
	OpcodeS:     InstTypeS,
	OpcodeB:     InstTypeB,
	OpcodeLUI:   InstTypeU,
	OpcodeAUIPC: InstTypeU,
	OpcodeJAL:   InstTypeJ,
	OpcodeJALR:  InstTypeI,
	OpcodeSYS:   InstTypeI,
	OpcodeFENCE: InstTypeI,
}

// signExtend sign-extends the low width bits of v to 32 bits.
func signExtend(v uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(v<<shift) >> shift)
}

// Decoder decodes RV32I machine code into instruction descriptors.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word fetched at pc. The uuid is
// attached to the descriptor for logging and debug correlation.
//
// Decode is a pure function: it touches no machine state. It returns
// ErrIllegalInstr (wrapped) when the opcode is unknown or when a
// func3/func7/imm combination inside a known opcode is unreachable
// in RV32I.
func (d *Decoder) Decode(code uint32, pc uint32, uuid uint64) (*Instr, error) {
	opcode := Opcode((code >> shiftOpcode) & maskOpcode)

	instType, ok := instTypeTable[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: invalid opcode 0x%02x in 0x%08x", ErrIllegalInstr, uint8(opcode), code)
	}

	instr := &Instr{
		PC:     pc,
		UUID:   uuid,
		Opcode: opcode,
		Rd:     uint8((code >> shiftRd) & maskReg),
		Rs1:    uint8((code >> shiftRs1) & maskReg),
		Rs2:    uint8((code >> shiftRs2) & maskReg),
		Func3:  uint8((code >> shiftFunc3) & maskFunc3),
		Func7:  uint8((code >> shiftFunc7) & maskFunc7),
	}

	var flags ExeFlags
	var imm uint32

	// Format decoding: operand usage and immediate formation.
	switch instType {
	case InstTypeR:
		flags |= FlagUseRd | FlagUseRs1 | FlagUseRs2

	case InstTypeI:
		switch opcode {
		case OpcodeI:
			flags |= FlagUseRd | FlagUseRs1 | FlagUseImm | FlagAluS2Imm
			if instr.Func3 == 0x1 || instr.Func3 == 0x5 {
				// Shift instructions carry the shamt in the rs2 field.
				imm = uint32(instr.Rs2)
			} else {
				imm = signExtend(code>>shiftRs2, widthIImm)
			}
		case OpcodeL, OpcodeJALR:
			flags |= FlagUseRd | FlagUseRs1 | FlagUseImm | FlagAluS2Imm
			imm = signExtend(code>>shiftRs2, widthIImm)
		case OpcodeSYS:
			flags |= FlagUseImm
			if instr.Func3 != 0 {
				// CSR instructions: the immediate is the CSR number,
				// zero-extended.
				flags |= FlagUseRd
				if instr.Func3 < 5 {
					flags |= FlagUseRs1
				}
			}
			imm = code >> shiftRs2
		case OpcodeFENCE:
			// No operands. The fm/pred/succ field is kept, zero-extended,
			// so the word re-encodes to its original bits.
			imm = code >> shiftRs2
		}

	case InstTypeS:
		flags |= FlagUseRs1 | FlagUseRs2 | FlagUseImm | FlagAluS2Imm
		imm12 := (uint32(instr.Func7) << widthReg) | uint32(instr.Rd)
		imm = signExtend(imm12, widthIImm)

	case InstTypeB:
		flags |= FlagUseRs1 | FlagUseRs2 | FlagUseImm | FlagAluS2Imm
		bit11 := uint32(instr.Rd) & 0x1
		bits4to1 := uint32(instr.Rd) >> 1
		bits10to5 := uint32(instr.Func7) & 0x3f
		bit12 := uint32(instr.Func7) >> 6
		imm13 := (bits4to1 << 1) | (bits10to5 << 5) | (bit11 << 11) | (bit12 << 12)
		imm = signExtend(imm13, widthIImm+1)

	case InstTypeU:
		flags |= FlagUseRd | FlagUseImm | FlagAluS2Imm
		imm = (code >> shiftFunc3) << shiftFunc3

	case InstTypeJ:
		flags |= FlagUseRd | FlagUseImm | FlagAluS2Imm
		raw := code >> shiftFunc3
		bits19to12 := raw & 0xff
		bit11 := (raw >> 8) & 0x1
		bits10to1 := (raw >> 9) & 0x3ff
		bit20 := (raw >> 19) & 0x1
		imm21 := (bits10to1 << 1) | (bit11 << 11) | (bits19to12 << 12) | (bit20 << 20)
		imm = signExtend(imm21, widthJImm+1)
	}

	// Writes to x0 are discards.
	if flags.UseRd() && instr.Rd == 0 {
		flags &^= FlagUseRd
	}

	// Micro-op decoding.
	aluOp := AluNone
	brOp := BrNone

	switch opcode {
	case OpcodeLUI:
		aluOp = AluAdd

	case OpcodeAUIPC:
		aluOp = AluAdd
		flags |= FlagAluS1PC

	case OpcodeR, OpcodeI:
		var err error
		aluOp, err = decodeAluOp(opcode, instr.Func3, instr.Func7, code)
		if err != nil {
			return nil, err
		}

	case OpcodeB:
		aluOp = AluAdd
		flags |= FlagAluS1PC
		switch instr.Func3 {
		case 0:
			brOp = BrBeq
		case 1:
			brOp = BrBne
		case 4:
			brOp = BrBlt
		case 5:
			brOp = BrBge
		case 6:
			brOp = BrBltu
		case 7:
			brOp = BrBgeu
		default:
			return nil, fmt.Errorf("%w: branch func3 %d in 0x%08x", ErrIllegalInstr, instr.Func3, code)
		}

	case OpcodeJAL:
		aluOp = AluAdd
		brOp = BrJal
		flags |= FlagAluS1PC

	case OpcodeJALR:
		aluOp = AluAdd
		brOp = BrJalr

	case OpcodeL:
		switch instr.Func3 {
		case 0, 1, 2, 4, 5: // LB, LH, LW, LBU, LHU
			aluOp = AluAdd
			flags |= FlagIsLoad
		default:
			return nil, fmt.Errorf("%w: load func3 %d in 0x%08x", ErrIllegalInstr, instr.Func3, code)
		}

	case OpcodeS:
		switch instr.Func3 {
		case 0, 1, 2: // SB, SH, SW
			aluOp = AluAdd
			flags |= FlagIsStore
		default:
			return nil, fmt.Errorf("%w: store func3 %d in 0x%08x", ErrIllegalInstr, instr.Func3, code)
		}

	case OpcodeSYS:
		if instr.Func3 == 0 {
			aluOp = AluAdd
			switch imm {
			case 0x000, 0x001: // ECALL, EBREAK
				flags |= FlagIsExit
			case 0x002, 0x102, 0x302: // URET, SRET, MRET
			default:
				return nil, fmt.Errorf("%w: system imm 0x%03x in 0x%08x", ErrIllegalInstr, imm, code)
			}
		} else {
			flags |= FlagIsCSR | FlagAluS2CSR
			switch instr.Func3 {
			case 1: // CSRRW
				aluOp = AluAdd
			case 2: // CSRRS
				aluOp = AluOr
			case 3: // CSRRC
				aluOp = AluAnd
				flags |= FlagAluS1Inv
			case 5: // CSRRWI
				aluOp = AluAdd
				flags |= FlagAluS1Rs1
			case 6: // CSRRSI
				aluOp = AluOr
				flags |= FlagAluS1Rs1
			case 7: // CSRRCI
				aluOp = AluAnd
				flags |= FlagAluS1Inv | FlagAluS1Rs1
			default:
				return nil, fmt.Errorf("%w: system func3 %d in 0x%08x", ErrIllegalInstr, instr.Func3, code)
			}
		}

	case OpcodeFENCE:
		// FENCE is a no-op in this model.
	}

	// Functional unit routing. Loads and stores go to the LSU, CSR
	// accesses to the SFU, control transfers to the BRU, everything
	// else to the ALU.
	var fuType FUType
	switch {
	case flags.IsLoad() || flags.IsStore():
		fuType = FUTypeLSU
	case flags.IsCSR():
		fuType = FUTypeSFU
	case brOp != BrNone:
		fuType = FUTypeBRU
	default:
		fuType = FUTypeALU
	}

	instr.Imm = imm
	instr.AluOp = aluOp
	instr.BrOp = brOp
	instr.FUType = fuType
	instr.ExeFlags = flags

	return instr, nil
}

// decodeAluOp decodes the ALU micro-op for R-type and I-type arithmetic.
// Func7 bit 5 selects SRA vs SRL for func3=5 and, for R-type only, SUB
// vs ADD for func3=0. Any other func7 pattern on an R-type operation or
// an I-type shift is an illegal encoding; on the remaining I-type
// operations func7 is part of the immediate and is not checked.
func decodeAluOp(opcode Opcode, func3, func7 uint8, code uint32) (AluOp, error) {
	switch func3 {
	case 0:
		if opcode == OpcodeR && func7 == 0x20 {
			return AluSub, nil
		}
		if opcode == OpcodeI || func7 == 0 {
			return AluAdd, nil
		}
	case 1:
		if func7 == 0 {
			return AluSll, nil
		}
	case 2:
		if opcode == OpcodeI || func7 == 0 {
			return AluLti, nil
		}
	case 3:
		if opcode == OpcodeI || func7 == 0 {
			return AluLtu, nil
		}
	case 4:
		if opcode == OpcodeI || func7 == 0 {
			return AluXor, nil
		}
	case 5:
		switch func7 {
		case 0:
			return AluSrl, nil
		case 0x20:
			return AluSra, nil
		}
	case 6:
		if opcode == OpcodeI || func7 == 0 {
			return AluOr, nil
		}
	case 7:
		if opcode == OpcodeI || func7 == 0 {
			return AluAnd, nil
		}
	}
	return AluNone, fmt.Errorf("%w: func3=%d func7=0x%02x in 0x%08x", ErrIllegalInstr, func3, func7, code)
}

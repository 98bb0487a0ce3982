package ooo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/latency"
	"github.com/tinyrv/ooosim/timing/ooo"
)

// runFU ticks a functional unit until it reports done.
func runFU(fu ooo.FU) ooo.FUOutput {
	for i := 0; i < 64; i++ {
		fu.Execute()
		if fu.Done() {
			return fu.Output()
		}
	}
	Fail("functional unit never completed")
	return ooo.FUOutput{}
}

var _ = Describe("ALU", func() {
	var alu *ooo.ALU

	BeforeEach(func() {
		alu = ooo.NewALU(latency.NewTable())
	})

	// ADD x3, x1, x2 -> 0x002081B3
	It("should add register operands", func() {
		alu.Issue(decodeWord(0x002081B3), 0, 0, 4, 5)

		out := runFU(alu)
		Expect(out.Result).To(Equal(uint32(9)))
		Expect(out.ROBIndex).To(Equal(0))
		Expect(out.RSIndex).To(Equal(0))
	})

	// SUB x3, x1, x2 -> 0x402081B3
	It("should subtract with wraparound", func() {
		alu.Issue(decodeWord(0x402081B3), 1, 2, 3, 5)

		Expect(runFU(alu).Result).To(Equal(uint32(0xFFFFFFFE)))
	})

	// ADDI x1, x0, 5 -> 0x00500093
	It("should substitute the immediate for operand 2", func() {
		alu.Issue(decodeWord(0x00500093), 0, 0, 0, 0xBAD)

		Expect(runFU(alu).Result).To(Equal(uint32(5)))
	})

	// SRAI x3, x1, 4 -> 0x4040D193
	It("should shift arithmetically", func() {
		alu.Issue(decodeWord(0x4040D193), 0, 0, 0x80000000, 0)

		Expect(runFU(alu).Result).To(Equal(uint32(0xF8000000)))
	})

	// SLT via SLTI x4, x2, 10 -> 0x00A12213
	It("should compare signed", func() {
		alu.Issue(decodeWord(0x00A12213), 0, 0, 0xFFFFFFFF, 0)

		Expect(runFU(alu).Result).To(Equal(uint32(1)))
	})

	// LUI x5, 0x12345 -> 0x123452B7
	It("should pass the U immediate through", func() {
		alu.Issue(decodeWord(0x123452B7), 0, 0, 0, 0)

		Expect(runFU(alu).Result).To(Equal(uint32(0x12345000)))
	})

	It("should become idle after clear", func() {
		alu.Issue(decodeWord(0x00500093), 0, 0, 0, 0)
		runFU(alu)

		alu.Clear()
		Expect(alu.Busy()).To(BeFalse())
		Expect(alu.Done()).To(BeFalse())
	})
})

var _ = Describe("BRU", func() {
	var bru *ooo.BRU

	decodeAt := func(code, pc uint32) *insts.Instr {
		instr, err := insts.NewDecoder().Decode(code, pc, 0)
		Expect(err).ToNot(HaveOccurred())
		return instr
	}

	BeforeEach(func() {
		bru = ooo.NewBRU(latency.NewTable())
	})

	// JAL x1, 8 at PC=0x200 -> 0x008000EF
	It("should link PC+4 and target PC+imm for JAL", func() {
		bru.Issue(decodeAt(0x008000EF, 0x200), 0, 0, 0, 0)

		out := runFU(bru)
		Expect(out.Result).To(Equal(uint32(0x204)))

		taken, target := bru.Outcome()
		Expect(taken).To(BeTrue())
		Expect(target).To(Equal(uint32(0x208)))
	})

	// JALR x1, 4(x2) at PC=0x100 -> 0x004100E7
	It("should target rs1+imm with bit 0 cleared for JALR", func() {
		bru.Issue(decodeAt(0x004100E7, 0x100), 0, 0, 0x1001, 0)

		out := runFU(bru)
		Expect(out.Result).To(Equal(uint32(0x104)))

		taken, target := bru.Outcome()
		Expect(taken).To(BeTrue())
		Expect(target).To(Equal(uint32(0x1004)))
	})

	// BEQ x1, x2, 8 at PC=0x10 -> 0x00208463
	It("should take an equal BEQ", func() {
		bru.Issue(decodeAt(0x00208463, 0x10), 0, 0, 7, 7)

		runFU(bru)
		taken, target := bru.Outcome()
		Expect(taken).To(BeTrue())
		Expect(target).To(Equal(uint32(0x18)))
	})

	It("should fall through an unequal BEQ", func() {
		bru.Issue(decodeAt(0x00208463, 0x10), 0, 0, 7, 8)

		runFU(bru)
		taken, _ := bru.Outcome()
		Expect(taken).To(BeFalse())
	})

	// BLT x1, x2 via BLT encoding: BLT x1, x2, 8 -> 0x0020C463
	It("should compare signed for BLT", func() {
		bru.Issue(decodeAt(0x0020C463, 0), 0, 0, 0xFFFFFFFF, 0)

		runFU(bru)
		taken, _ := bru.Outcome()
		Expect(taken).To(BeTrue())
	})

	// BLTU x1, x2, 8 -> 0x0020E463
	It("should compare unsigned for BLTU", func() {
		bru.Issue(decodeAt(0x0020E463, 0), 0, 0, 0xFFFFFFFF, 0)

		runFU(bru)
		taken, _ := bru.Outcome()
		Expect(taken).To(BeFalse())
	})
})

var _ = Describe("LSU", func() {
	var (
		memory *emu.Memory
		lsu    *ooo.LSU
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		lsu = ooo.NewLSU(ooo.NewMemoryPort(memory), latency.NewTable())
	})

	// LW x3, 0(x1) -> 0x0000A183
	It("should load a word from rs1+imm", func() {
		memory.Write32(0x100, 0xCAFEBABE)
		lsu.Issue(decodeWord(0x0000A183), 0, 0, 0x100, 0)

		Expect(runFU(lsu).Result).To(Equal(uint32(0xCAFEBABE)))
	})

	// LB x4, -4(x2) -> 0xFFC10203
	It("should sign-extend byte loads", func() {
		memory.Write8(0xFC, 0x80)
		lsu.Issue(decodeWord(0xFFC10203), 0, 0, 0x100, 0)

		Expect(runFU(lsu).Result).To(Equal(uint32(0xFFFFFF80)))
	})

	// LBU x4, 0(x1) -> 0x0000C203
	It("should zero-extend unsigned byte loads", func() {
		memory.Write8(0x100, 0x80)
		lsu.Issue(decodeWord(0x0000C203), 0, 0, 0x100, 0)

		Expect(runFU(lsu).Result).To(Equal(uint32(0x80)))
	})

	// LH x4, 0(x1) -> 0x00009203
	It("should sign-extend halfword loads", func() {
		memory.Write16(0x100, 0x8001)
		lsu.Issue(decodeWord(0x00009203), 0, 0, 0x100, 0)

		Expect(runFU(lsu).Result).To(Equal(uint32(0xFFFF8001)))
	})

	// SW x2, 8(x1) -> 0x0020A423
	It("should store a word at rs1+imm", func() {
		lsu.Issue(decodeWord(0x0020A423), 0, 0, 0x100, 0x12345678)

		runFU(lsu)
		Expect(memory.Read32(0x108)).To(Equal(uint32(0x12345678)))
	})

	// SB x2, -1(x1) -> 0xFE208FA3
	It("should store a single byte", func() {
		memory.Write32(0xFC, 0xFFFFFFFF)
		lsu.Issue(decodeWord(0xFE208FA3), 0, 0, 0x100, 0xAB)

		runFU(lsu)
		Expect(memory.Read8(0xFF)).To(Equal(uint8(0xAB)))
		Expect(memory.Read8(0xFE)).To(Equal(uint8(0xFF)))
	})
})

var _ = Describe("SFU", func() {
	var (
		csr *emu.CSRFile
		sfu *ooo.SFU
	)

	BeforeEach(func() {
		csr = emu.NewCSRFile()
		sfu = ooo.NewSFU(csr, latency.NewTable())
	})

	// CSRRW x2, 0x340, x1 -> 0x34009173
	It("should swap the CSR with rs1 and return the old value", func() {
		csr.Write(0x340, 7)
		sfu.Issue(decodeWord(0x34009173), 0, 0, 42, 0)

		Expect(runFU(sfu).Result).To(Equal(uint32(7)))
		Expect(csr.Read(0x340)).To(Equal(uint32(42)))
	})

	// CSRRS x3, 0x340, x1 -> 0x3400A1F3
	It("should set bits for CSRRS", func() {
		csr.Write(0x340, 0x0F)
		sfu.Issue(decodeWord(0x3400A1F3), 0, 0, 0xF0, 0)

		Expect(runFU(sfu).Result).To(Equal(uint32(0x0F)))
		Expect(csr.Read(0x340)).To(Equal(uint32(0xFF)))
	})

	// CSRRC x3, 0x340, x1 -> 0x3400B1F3
	It("should clear bits for CSRRC", func() {
		csr.Write(0x340, 0xFF)
		sfu.Issue(decodeWord(0x3400B1F3), 0, 0, 0x0F, 0)

		Expect(runFU(sfu).Result).To(Equal(uint32(0xFF)))
		Expect(csr.Read(0x340)).To(Equal(uint32(0xF0)))
	})

	// CSRRWI x4, 0x340, 9 -> 0x3404D273
	It("should write the zimm literal for CSRRWI", func() {
		sfu.Issue(decodeWord(0x3404D273), 0, 0, 0xBAD, 0)

		Expect(runFU(sfu).Result).To(Equal(uint32(0)))
		Expect(csr.Read(0x340)).To(Equal(uint32(9)))
	})
})

package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tinyrv/ooosim/insts"
)

var _ = Describe("Disassembly", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	render := func(code uint32, pc uint32, uuid uint64) string {
		instr, err := decoder.Decode(code, pc, uuid)
		Expect(err).ToNot(HaveOccurred())
		return instr.String()
	}

	// ADDI x1, x0, 5 -> 0x00500093
	It("should render rd, rs1 and imm in order", func() {
		Expect(render(0x00500093, 0, 1)).To(Equal("ADDI x1, x0, 0x5, PC=0x0 (#1)"))
	})

	// ADD x3, x1, x2 -> 0x002081B3
	It("should render register-register operations without an immediate", func() {
		Expect(render(0x002081B3, 0x100, 7)).To(Equal("ADD x3, x1, x2, PC=0x100 (#7)"))
	})

	// SUB x3, x1, x2 -> 0x402081B3
	It("should name SUB from func7", func() {
		Expect(render(0x402081B3, 0, 0)).To(Equal("SUB x3, x1, x2, PC=0x0 (#0)"))
	})

	// SW x2, 8(x1) -> 0x0020A423
	It("should render stores without a destination", func() {
		Expect(render(0x0020A423, 0x20, 3)).To(Equal("SW x1, x2, 0x8, PC=0x20 (#3)"))
	})

	// BNE x1, x0, -8 -> 0xFE009CE3
	It("should render negative immediates in full hex", func() {
		Expect(render(0xFE009CE3, 0x10, 4)).To(Equal("BNE x1, x0, 0xfffffff8, PC=0x10 (#4)"))
	})

	// LUI x5, 0x12345 -> 0x123452B7
	It("should render the shifted U immediate", func() {
		Expect(render(0x123452B7, 0, 2)).To(Equal("LUI x5, 0x12345000, PC=0x0 (#2)"))
	})

	// JAL x1, 8 -> 0x008000EF
	It("should render JAL", func() {
		Expect(render(0x008000EF, 0x200, 9)).To(Equal("JAL x1, 0x8, PC=0x200 (#9)"))
	})

	// ECALL -> 0x00000073
	It("should render ECALL with only the immediate", func() {
		Expect(render(0x00000073, 0x40, 5)).To(Equal("ECALL 0x0, PC=0x40 (#5)"))
	})

	// CSRRW x2, 0x340, x1 -> 0x34009173
	It("should render CSR operations with the CSR number as immediate", func() {
		Expect(render(0x34009173, 0, 6)).To(Equal("CSRRW x2, x1, 0x340, PC=0x0 (#6)"))
	})

	// FENCE -> 0x0000000F
	It("should render FENCE with no operands", func() {
		Expect(render(0x0000000F, 0, 8)).To(Equal("FENCE, PC=0x0 (#8)"))
	})

	// LW x3, 0(x1) -> 0x0000A183
	It("should render loads", func() {
		Expect(render(0x0000A183, 0x8, 10)).To(Equal("LW x3, x1, 0x0, PC=0x8 (#10)"))
	})
})

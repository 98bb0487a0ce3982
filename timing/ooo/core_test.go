package ooo_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/insts"
	"github.com/tinyrv/ooosim/timing/ooo"
)

// maxTestCycles bounds every scenario so a scheduling bug cannot hang
// the suite.
const maxTestCycles = 10000

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		memory = emu.NewMemory()
	})

	newCore := func(words []uint32, opts ...ooo.CoreOption) *ooo.Core {
		memory.LoadWords(0, words)
		core := ooo.NewCore(regFile, memory, opts...)
		core.SetPC(0)
		return core
	}

	run := func(words []uint32, opts ...ooo.CoreOption) *ooo.Core {
		core := newCore(words, opts...)
		core.RunCycles(maxTestCycles)
		Expect(core.Exited()).To(BeTrue())
		return core
	}

	Describe("Single instruction", func() {
		It("should retire ADDI x1, x0, 5 and leave the RAT empty", func() {
			core := run([]uint32{
				0x00500093, // ADDI x1, x0, 5
				0x00000073, // ECALL
			})

			Expect(regFile.Read(1)).To(Equal(uint32(5)))
			Expect(core.Stats().Instructions).To(Equal(uint64(2)))
			for reg := uint8(0); reg < 32; reg++ {
				Expect(core.RAT().Exists(reg)).To(BeFalse())
			}
		})
	})

	Describe("Dependency chain", func() {
		It("should forward results through the CDB in order", func() {
			var trace bytes.Buffer
			core := run([]uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00208113, // ADDI x2, x1, 2
				0x00310193, // ADDI x3, x2, 3
				0x00000073, // ECALL
			}, ooo.WithTrace(&trace))

			Expect(regFile.Read(1)).To(Equal(uint32(1)))
			Expect(regFile.Read(2)).To(Equal(uint32(3)))
			Expect(regFile.Read(3)).To(Equal(uint32(6)))
			Expect(core.Stats().Instructions).To(Equal(uint64(4)))

			// Commit order equals program order.
			var commits []string
			for _, line := range strings.Split(trace.String(), "\n") {
				if strings.HasPrefix(line, "Commit: ") {
					commits = append(commits, line)
				}
			}
			Expect(commits).To(HaveLen(4))
			Expect(commits[0]).To(ContainSubstring("(#0)"))
			Expect(commits[1]).To(ContainSubstring("(#1)"))
			Expect(commits[2]).To(ContainSubstring("(#2)"))
			Expect(commits[3]).To(ContainSubstring("(#3)"))
		})
	})

	Describe("Upper immediates", func() {
		It("should compute LUI", func() {
			run([]uint32{
				0x123452B7, // LUI x5, 0x12345
				0x00000073, // ECALL
			})

			Expect(regFile.Read(5)).To(Equal(uint32(0x12345000)))
		})

		It("should compute AUIPC relative to the instruction PC", func() {
			// AUIPC x6, 0x1 at PC=0x100
			memory.LoadWords(0x100, []uint32{
				0x00001317, // AUIPC x6, 0x1
				0x00000073, // ECALL
			})
			core := ooo.NewCore(regFile, memory)
			core.SetPC(0x100)
			core.RunCycles(maxTestCycles)

			Expect(core.Exited()).To(BeTrue())
			Expect(regFile.Read(6)).To(Equal(uint32(0x1100)))
		})
	})

	Describe("Jumps", func() {
		It("should link PC+4 and redirect fetch for JAL", func() {
			// JAL x1, +8 at PC=0x200 skips the word at 0x204.
			memory.LoadWords(0x200, []uint32{
				0x008000EF, // JAL x1, 8
				0x00700113, // ADDI x2, x0, 7 (skipped)
				0x00000073, // ECALL at 0x208
			})
			core := ooo.NewCore(regFile, memory)
			core.SetPC(0x200)
			core.RunCycles(maxTestCycles)

			Expect(core.Exited()).To(BeTrue())
			Expect(regFile.Read(1)).To(Equal(uint32(0x204)))
			Expect(regFile.Read(2)).To(Equal(uint32(0)))
			Expect(core.Stats().Instructions).To(Equal(uint64(2)))
		})

		It("should jump through a register for JALR", func() {
			run([]uint32{
				0x01000093, // ADDI x1, x0, 16
				0x00408067, // JALR x0, 4(x1) -> 0x14
				0x00700113, // ADDI x2, x0, 7 (skipped)
				0x00000073, // ECALL at 0xC (skipped)
				0x00000013, // NOP at 0x10
				0x00000073, // ECALL at 0x14
			})

			Expect(regFile.Read(2)).To(Equal(uint32(0)))
		})
	})

	Describe("Branches", func() {
		It("should fall through a not-taken branch", func() {
			run([]uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00008463, // BEQ x1, x0, 8 (not taken)
				0x00700113, // ADDI x2, x0, 7
				0x00000073, // ECALL
			})

			Expect(regFile.Read(2)).To(Equal(uint32(7)))
		})

		It("should skip over a taken branch", func() {
			run([]uint32{
				0x00000463, // BEQ x0, x0, 8 (taken)
				0x00100093, // ADDI x1, x0, 1 (skipped)
				0x00000073, // ECALL
			})

			Expect(regFile.Read(1)).To(Equal(uint32(0)))
		})

		It("should iterate a backward loop", func() {
			core := run([]uint32{
				0x00300093, // ADDI x1, x0, 3
				0x00000113, // ADDI x2, x0, 0
				0x00110113, // ADDI x2, x2, 1
				0xFFF08093, // ADDI x1, x1, -1
				0xFE009CE3, // BNE x1, x0, -8
				0x00000073, // ECALL
			})

			Expect(regFile.Read(1)).To(Equal(uint32(0)))
			Expect(regFile.Read(2)).To(Equal(uint32(3)))
			// 2 setup + 3*(2 body + 1 branch) + 1 ecall
			Expect(core.Stats().Instructions).To(Equal(uint64(12)))
		})
	})

	Describe("Loads and stores", func() {
		It("should forward stored data through memory", func() {
			run([]uint32{
				0x10000093, // ADDI x1, x0, 0x100
				0x02A00113, // ADDI x2, x0, 42
				0x0020A023, // SW x2, 0(x1)
				0x0000A183, // LW x3, 0(x1)
				0x00000073, // ECALL
			})

			Expect(memory.Read32(0x100)).To(Equal(uint32(42)))
			Expect(regFile.Read(3)).To(Equal(uint32(42)))
		})

		It("should keep stores in program order", func() {
			run([]uint32{
				0x10000093, // ADDI x1, x0, 0x100
				0x00100113, // ADDI x2, x0, 1
				0x00200193, // ADDI x3, x0, 2
				0x0020A023, // SW x2, 0(x1)
				0x0030A023, // SW x3, 0(x1)
				0x00000073, // ECALL
			})

			Expect(memory.Read32(0x100)).To(Equal(uint32(2)))
		})

		It("should sign-extend a byte load", func() {
			run([]uint32{
				0x10000093, // ADDI x1, x0, 0x100
				0xF8000113, // ADDI x2, x0, -128
				0x00208023, // SB x2, 0(x1)
				0x00008183, // LB x3, 0(x1)
				0x00000073, // ECALL
			})

			Expect(regFile.Read(3)).To(Equal(uint32(0xFFFFFF80)))
		})
	})

	Describe("CSR instructions", func() {
		It("should execute a CSR exchange on the SFU", func() {
			csr := emu.NewCSRFile()
			run([]uint32{
				0x00500093, // ADDI x1, x0, 5
				0x34009173, // CSRRW x2, 0x340, x1
				0x340021F3, // CSRRS x3, 0x340, x0
				0x00000073, // ECALL
			}, ooo.WithCSRFile(csr))

			Expect(regFile.Read(2)).To(Equal(uint32(0)))
			Expect(regFile.Read(3)).To(Equal(uint32(5)))
			Expect(csr.Read(0x340)).To(Equal(uint32(5)))
		})
	})

	Describe("Termination", func() {
		It("should set the exited flag after ECALL commits and stop", func() {
			core := run([]uint32{
				0x00000073, // ECALL
				0x00500093, // ADDI x1, x0, 5 (never fetched)
			})

			Expect(core.Exited()).To(BeTrue())
			Expect(core.Stats().Instructions).To(Equal(uint64(1)))
			Expect(regFile.Read(1)).To(Equal(uint32(0)))
		})
	})

	Describe("RAT consistency", func() {
		It("should keep the RAT pointing at the youngest writer across commits", func() {
			core := newCore([]uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00200093, // ADDI x1, x0, 2
				0x00000073, // ECALL
			})

			// Step until the first writer commits.
			for i := 0; i < maxTestCycles && core.Stats().Instructions < 1; i++ {
				core.Tick()
			}
			Expect(core.Stats().Instructions).To(Equal(uint64(1)))
			Expect(regFile.Read(1)).To(Equal(uint32(1)))

			// The second writer is still in flight, so the RAT entry
			// must not have been cleared by the first commit.
			Expect(core.RAT().Exists(1)).To(BeTrue())
			Expect(core.RAT().Get(1)).To(Equal(1))

			core.RunCycles(maxTestCycles)
			Expect(core.Exited()).To(BeTrue())
			Expect(regFile.Read(1)).To(Equal(uint32(2)))
			Expect(core.RAT().Exists(1)).To(BeFalse())
		})
	})

	Describe("Structural stalls", func() {
		It("should stall issue on a full reservation station pool and recover", func() {
			core := run([]uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00208113, // ADDI x2, x1, 2
				0x00310193, // ADDI x3, x2, 3
				0x00418213, // ADDI x4, x3, 4
				0x00000073, // ECALL
			}, ooo.WithRSCount(1))

			Expect(core.Stats().IssueStalls).To(BeNumerically(">", 0))
			Expect(regFile.Read(4)).To(Equal(uint32(10)))
		})
	})

	Describe("Decode failures", func() {
		It("should halt with an error on an illegal instruction", func() {
			core := newCore([]uint32{
				0xFFFFFFFF, // not an instruction
			})
			core.RunCycles(maxTestCycles)

			Expect(core.Halted()).To(BeTrue())
			Expect(core.Exited()).To(BeFalse())
			Expect(core.Err()).To(MatchError(insts.ErrIllegalInstr))
		})

		It("should surface the decode error from Run", func() {
			core := newCore([]uint32{
				0xFFFFFFFF, // not an instruction
			})

			Expect(core.Run()).To(MatchError(insts.ErrIllegalInstr))
		})
	})

	Describe("Counters", func() {
		It("should never retire more than it fetched", func() {
			core := newCore([]uint32{
				0x00100093, // ADDI x1, x0, 1
				0x00208113, // ADDI x2, x1, 2
				0x00000073, // ECALL
			})

			for i := 0; i < maxTestCycles && !core.Halted(); i++ {
				core.Tick()
				stats := core.Stats()
				Expect(stats.Instructions).To(BeNumerically("<=", stats.Fetched))
			}
			Expect(core.Exited()).To(BeTrue())
		})
	})
})

// Package main provides the entry point for the RV32I out-of-order
// core simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/loader"
	"github.com/tinyrv/ooosim/timing/cache"
	"github.com/tinyrv/ooosim/timing/core"
	"github.com/tinyrv/ooosim/timing/latency"
	"github.com/tinyrv/ooosim/timing/ooo"
)

var (
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	useDCache  = flag.Bool("dcache", false, "Enable L1 data cache")
	raw        = flag.Bool("raw", false, "Treat the program as a raw flat image")
	rawBase    = flag.Uint("base", 0, "Load address for raw flat images")
	maxCycles  = flag.Uint64("max-cycles", 0, "Stop after this many cycles (0 = no limit)")
	trace      = flag.Bool("trace", false, "Trace issue and commit to stderr")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: ooosim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	var prog *loader.Program
	var err error
	if *raw {
		prog, err = loader.LoadRaw(programPath, uint32(*rawBase))
	} else {
		prog, err = loader.Load(programPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	var timingConfig *latency.TimingConfig
	if *configPath != "" {
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		if err := timingConfig.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid timing config: %v\n", err)
			os.Exit(1)
		}
	} else {
		timingConfig = latency.DefaultTimingConfig()
	}

	memory := emu.NewMemory()
	regFile := emu.NewRegFile()

	for _, seg := range prog.Segments {
		memory.LoadBytes(seg.VirtAddr, seg.Data)
		// Zero-fill BSS (memsize > filesize)
		for i := uint32(len(seg.Data)); i < seg.MemSize; i++ {
			memory.Write8(seg.VirtAddr+i, 0)
		}
	}

	opts := []ooo.CoreOption{
		ooo.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
	}
	if *useDCache {
		dcache := cache.New(cache.DefaultL1DConfig(), cache.NewMemoryBacking(memory))
		opts = append(opts, ooo.WithDataMem(cache.NewPort(dcache)))
	}
	if *trace {
		opts = append(opts, ooo.WithTrace(os.Stderr))
	}

	c := core.NewCore(regFile, memory, opts...)
	c.SetPC(prog.EntryPoint)

	if *maxCycles > 0 {
		c.RunCycles(*maxCycles)
	} else if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation stopped: %v\n", err)
		os.Exit(1)
	}

	stats := c.Stats()
	fmt.Printf("\n")
	fmt.Printf("Program: %s\n", programPath)
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	if stats.Instructions > 0 {
		fmt.Printf("CPI: %.2f\n", float64(stats.Cycles)/float64(stats.Instructions))
	}
	fmt.Printf("Issue stalls: %d\n", stats.IssueStalls)
}

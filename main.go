// Package main provides the entry point for ooosim.
// ooosim is a cycle-level RV32I out-of-order core simulator.
//
// For the full CLI, use: go run ./cmd/ooosim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("ooosim - RV32I Out-of-Order Core Simulator")
	fmt.Println("Tomasulo issue, execute, writeback, and in-order commit")
	fmt.Println("")
	fmt.Println("Usage: ooosim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to timing configuration JSON file")
	fmt.Println("  -dcache      Enable L1 data cache")
	fmt.Println("  -trace       Trace issue and commit to stderr")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/ooosim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/ooosim' instead.")
	}
}

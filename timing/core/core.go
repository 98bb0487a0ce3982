// Package core provides the cycle-level CPU core model.
// It wraps the out-of-order engine to provide a high-level interface.
package core

import (
	"github.com/tinyrv/ooosim/emu"
	"github.com/tinyrv/ooosim/timing/ooo"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Fetched is the number of instructions fetched.
	Fetched uint64
	// IssueStalls is the number of structural stall cycles at issue.
	IssueStalls uint64
}

// Core represents a cycle-level CPU core model. It wraps the Tomasulo
// out-of-order engine and provides a simple interface for simulation.
type Core struct {
	// Engine is the underlying out-of-order engine.
	Engine *ooo.Core

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a new Core with the given register file and memory.
func NewCore(regFile *emu.RegFile, memory *emu.Memory, opts ...ooo.CoreOption) *Core {
	return &Core{
		Engine:  ooo.NewCore(regFile, memory, opts...),
		regFile: regFile,
		memory:  memory,
	}
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.Engine.SetPC(pc)
}

// Tick executes one core cycle.
func (c *Core) Tick() {
	c.Engine.Tick()
}

// Halted returns true if the core has halted (committed terminator or
// fatal decode error).
func (c *Core) Halted() bool {
	return c.Engine.Halted()
}

// Exited returns true if the core halted through a committed
// terminator instruction.
func (c *Core) Exited() bool {
	return c.Engine.Exited()
}

// Err returns the fatal decode error that halted the core, if any.
func (c *Core) Err() error {
	return c.Engine.Err()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	engineStats := c.Engine.Stats()
	return Stats{
		Cycles:       engineStats.Cycles,
		Instructions: engineStats.Instructions,
		Fetched:      engineStats.Fetched,
		IssueStalls:  engineStats.IssueStalls,
	}
}

// Run executes the core until it halts.
func (c *Core) Run() error {
	return c.Engine.Run()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Engine.RunCycles(cycles)
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.Engine.Reset()
}

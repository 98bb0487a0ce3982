// Package latency provides functional unit timing models for
// cycle-level simulation. Latencies are configurable via TimingConfig.
package latency

import (
	"github.com/tinyrv/ooosim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a latency table with a custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// Latency returns the execution latency in cycles for the given
// instruction, by functional unit and operation kind.
func (t *Table) Latency(instr *insts.Instr) uint64 {
	if instr == nil {
		return 1
	}

	switch instr.FUType {
	case insts.FUTypeBRU:
		return t.config.BranchLatency
	case insts.FUTypeLSU:
		if instr.ExeFlags.IsStore() {
			return t.config.StoreLatency
		}
		return t.config.LoadLatency
	case insts.FUTypeSFU:
		return t.config.CSRLatency
	default:
		return t.config.ALULatency
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

package loader

import (
	"fmt"
	"os"
)

// LoadRaw reads a raw flat image of little-endian RV32 instructions.
// Execution begins at base.
func LoadRaw(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("raw image size %d is not a multiple of 4", len(data))
	}

	return &Program{
		EntryPoint: base,
		Segments: []Segment{
			{
				VirtAddr: base,
				Data:     data,
				MemSize:  uint32(len(data)),
				Flags:    SegmentFlagRead | SegmentFlagExecute,
			},
		},
	}, nil
}

package emu

// pageSize is the granularity of memory allocation.
const pageSize = 4096

// Memory is a sparse byte-addressed memory for 32-bit address spaces.
// Pages are allocated on first write; reads from unallocated pages
// return zero.
type Memory struct {
	pages map[uint32][]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint32][]byte),
	}
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) uint8 {
	page, ok := m.pages[addr/pageSize]
	if !ok {
		return 0
	}
	return page[addr%pageSize]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	pageID := addr / pageSize
	page, ok := m.pages[pageID]
	if !ok {
		page = make([]byte, pageSize)
		m.pages[pageID] = page
	}
	page[addr%pageSize] = value
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr)) | uint32(m.Read16(addr+2))<<16
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write16(addr, uint16(value))
	m.Write16(addr+2, uint16(value>>16))
}

// LoadBytes copies a byte image into memory starting at base.
func (m *Memory) LoadBytes(base uint32, data []byte) {
	for i, b := range data {
		m.Write8(base+uint32(i), b)
	}
}

// LoadWords copies a sequence of 32-bit words into memory starting at
// base, one word every four bytes.
func (m *Memory) LoadWords(base uint32, words []uint32) {
	for i, w := range words {
		m.Write32(base+uint32(i)*4, w)
	}
}

// Reset discards all memory contents.
func (m *Memory) Reset() {
	m.pages = make(map[uint32][]byte)
}

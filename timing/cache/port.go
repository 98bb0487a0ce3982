package cache

// Port exposes the cache as a data memory port for the load/store
// unit. Loads and stores report the cache access latency as extra
// cycles on top of the unit's base latency.
type Port struct {
	cache *Cache
}

// NewPort creates a data port over the cache.
func NewPort(c *Cache) *Port {
	return &Port{cache: c}
}

// Load reads size bytes at addr through the cache.
func (p *Port) Load(addr uint32, size int) (uint32, uint64) {
	result := p.cache.Read(addr, size)
	return result.Data, result.Latency
}

// Store writes the low size bytes of value at addr through the cache.
func (p *Port) Store(addr uint32, size int, value uint32) uint64 {
	result := p.cache.Write(addr, size, value)
	return result.Latency
}

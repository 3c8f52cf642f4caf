package regmap

import (
	"sort"
	"sync"
)

// Mem is an in-memory register file. Unwritten registers read as zero.
// It is safe for concurrent use.
type Mem struct {
	mu   sync.RWMutex
	regs map[uint32]uint32
}

// NewMem creates an empty register file.
func NewMem() *Mem {
	return &Mem{regs: make(map[uint32]uint32)}
}

// Read32 returns the register value at offset.
func (m *Mem) Read32(offset uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regs[offset]
}

// Write32 stores val at offset.
func (m *Mem) Write32(offset uint32, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[offset] = val
}

// Offsets returns the offsets of all registers written so far, in
// ascending order.
func (m *Mem) Offsets() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]uint32, 0, len(m.regs))
	for off := range m.regs {
		out = append(out, off)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compile-time interface satisfaction check.
var _ Accessor = (*Mem)(nil)

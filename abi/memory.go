// Package abi implements the low-level calling convention guest WASM
// modules and the host runtime use to exchange data: a bump allocator the
// host drives through alloc/dealloc exports, a small LIFO length stack for
// pointer-only results, and a last-result slot for signed-length results.
package abi

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Memory wraps a guest instance's linear memory with bounds-checked
// helpers. A raw api.Memory.Read/Write returns ok=false on an out-of-range
// access instead of panicking or erroring, which this type turns into a Go
// error carrying enough context to blame the right guest call.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps mem for bounds-checked access.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// Read copies exactly length bytes starting at offset out of guest memory.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("abi: out-of-bounds read at offset %d len %d (memory size %d)", offset, length, m.mem.Size())
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

// Write copies data into guest memory starting at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("abi: out-of-bounds write at offset %d len %d (memory size %d)", offset, len(data), m.mem.Size())
	}
	return nil
}

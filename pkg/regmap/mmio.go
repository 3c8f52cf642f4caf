package regmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

// DevMem is the physical memory device used for MMIO mappings.
const DevMem = "/dev/mem"

// ErrUnaligned is returned when a mapping or access is not 32-bit aligned.
var ErrUnaligned = errors.New("regmap: unaligned address")

// MMIO is a window of physical memory mapped from /dev/mem.
type MMIO struct {
	mm   mmap.MMap
	offs uintptr
	size uint32
}

// MapMMIO maps size bytes of physical memory starting at physAddr.
// The mapping starts at the enclosing page boundary; accesses are relative
// to physAddr.
func MapMMIO(physAddr uintptr, size uint32) (*MMIO, error) {
	return mapFile(DevMem, physAddr, size)
}

func mapFile(path string, physAddr uintptr, size uint32) (*MMIO, error) {
	if physAddr%4 != 0 {
		return nil, fmt.Errorf("%w: %#x", ErrUnaligned, physAddr)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", path, err)
	}
	defer f.Close()

	pageSize := uintptr(os.Getpagesize())
	mapAddr := physAddr &^ (pageSize - 1)
	offs := physAddr - mapAddr

	mm, err := mmap.MapRegion(f, int(size)+int(offs), mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, fmt.Errorf("couldn't map region (%#x, %d): %w", physAddr, size, err)
	}

	return &MMIO{mm: mm, offs: offs, size: size}, nil
}

// Read32 performs a single 32-bit load from the mapped window.
func (m *MMIO) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(m.reg(offset))
}

// Write32 performs a single 32-bit store to the mapped window.
func (m *MMIO) Write32(offset uint32, val uint32) {
	atomic.StoreUint32(m.reg(offset), val)
}

// Size returns the size of the accessible window in bytes.
func (m *MMIO) Size() uint32 {
	return m.size
}

// Close unmaps the window.
func (m *MMIO) Close() error {
	if m.mm == nil {
		return nil
	}
	err := m.mm.Unmap()
	m.mm = nil
	return err
}

func (m *MMIO) reg(offset uint32) *uint32 {
	if offset%4 != 0 || offset+4 > m.size {
		panic(fmt.Sprintf("regmap: access at %#x outside %d byte window", offset, m.size))
	}
	return (*uint32)(unsafe.Pointer(&m.mm[m.offs+uintptr(offset)]))
}

// Compile-time interface satisfaction check.
var _ Accessor = (*MMIO)(nil)

package regmap

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/secclk/clkcore/pkg/regmap/mocks"
)

func TestClrSet(t *testing.T) {
	m := NewMem()
	m.Write32(0x10, 0xFF00)

	ClrSet(m, 0x10, 0x0F00, 0x0003)

	if got := m.Read32(0x10); got != 0xF003 {
		t.Errorf("expected 0xF003, got %#x", got)
	}
}

func TestSetAndClearBits(t *testing.T) {
	m := NewMem()

	SetBits(m, 0, 1<<4)
	SetBits(m, 0, 1<<1)
	ClearBits(m, 0, 1<<4)

	if got := m.Read32(0); got != 1<<1 {
		t.Errorf("expected %#x, got %#x", 1<<1, got)
	}
}

func TestFieldAndPrep(t *testing.T) {
	tests := []struct {
		name string
		mask uint32
		val  uint32
		reg  uint32
	}{
		{"low", 0x7F, 0x12, 0x12},
		{"mid", GenMask(10, 8), 5, 5 << 8},
		{"top", GenMask(31, 25), 0x7F, 0xFE000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Prep(tt.mask, tt.val); got != tt.reg {
				t.Errorf("Prep: expected %#x, got %#x", tt.reg, got)
			}
			if got := Field(tt.mask, tt.reg); got != tt.val {
				t.Errorf("Field: expected %#x, got %#x", tt.val, got)
			}
		})
	}
}

func TestGenMask(t *testing.T) {
	if got := GenMask(6, 0); got != 0x7F {
		t.Errorf("GenMask(6,0): expected 0x7f, got %#x", got)
	}
	if got := GenMask(27, 20); got != 0x0FF00000 {
		t.Errorf("GenMask(27,20): expected 0x0ff00000, got %#x", got)
	}
	if got := GenMask(31, 0); got != 0xFFFFFFFF {
		t.Errorf("GenMask(31,0): expected 0xffffffff, got %#x", got)
	}
}

func TestClrSetUsesSingleReadModifyWrite(t *testing.T) {
	acc := mocks.NewMockAccessor(t)

	acc.EXPECT().Read32(uint32(0x28)).Return(uint32(0xFFFF0000)).Once()
	acc.EXPECT().Write32(uint32(0x28), uint32(0xFF0000AA)).Return().Once()

	ClrSet(acc, 0x28, 0x00FF0000, 0xAA)
}

func TestMemOffsets(t *testing.T) {
	m := NewMem()
	m.Write32(0x30, 1)
	m.Write32(0x00, 1)
	m.Write32(0x10C, 1)

	got := m.Offsets()
	want := []uint32{0x00, 0x30, 0x10C}
	if len(got) != len(want) {
		t.Fatalf("expected %d offsets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d: expected %#x, got %#x", i, want[i], got[i])
		}
	}
}

func TestMockAccessorRunAndReturn(t *testing.T) {
	acc := mocks.NewMockAccessor(t)
	regs := map[uint32]uint32{}

	acc.EXPECT().Write32(mock.Anything, mock.Anything).Run(func(off, val uint32) {
		regs[off] = val
	}).Return()
	acc.EXPECT().Read32(mock.Anything).RunAndReturn(func(off uint32) uint32 {
		return regs[off]
	})

	SetBits(acc, 0x04, 0x3)

	if regs[0x04] != 0x3 {
		t.Errorf("expected 0x3, got %#x", regs[0x04])
	}
}

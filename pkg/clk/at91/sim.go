package at91

import (
	"sync"

	"github.com/secclk/clkcore/pkg/regmap"
)

// Boot register values loaded by NewSim: MCK from PLLA at 996 MHz halved,
// /3, giving 166 MHz with H32MX at 83 MHz, on a 12 MHz crystal.
const (
	SimBootPLLAR = 1 | pllMaxCount<<pllCountPos | 82<<18
	SimBootMCKR  = 2 | 3<<8 | MCKRPLLADIV2 | MCKRH32MXDIV
	SimBootMOR   = MORMoscXTEN | MORMoscRCEN | MORMoscSel | MORKey
)

var simPLLMul = regmap.GenMask(26, 16)

// Sim is an in-memory PMC. It implements regmap.Accessor and reproduces the
// register side effects the drivers depend on: SCER/SCDR update SCSR,
// oscillator and PLL enables raise their SR ready bits, and PCR behaves as
// an indirect window selected by PID.
type Sim struct {
	mu     sync.Mutex
	mem    *regmap.Mem
	pcr    map[uint32]uint32
	pcrSel uint32
}

// NewSim creates a PMC in a running boot configuration.
func NewSim() *Sim {
	s := &Sim{mem: regmap.NewMem(), pcr: make(map[uint32]uint32)}
	s.mem.Write32(RegMOR, SimBootMOR)
	s.mem.Write32(RegPLLAR, SimBootPLLAR)
	s.mem.Write32(RegMCKR, SimBootMCKR)
	s.mem.Write32(RegSR, SRMoscXTS|SRMoscRCS|SRMoscSelS|SRMCKRdy|SRLockA)
	return s
}

// Read32 implements regmap.Accessor.
func (s *Sim) Read32(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch off {
	case RegPCR:
		return s.pcr[s.pcrSel] | s.pcrSel
	case RegSR:
		return s.mem.Read32(RegSR) | SRMoscSelS | SRMCKRdy
	default:
		return s.mem.Read32(off)
	}
}

// Write32 implements regmap.Accessor.
func (s *Sim) Write32(off, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch off {
	case RegSCER:
		s.mem.Write32(RegSCSR, s.mem.Read32(RegSCSR)|val)
		s.setSR(val&regmap.GenMask(15, 8), 0)
	case RegSCDR:
		s.mem.Write32(RegSCSR, s.mem.Read32(RegSCSR)&^val)
		s.setSR(0, val&regmap.GenMask(15, 8))
	case RegPCR:
		s.pcrSel = val & PCRPID
		if val&PCRCmd != 0 {
			s.pcr[s.pcrSel] = val &^ (PCRCmd | PCRPID)
		}
	case RegPLLAR:
		s.mem.Write32(off, val)
		s.setIf(val&simPLLMul != 0, SRLockA)
	case RegUCKR:
		s.mem.Write32(off, val)
		s.setIf(val&UCKRUPLLEN != 0, SRLockU)
	case RegMOR:
		s.mem.Write32(off, val)
		s.setIf(val&MORMoscRCEN != 0, SRMoscRCS)
		s.setIf(val&(MORMoscXTEN|MORMoscXTBY) != 0, SRMoscXTS)
	default:
		s.mem.Write32(off, val)
	}
}

func (s *Sim) setSR(set, clr uint32) {
	s.mem.Write32(RegSR, s.mem.Read32(RegSR)&^clr|set)
}

func (s *Sim) setIf(cond bool, bit uint32) {
	if cond {
		s.setSR(bit, 0)
	} else {
		s.setSR(0, bit)
	}
}

// PCR returns the stored configuration of peripheral pid without touching
// the selection.
func (s *Sim) PCR(pid uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pcr[pid&PCRPID]
}

// Offsets returns the directly stored register offsets.
func (s *Sim) Offsets() []uint32 {
	return s.mem.Offsets()
}

// Compile-time interface satisfaction check.
var _ regmap.Accessor = (*Sim)(nil)

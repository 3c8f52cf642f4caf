package at91

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/secclk/clkcore/pkg/regmap"
)

// PMC register offsets.
const (
	RegSCER      uint32 = 0x00
	RegSCDR      uint32 = 0x04
	RegSCSR      uint32 = 0x08
	RegUCKR      uint32 = 0x1C
	RegMOR       uint32 = 0x20
	RegMCFR      uint32 = 0x24
	RegPLLAR     uint32 = 0x28
	RegMCKR      uint32 = 0x30
	RegUSB       uint32 = 0x38
	RegPCK0      uint32 = 0x40
	RegSR        uint32 = 0x68
	RegPLLICPR   uint32 = 0x80
	RegPCR       uint32 = 0x10C
	RegAudioPLL0 uint32 = 0x14C
	RegAudioPLL1 uint32 = 0x150
)

// RegSFRI2SCLK is the I2S clock select register in the SFR block.
const RegSFRI2SCLK uint32 = 0x90

const regPCKStride uint32 = 4

// RegPCK returns the offset of programmable clock register i.
func RegPCK(i int) uint32 { return RegPCK0 + uint32(i)*regPCKStride }

// SR bits.
const (
	SRMoscXTS  uint32 = 1 << 0
	SRLockA    uint32 = 1 << 1
	SRMCKRdy   uint32 = 1 << 3
	SRLockU    uint32 = 1 << 6
	SRMoscSelS uint32 = 1 << 16
	SRMoscRCS  uint32 = 1 << 17
)

// SRPCKRdy returns the ready bit of programmable clock i.
func SRPCKRdy(i int) uint32 { return 1 << (8 + uint(i)) }

// MOR fields. Every MOR write must carry the key.
const (
	MORMoscXTEN uint32 = 1 << 0
	MORMoscXTBY uint32 = 1 << 1
	MORMoscRCEN uint32 = 1 << 3
	MORKey      uint32 = 0x37 << 16
	MORMoscSel  uint32 = 1 << 24
)

var (
	morKeyMask   = regmap.GenMask(23, 16)
	morStartMask = regmap.GenMask(15, 8)
)

// UCKR fields.
const (
	UCKRUPLLEN uint32 = 1 << 16
)

var uckrCountMask = regmap.GenMask(23, 20)

// MCKR fields.
var (
	MCKRCSS  = regmap.GenMask(1, 0)
	MCKRPres = regmap.GenMask(6, 4)
	MCKRMDiv = regmap.GenMask(9, 8)
)

const (
	MCKRPLLADIV2 uint32 = 1 << 12
	MCKRH32MXDIV uint32 = 1 << 24
)

// USB register fields.
var USBDiv = regmap.GenMask(11, 8)

const USBS uint32 = 1 << 0

// PCK fields.
var (
	PCKCSS  = regmap.GenMask(2, 0)
	PCKPres = regmap.GenMask(11, 4)
)

// PCR fields.
var (
	PCRPID    = regmap.GenMask(6, 0)
	PCRGCKCSS = regmap.GenMask(10, 8)
	PCRDiv    = regmap.GenMask(17, 16)
	PCRGCKDiv = regmap.GenMask(27, 20)
)

const (
	PCRCmd   uint32 = 1 << 12
	PCREn    uint32 = 1 << 28
	PCRGCKEn uint32 = 1 << 29
)

// Audio PLL fields.
const (
	AudioPLLResetN uint32 = 1 << 0
	AudioPLLEn     uint32 = 1 << 1
	AudioPLLPadEn  uint32 = 1 << 2
	AudioPLLPMCEn  uint32 = 1 << 3
)

var (
	AudioPLLQDPMC   = regmap.GenMask(14, 8)
	AudioPLLND      = regmap.GenMask(31, 25)
	AudioPLLFracR   = regmap.GenMask(21, 0)
	AudioPLLDiv     = regmap.GenMask(25, 24)
	AudioPLLQDAudio = regmap.GenMask(30, 26)
	AudioPLLQDPad   = AudioPLLDiv | AudioPLLQDAudio
)

// ErrTimeout indicates a status bit that never became ready.
var ErrTimeout = errors.New("pmc ready timeout")

// DefaultPollTimeout bounds every wait on a PMC status bit.
const DefaultPollTimeout = 100 * time.Millisecond

// Regs wraps a register accessor for the drivers of one PMC. It serializes
// read-modify-write cycles because several clocks share a register (MCKR,
// the audio PLL pair, PCR).
type Regs struct {
	mu      sync.Mutex
	a       regmap.Accessor
	timeout time.Duration
}

// NewRegs creates a Regs over a.
func NewRegs(a regmap.Accessor) *Regs {
	return &Regs{a: a, timeout: DefaultPollTimeout}
}

// SetPollTimeout changes the bound on ready waits.
func (r *Regs) SetPollTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

func (r *Regs) read(off uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.a.Read32(off)
}

func (r *Regs) write(off, val uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.a.Write32(off, val)
}

func (r *Regs) clrset(off, clr, set uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regmap.ClrSet(r.a, off, clr, set)
}

// morUpdate performs a keyed MOR read-modify-write.
func (r *Regs) morUpdate(clr, set uint32) {
	r.clrset(RegMOR, clr|morKeyMask, set|MORKey)
}

// pcrRead selects pid and returns its PCR configuration.
func (r *Regs) pcrRead(pid uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.a.Write32(RegPCR, pid&PCRPID)
	return r.a.Read32(RegPCR)
}

// pcrUpdate selects pid and rewrites its configuration.
func (r *Regs) pcrUpdate(pid, clr, set uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.a.Write32(RegPCR, pid&PCRPID)
	regmap.ClrSet(r.a, RegPCR, clr, set)
}

// waitSR polls SR until every bit in mask is set.
func (r *Regs) waitSR(mask uint32) error {
	r.mu.Lock()
	timeout := r.timeout
	r.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for r.read(RegSR)&mask != mask {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: SR mask %#x", ErrTimeout, mask)
		}
	}
	return nil
}

func prep(mask, val uint32) uint32 { return regmap.Prep(mask, val) }

func field(mask, reg uint32) uint32 { return regmap.Field(mask, reg) }

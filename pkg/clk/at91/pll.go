package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const (
	pllDivMask  = 0xff
	pllDivMax   = pllDivMask
	pllMulMin   = 2
	pllMaxCount = 0x3f
	pllCountPos = 8
	pllOutPos   = 14
	pllMaxID    = 1
)

// PLLLayout describes the PLLxR register of a PMC generation.
type PLLLayout struct {
	PLLRMask uint32
	MulShift uint
	MulMask  uint32
}

// SAMA5D3PLLLayout is the PLLA layout shared by SAMA5D2/D3/D4.
var SAMA5D3PLLLayout = PLLLayout{
	PLLRMask: 0x1FFFFFF,
	MulShift: 18,
	MulMask:  0x7F,
}

// Range is an inclusive frequency band in Hz.
type Range struct {
	Min, Max uint64
}

// Contains reports whether hz lies in the band.
func (r Range) Contains(hz uint64) bool {
	return hz >= r.Min && hz <= r.Max
}

// PLLCharacteristics bounds the PLL input and output rates. ICPLL and Out
// are per output band and may be nil.
type PLLCharacteristics struct {
	Input  Range
	Output []Range
	ICPLL  []uint16
	Out    []uint8
}

// SAMA5D2PLLACharacteristics are the PLLA limits of the SAMA5D2.
var SAMA5D2PLLACharacteristics = PLLCharacteristics{
	Input:  Range{Min: 12000000, Max: 24000000},
	Output: []Range{{Min: 600000000, Max: 1200000000}},
	ICPLL:  []uint16{0},
	Out:    []uint8{0},
}

// PLL is an integer multiplier/divider PLL: rate = parent / div * (mul + 1).
type PLL struct {
	regs   *Regs
	id     uint8
	layout PLLLayout
	chars  PLLCharacteristics

	div  uint32
	mul  uint32
	band int
}

// NewPLL creates a PLL driver and loads its divider and multiplier from
// hardware.
func NewPLL(regs *Regs, id uint8, layout PLLLayout, chars PLLCharacteristics) (*PLL, error) {
	if id > pllMaxID {
		return nil, fmt.Errorf("%w: pll id %d", clk.ErrConfiguration, id)
	}
	p := &PLL{regs: regs, id: id, layout: layout, chars: chars}
	pllr := regs.read(p.reg())
	p.div = pllr & pllDivMask
	p.mul = (pllr >> layout.MulShift) & layout.MulMask
	return p, nil
}

// NewPLLNode creates the clock node for a PLL.
func NewPLLNode(name string, p *PLL, parent *clk.Node) *clk.Node {
	return clk.New(name, p, clk.FlagSetRateGate, parent)
}

func (p *PLL) reg() uint32 { return RegPLLAR + uint32(p.id)*4 }

func (p *PLL) lockMask() uint32 { return 1 << (1 + uint32(p.id)) }

// Settings returns the programmed divider, stored multiplier (M-1) and
// output band index.
func (p *PLL) Settings() (div, mul uint32, band int) {
	return p.div, p.mul, p.band
}

// Enable programs the PLL and waits for lock. An already locked PLL with
// matching settings is left untouched.
func (p *PLL) Enable() error {
	pllr := p.regs.read(p.reg())
	div := pllr & pllDivMask
	mul := (pllr >> p.layout.MulShift) & p.layout.MulMask
	if p.regs.read(RegSR)&p.lockMask() != 0 && div == p.div && mul == p.mul {
		return nil
	}

	var out uint32
	if p.chars.Out != nil {
		out = uint32(p.chars.Out[p.band])
	}
	if p.chars.ICPLL != nil {
		shift := uint32(p.id) * 16
		p.regs.clrset(RegPLLICPR, 0xffff<<shift, uint32(p.chars.ICPLL[p.band])<<shift)
	}
	p.regs.clrset(p.reg(), p.layout.PLLRMask,
		p.div|pllMaxCount<<pllCountPos|out<<pllOutPos|(p.mul&p.layout.MulMask)<<p.layout.MulShift)

	return p.regs.waitSR(p.lockMask())
}

// Disable clears the PLL settings, which stops it.
func (p *PLL) Disable() {
	p.regs.clrset(p.reg(), p.layout.PLLRMask, 0)
}

// IsEnabled reports the lock status.
func (p *PLL) IsEnabled() bool {
	return p.regs.read(RegSR)&p.lockMask() != 0
}

// Rate returns parent / div * (mul + 1), or 0 when unprogrammed.
func (p *PLL) Rate(parent uint64) uint64 {
	if p.div == 0 || p.mul == 0 {
		return 0
	}
	return parent / uint64(p.div) * uint64(p.mul+1)
}

// SetRate records the best divider and multiplier for rate. The hardware is
// programmed on the next Enable.
func (p *PLL) SetRate(rate, parent uint64) error {
	_, div, mul, band, err := p.BestDivMul(rate, parent)
	if err != nil {
		return err
	}
	p.div, p.mul, p.band = div, mul, band
	return nil
}

// BestDivMul searches the divider/multiplier pair closest to rate. It
// returns the achieved rate, the divider, the stored multiplier (M-1) and
// the output band index.
func (p *PLL) BestDivMul(rate, parent uint64) (best uint64, div, mul uint32, band int, err error) {
	if rate == 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	if parent < p.chars.Input.Min {
		return 0, 0, 0, 0, fmt.Errorf("%w: input %d below %d", clk.ErrOutOfRange, parent, p.chars.Input.Min)
	}

	mulMax := uint64(p.layout.MulMask) + 1

	mindiv := parent * pllMulMin / rate
	if mindiv == 0 {
		mindiv = 1
	}
	if parent > p.chars.Input.Max {
		tmp := divRoundUp(parent, p.chars.Input.Max)
		if tmp > pllDivMax {
			return 0, 0, 0, 0, fmt.Errorf("%w: input %d needs divider %d", clk.ErrOutOfRange, parent, tmp)
		}
		if tmp > mindiv {
			mindiv = tmp
		}
	}

	maxdiv := divRoundUp(parent*mulMax, rate)
	if maxdiv > pllDivMax {
		maxdiv = pllDivMax
	}

	found := false
	var bestRem, bestDiv, bestMul uint64
	for d := mindiv; d <= maxdiv; d++ {
		step := parent / d
		if step == 0 {
			break
		}
		m := divRoundClosest(rate, step)
		if m < 1 || m > mulMax {
			continue
		}
		got := step * m
		rem := absDiff(got, rate)
		if !found || rem < bestRem {
			found = true
			bestRem, bestDiv, bestMul, best = rem, d, m, got
		}
		if rem == 0 {
			break
		}
	}
	if !found {
		return 0, 0, 0, 0, fmt.Errorf("%w: %d Hz from %d Hz", clk.ErrUnsupportedRate, rate, parent)
	}

	band = -1
	for i, r := range p.chars.Output {
		if r.Contains(best) {
			band = i
			break
		}
	}
	if band < 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %d Hz outside PLL output", clk.ErrOutOfRange, best)
	}
	return best, uint32(bestDiv), uint32(bestMul - 1), band, nil
}

func divRoundUp(n, d uint64) uint64 {
	return (n + d - 1) / d
}

func divRoundClosest(n, d uint64) uint64 {
	return (n + d/2) / d
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const (
	peripheralIDMin    = 2
	peripheralMaxShift = 3
)

// PCRLayout describes the peripheral control register fields. A zero
// DivMask means the peripheral clocks have no divider.
type PCRLayout struct {
	PIDMask    uint32
	Cmd        uint32
	DivMask    uint32
	GCKCSSMask uint32
}

// SAMA5D2PCRLayout is the PCR layout of the SAMA5D2.
var SAMA5D2PCRLayout = PCRLayout{
	PIDMask:    PCRPID,
	Cmd:        PCRCmd,
	DivMask:    PCRDiv,
	GCKCSSMask: PCRGCKCSS,
}

// Peripheral is a peripheral clock gate with an optional power-of-two
// divider, rate = parent >> div. IDs below 2 are always-on pass-through
// clocks.
type Peripheral struct {
	regs    *Regs
	layout  PCRLayout
	id      uint32
	rng     Range
	div     uint32
	autoDiv bool
}

// NewPeripheral creates the driver for peripheral id. A zero rng.Max means
// the clock runs at its parent rate.
func NewPeripheral(regs *Regs, layout PCRLayout, id uint32, rng Range) *Peripheral {
	return &Peripheral{
		regs:    regs,
		layout:  layout,
		id:      id,
		rng:     rng,
		autoDiv: layout.DivMask != 0,
	}
}

// NewPeripheralNode creates the clock node for a peripheral gate. The
// divider is only written on enable, so rate changes are refused while the
// gate is on.
func NewPeripheralNode(name string, p *Peripheral, parent *clk.Node) *clk.Node {
	return clk.New(name, p, clk.FlagSetRateGate, parent)
}

// ID returns the peripheral identifier.
func (p *Peripheral) ID() uint32 { return p.id }

// Div returns the divider shift currently in use.
func (p *Peripheral) Div() uint32 { return p.div }

func (p *Peripheral) autodiv(parent uint64) {
	if !p.autoDiv {
		return
	}
	var shift uint32
	if p.rng.Max != 0 {
		if parent == 0 {
			return
		}
		for ; shift < peripheralMaxShift; shift++ {
			if parent>>shift <= p.rng.Max {
				break
			}
		}
	}
	p.autoDiv = false
	p.div = shift
}

// Enable writes the divider and sets EN.
func (p *Peripheral) Enable() error {
	if p.id < peripheralIDMin {
		return nil
	}
	mask := p.layout.DivMask | p.layout.Cmd | PCREn
	p.regs.pcrUpdate(p.id&p.layout.PIDMask, mask, prep(p.layout.DivMask, p.div)|p.layout.Cmd|PCREn)
	return nil
}

// Disable clears EN.
func (p *Peripheral) Disable() {
	if p.id < peripheralIDMin {
		return
	}
	p.regs.pcrUpdate(p.id&p.layout.PIDMask, PCREn|p.layout.Cmd, p.layout.Cmd)
}

// IsEnabled reads EN; IDs below 2 are always on.
func (p *Peripheral) IsEnabled() bool {
	if p.id < peripheralIDMin {
		return true
	}
	return p.regs.pcrRead(p.id&p.layout.PIDMask)&PCREn != 0
}

// Rate takes the divider from hardware while the clock runs, otherwise
// picks the automatic divider once.
func (p *Peripheral) Rate(parent uint64) uint64 {
	if p.id < peripheralIDMin {
		return parent
	}
	status := p.regs.pcrRead(p.id & p.layout.PIDMask)
	if status&PCREn != 0 {
		p.div = field(p.layout.DivMask, status)
		p.autoDiv = false
	} else {
		p.autodiv(parent)
	}
	return parent >> p.div
}

// SetRate accepts only rates reachable by an exact shift of the parent. The
// new divider takes effect at the next Enable; while EN is set Rate keeps
// reporting the divider found in hardware.
func (p *Peripheral) SetRate(rate, parent uint64) error {
	if p.id < peripheralIDMin || p.rng.Max == 0 {
		if rate == parent {
			return nil
		}
		return fmt.Errorf("%w: %d Hz is fixed to parent %d Hz", clk.ErrUnsupportedRate, rate, parent)
	}
	if rate > p.rng.Max {
		return fmt.Errorf("%w: %d Hz above %d Hz", clk.ErrOutOfRange, rate, p.rng.Max)
	}
	for shift := uint32(0); shift <= peripheralMaxShift; shift++ {
		if parent>>shift == rate {
			p.autoDiv = false
			p.div = shift
			return nil
		}
	}
	return fmt.Errorf("%w: %d Hz from %d Hz", clk.ErrUnsupportedRate, rate, parent)
}

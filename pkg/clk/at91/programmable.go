package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const (
	progMaxPres    = 0xff
	progNumParents = 6
)

// Programmable is a PCK output: a six-input mux (CSS) and a direct
// prescaler, rate = parent / (PRES + 1). Gating is done by the matching
// system clock.
type Programmable struct {
	regs *Regs
	id   int
}

// NewProgrammable creates the driver for PCKid.
func NewProgrammable(regs *Regs, id int) (*Programmable, error) {
	if id < 0 || id >= numProgrammable {
		return nil, fmt.Errorf("%w: programmable clock %d", clk.ErrConfiguration, id)
	}
	return &Programmable{regs: regs, id: id}, nil
}

func (p *Programmable) reg() uint32 { return RegPCK(p.id) }

// Parent returns CSS.
func (p *Programmable) Parent() int {
	css := int(field(PCKCSS, p.regs.read(p.reg())))
	if css >= progNumParents {
		// Reserved encodings fall back to the slow clock.
		return 0
	}
	return css
}

// SetParent writes CSS.
func (p *Programmable) SetParent(index int) error {
	if index < 0 || index >= progNumParents {
		return fmt.Errorf("%w: pck parent %d", clk.ErrInvalidArgument, index)
	}
	p.regs.clrset(p.reg(), PCKCSS, prep(PCKCSS, uint32(index)))
	return nil
}

// Rate returns parent / (PRES + 1).
func (p *Programmable) Rate(parent uint64) uint64 {
	pres := field(PCKPres, p.regs.read(p.reg()))
	return parent / uint64(pres+1)
}

// SetRate programs PRES = parent / rate - 1.
func (p *Programmable) SetRate(rate, parent uint64) error {
	if rate == 0 {
		return fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	div := parent / rate
	if div == 0 || div > progMaxPres+1 {
		return fmt.Errorf("%w: pck divider %d", clk.ErrUnsupportedRate, div)
	}
	p.regs.clrset(p.reg(), PCKPres, prep(PCKPres, uint32(div-1)))
	return nil
}

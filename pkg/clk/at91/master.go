package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

// PLLDiv optionally halves the PLLA output (MCKR.PLLADIV2).
type PLLDiv struct {
	regs *Regs
}

// NewPLLDiv creates the PLLA divider driver.
func NewPLLDiv(regs *Regs) *PLLDiv {
	return &PLLDiv{regs: regs}
}

// Rate returns the parent rate, halved when PLLADIV2 is set.
func (d *PLLDiv) Rate(parent uint64) uint64 {
	if d.regs.read(RegMCKR)&MCKRPLLADIV2 != 0 {
		return parent / 2
	}
	return parent
}

// SetRate accepts the parent rate or half of it.
func (d *PLLDiv) SetRate(rate, parent uint64) error {
	switch rate {
	case parent:
		d.regs.clrset(RegMCKR, MCKRPLLADIV2, 0)
	case parent / 2:
		d.regs.clrset(RegMCKR, MCKRPLLADIV2, MCKRPLLADIV2)
	default:
		return fmt.Errorf("%w: plladiv %d Hz from %d Hz", clk.ErrUnsupportedRate, rate, parent)
	}
	return nil
}

// MasterCharacteristics bounds the master clock.
type MasterCharacteristics struct {
	Output   Range
	Divisors [4]uint32
}

// SAMA5D2MasterCharacteristics are the MCK limits of the SAMA5D2.
var SAMA5D2MasterCharacteristics = MasterCharacteristics{
	Output:   Range{Min: 124000000, Max: 166000000},
	Divisors: [4]uint32{1, 2, 4, 3},
}

// MasterPres is the master clock source selector and prescaler
// (MCKR.CSS and MCKR.PRES). It reflects the boot configuration and does
// not accept changes.
type MasterPres struct {
	regs *Regs
}

// NewMasterPres creates the prescaler driver.
func NewMasterPres(regs *Regs) *MasterPres {
	return &MasterPres{regs: regs}
}

// Parent returns MCKR.CSS.
func (m *MasterPres) Parent() int {
	return int(field(MCKRCSS, m.regs.read(RegMCKR)))
}

// Rate applies the prescaler: 2^PRES, with 7 meaning divide by 3.
func (m *MasterPres) Rate(parent uint64) uint64 {
	pres := field(MCKRPres, m.regs.read(RegMCKR))
	if pres == 7 {
		return parent / 3
	}
	return parent >> pres
}

// MasterDiv is the MCK divider (MCKR.MDIV).
type MasterDiv struct {
	regs  *Regs
	chars MasterCharacteristics
}

// NewMasterDiv creates the MCK divider driver.
func NewMasterDiv(regs *Regs, chars MasterCharacteristics) *MasterDiv {
	return &MasterDiv{regs: regs, chars: chars}
}

// Rate divides by the MDIV divisor.
func (m *MasterDiv) Rate(parent uint64) uint64 {
	div := m.chars.Divisors[field(MCKRMDiv, m.regs.read(RegMCKR))]
	return parent / uint64(div)
}

// Check reports whether rate is inside the MCK band.
func (m *MasterDiv) Check(rate uint64) error {
	if !m.chars.Output.Contains(rate) {
		return fmt.Errorf("%w: MCK %d Hz outside [%d, %d]", clk.ErrOutOfRange, rate, m.chars.Output.Min, m.chars.Output.Max)
	}
	return nil
}

// H32MX is the 32-bit AHB matrix clock, MCK optionally halved.
type H32MX struct {
	regs *Regs
}

// NewH32MX creates the H32MX divider driver.
func NewH32MX(regs *Regs) *H32MX {
	return &H32MX{regs: regs}
}

// Rate returns MCK, or MCK/2 when H32MXDIV is set.
func (h *H32MX) Rate(parent uint64) uint64 {
	if h.regs.read(RegMCKR)&MCKRH32MXDIV != 0 {
		return parent / 2
	}
	return parent
}

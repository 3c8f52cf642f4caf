package at91

import (
	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/regmap"
)

// I2SMux selects the clock of an I2S bus: the peripheral clock (index 0)
// or its generated clock (index 1), one bit per bus in SFR I2SCLKSEL.
type I2SMux struct {
	sfr *Regs
	bus uint
}

// NewI2SMux creates the selector of bus over the SFR registers.
func NewI2SMux(sfr *Regs, bus uint) *I2SMux {
	return &I2SMux{sfr: sfr, bus: bus}
}

// NewI2SMuxNode creates the clock node over the peripheral and generated
// clocks of the bus.
func NewI2SMuxNode(name string, m *I2SMux, periph, gclk *clk.Node) *clk.Node {
	return clk.New(name, m, clk.FlagSetRateParent, periph, gclk)
}

// Parent returns the bus select bit.
func (m *I2SMux) Parent() int {
	return int(m.sfr.read(RegSFRI2SCLK)>>m.bus) & 1
}

// SetParent writes the bus select bit.
func (m *I2SMux) SetParent(index int) error {
	m.sfr.clrset(RegSFRI2SCLK, 1<<m.bus, uint32(index&1)<<m.bus)
	return nil
}

// newSFR returns the SFR register wrapper, backed by memory when no SFR
// window is mapped.
func newSFR(a regmap.Accessor) *Regs {
	if a == nil {
		a = regmap.NewMem()
	}
	return NewRegs(a)
}

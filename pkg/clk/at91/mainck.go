package at91

import (
	"github.com/secclk/clkcore/pkg/clk"
)

// MainRCOscRate is the rate of the internal main RC oscillator.
const MainRCOscRate = 12000000

// MainRCOsc is the internal 12 MHz RC oscillator.
type MainRCOsc struct {
	regs *Regs
	hz   uint64
}

// NewMainRCOsc creates the RC oscillator driver.
func NewMainRCOsc(regs *Regs, hz uint64) *MainRCOsc {
	return &MainRCOsc{regs: regs, hz: hz}
}

// Enable starts the oscillator and waits until it is stable.
func (o *MainRCOsc) Enable() error {
	o.regs.morUpdate(0, MORMoscRCEN)
	return o.regs.waitSR(SRMoscRCS)
}

// Disable stops the oscillator.
func (o *MainRCOsc) Disable() {
	o.regs.morUpdate(MORMoscRCEN, 0)
}

// IsEnabled reports whether the oscillator runs and is stable.
func (o *MainRCOsc) IsEnabled() bool {
	return o.regs.read(RegMOR)&MORMoscRCEN != 0 && o.regs.read(RegSR)&SRMoscRCS != 0
}

// Rate returns the nominal RC rate.
func (o *MainRCOsc) Rate(uint64) uint64 { return o.hz }

// MainOsc is the crystal oscillator. Its rate is the crystal rate; in
// bypass mode an external clock drives XIN directly.
type MainOsc struct {
	regs   *Regs
	bypass bool
}

// NewMainOsc creates the crystal oscillator driver.
func NewMainOsc(regs *Regs, bypass bool) *MainOsc {
	return &MainOsc{regs: regs, bypass: bypass}
}

// Enable starts the crystal oscillator, or selects bypass, and waits for it.
func (o *MainOsc) Enable() error {
	if o.bypass {
		o.regs.morUpdate(MORMoscXTEN, MORMoscXTBY)
	} else {
		o.regs.morUpdate(MORMoscXTBY|morStartMask, MORMoscXTEN|morStartMask)
	}
	return o.regs.waitSR(SRMoscXTS)
}

// Disable stops the oscillator and leaves bypass.
func (o *MainOsc) Disable() {
	o.regs.morUpdate(MORMoscXTEN|MORMoscXTBY, 0)
}

// IsEnabled reports whether the oscillator is stable.
func (o *MainOsc) IsEnabled() bool {
	return o.regs.read(RegSR)&SRMoscXTS != 0
}

// MainMux selects between the RC and crystal oscillators (MOR.MOSCSEL).
type MainMux struct {
	regs *Regs
}

// NewMainMux creates the main clock selector.
func NewMainMux(regs *Regs) *MainMux {
	return &MainMux{regs: regs}
}

// NewMainMuxNode creates the "mainck" style node over RC (index 0) and
// crystal (index 1).
func NewMainMuxNode(name string, m *MainMux, rc, osc *clk.Node) *clk.Node {
	return clk.New(name, m, clk.FlagSetParentGate, rc, osc)
}

// Parent returns MOR.MOSCSEL.
func (m *MainMux) Parent() int {
	if m.regs.read(RegMOR)&MORMoscSel != 0 {
		return 1
	}
	return 0
}

// SetParent switches MOSCSEL and waits for the switch to complete.
func (m *MainMux) SetParent(index int) error {
	var sel uint32
	if index == 1 {
		sel = MORMoscSel
	}
	m.regs.morUpdate(MORMoscSel, sel)
	return m.regs.waitSR(SRMoscSelS)
}

package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const systemMaxID = 31

func isPCK(id uint8) bool { return id >= 8 && id <= 15 }

// System is a gate in SCER/SCDR/SCSR. Gates 8 to 15 drive the programmable
// clock outputs and report readiness in SR.
type System struct {
	regs *Regs
	id   uint8
}

// NewSystem creates the gate for system clock id.
func NewSystem(regs *Regs, id uint8) (*System, error) {
	if id > systemMaxID {
		return nil, fmt.Errorf("%w: system clock %d", clk.ErrConfiguration, id)
	}
	return &System{regs: regs, id: id}, nil
}

// NewSystemNode creates the clock node for a system gate.
func NewSystemNode(name string, s *System, parent *clk.Node) *clk.Node {
	return clk.New(name, s, clk.FlagSetRateParent, parent)
}

// ID returns the gate bit.
func (s *System) ID() uint8 { return s.id }

func (s *System) mask() uint32 { return 1 << s.id }

// Enable opens the gate and, for PCK outputs, waits for PCKRDY.
func (s *System) Enable() error {
	s.regs.write(RegSCER, s.mask())
	if !isPCK(s.id) {
		return nil
	}
	return s.regs.waitSR(s.mask())
}

// Disable closes the gate.
func (s *System) Disable() {
	s.regs.write(RegSCDR, s.mask())
}

// IsEnabled reports SCSR, and SR readiness for PCK outputs.
func (s *System) IsEnabled() bool {
	if s.regs.read(RegSCSR)&s.mask() == 0 {
		return false
	}
	if !isPCK(s.id) {
		return true
	}
	return s.regs.read(RegSR)&s.mask() != 0
}

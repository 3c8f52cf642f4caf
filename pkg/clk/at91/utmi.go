package at91

import "github.com/secclk/clkcore/pkg/clk"

// UTMIRate is the UTMI PLL output rate.
const UTMIRate = 480000000

const utmiStartupCount = 0xf

// UTMI is the USB high-speed PLL.
type UTMI struct {
	regs *Regs
}

// NewUTMI creates the UTMI PLL driver.
func NewUTMI(regs *Regs) *UTMI {
	return &UTMI{regs: regs}
}

// NewUTMINode creates the clock node for the UTMI PLL.
func NewUTMINode(name string, u *UTMI, parent *clk.Node) *clk.Node {
	return clk.New(name, u, 0, parent)
}

// Enable starts the PLL and waits for LOCKU.
func (u *UTMI) Enable() error {
	u.regs.clrset(RegUCKR, UCKRUPLLEN|uckrCountMask, UCKRUPLLEN|prep(uckrCountMask, utmiStartupCount))
	return u.regs.waitSR(SRLockU)
}

// Disable stops the PLL.
func (u *UTMI) Disable() {
	u.regs.clrset(RegUCKR, UCKRUPLLEN, 0)
}

// IsEnabled reports LOCKU.
func (u *UTMI) IsEnabled() bool {
	return u.regs.read(RegSR)&SRLockU != 0
}

// Rate returns UTMIRate whenever the main clock runs.
func (u *UTMI) Rate(parent uint64) uint64 {
	if parent == 0 {
		return 0
	}
	return UTMIRate
}

package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const (
	usbDivCount = 16
	usbMaxDiv   = usbDivCount - 1
)

// USB is the USB 48 MHz clock: a two-input mux (USBS) followed by a
// 4-bit divider (USBDIV).
type USB struct {
	regs *Regs
}

// NewUSB creates the USB clock driver.
func NewUSB(regs *Regs) *USB {
	return &USB{regs: regs}
}

// NewUSBNode creates the clock node over the given parents.
func NewUSBNode(name string, u *USB, parents ...*clk.Node) *clk.Node {
	return clk.New(name, u, clk.FlagSetRateGate|clk.FlagSetParentGate|clk.FlagSetRateParent, parents...)
}

// Rate returns round(parent / (USBDIV + 1)).
func (u *USB) Rate(parent uint64) uint64 {
	div := field(USBDiv, u.regs.read(RegUSB))
	return divRoundClosest(parent, uint64(div)+1)
}

// SetRate programs the closest divider in [1, 16].
func (u *USB) SetRate(rate, parent uint64) error {
	if rate == 0 {
		return fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	div := divRoundClosest(parent, rate)
	if div == 0 || div > usbMaxDiv+1 {
		return fmt.Errorf("%w: usb divider %d", clk.ErrUnsupportedRate, div)
	}
	u.regs.clrset(RegUSB, USBDiv, prep(USBDiv, uint32(div-1)))
	return nil
}

// Parent returns USBS.
func (u *USB) Parent() int {
	return int(u.regs.read(RegUSB) & USBS)
}

// SetParent writes USBS.
func (u *USB) SetParent(index int) error {
	u.regs.clrset(RegUSB, USBS, uint32(index)&USBS)
	return nil
}

// Rates lists the 16 divider outputs from the largest divider down.
func (u *USB) Rates(parent uint64) []uint64 {
	rates := make([]uint64, 0, usbDivCount)
	for div := usbMaxDiv; div >= 0; div-- {
		rates = append(rates, parent/uint64(div+1))
	}
	return rates
}

package at91

import "github.com/secclk/clkcore/pkg/clk"

// SlowClockRate is the rate of the 32 kHz slow clock.
const SlowClockRate = 32768

// SlowClock is the slow clock controller output.
type SlowClock struct{}

// Rate returns SlowClockRate.
func (SlowClock) Rate(uint64) uint64 { return SlowClockRate }

// NewSlowClockNode creates the "slowck" root.
func NewSlowClockNode() *clk.Node {
	return clk.New("slowck", SlowClock{}, 0)
}

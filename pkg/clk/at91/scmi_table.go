package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

// ClockRef names a clock by PMC table and hardware identifier.
type ClockRef struct {
	Type Type
	ID   int
}

// SAMA5D2SCMIClocks lists the clocks exposed to the non-secure agent. The
// position in the list is the protocol clock identifier; the slow clock
// follows as the last identifier.
var SAMA5D2SCMIClocks = []ClockRef{
	{TypeCore, CoreMCK},
	{TypeCore, CoreUTMI},
	{TypeCore, CoreMain},
	{TypeCore, CoreMCK2},
	{TypeCore, CoreI2S0Mux},
	{TypeCore, CoreI2S1Mux},
	{TypeCore, CorePLLACK},
	{TypeCore, CoreAudioPLLCK},
	{TypeCore, CoreMCKPres},
	{TypeSystem, 2},
	{TypeSystem, 3},
	{TypeSystem, 6},
	{TypeSystem, 7},
	{TypeSystem, 8},
	{TypeSystem, 9},
	{TypeSystem, 10},
	{TypeSystem, 18},
	{TypePeripheral, 5},
	{TypePeripheral, 11},
	{TypePeripheral, 14},
	{TypePeripheral, 17},
	{TypePeripheral, 18},
	{TypePeripheral, 19},
	{TypePeripheral, 20},
	{TypePeripheral, 21},
	{TypePeripheral, 22},
	{TypePeripheral, 23},
	{TypePeripheral, 24},
	{TypePeripheral, 25},
	{TypePeripheral, 26},
	{TypePeripheral, 27},
	{TypePeripheral, 28},
	{TypePeripheral, 29},
	{TypePeripheral, 30},
	{TypePeripheral, 33},
	{TypePeripheral, 34},
	{TypePeripheral, 35},
	{TypePeripheral, 36},
	{TypePeripheral, 38},
	{TypePeripheral, 40},
	{TypePeripheral, 41},
	{TypePeripheral, 42},
	{TypePeripheral, 43},
	{TypePeripheral, 44},
	{TypePeripheral, 47},
	{TypePeripheral, 48},
	{TypePeripheral, 51},
	{TypePeripheral, 54},
	{TypePeripheral, 55},
	{TypePeripheral, 56},
	{TypePeripheral, 57},
	{TypePeripheral, 58},
	{TypePeripheral, 59},
	{TypePeripheral, 6},
	{TypePeripheral, 7},
	{TypePeripheral, 9},
	{TypePeripheral, 10},
	{TypePeripheral, 12},
	{TypePeripheral, 13},
	{TypePeripheral, 15},
	{TypePeripheral, 31},
	{TypePeripheral, 32},
	{TypePeripheral, 45},
	{TypePeripheral, 46},
	{TypePeripheral, 52},
	{TypePeripheral, 53},
	{TypeGCK, 31},
	{TypeGCK, 32},
	{TypeGCK, 35},
	{TypeGCK, 36},
	{TypeGCK, 38},
	{TypeGCK, 46},
	{TypeGCK, 48},
	{TypeGCK, 54},
	{TypeGCK, 55},
	{TypeGCK, 56},
	{TypeGCK, 57},
	{TypeGCK, 59},
	{TypeProgrammable, 0},
	{TypeProgrammable, 1},
	{TypeProgrammable, 2},
}

// SCMIClocks resolves refs against the PMC tables and appends the slow
// clock. Index i of the result is protocol clock i.
func (p *PMC) SCMIClocks(refs []ClockRef) ([]*clk.Node, error) {
	out := make([]*clk.Node, 0, len(refs)+1)
	for _, r := range refs {
		n, err := p.Lookup(r.Type, r.ID)
		if err != nil {
			return nil, fmt.Errorf("protocol clock %d: %w", len(out), err)
		}
		out = append(out, n)
	}
	if p.Slow == nil {
		return nil, fmt.Errorf("%w: no slow clock", clk.ErrConfiguration)
	}
	return append(out, p.Slow), nil
}

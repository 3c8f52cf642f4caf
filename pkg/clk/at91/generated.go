package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const generatedMaxDiv = 255

// Generated is a GCK: a six-input mux and an 8-bit divider in PCR,
// rate = round(parent / (GCKDIV + 1)). Parent and divider are held in
// software and written on Enable; both changes are gated by flags.
type Generated struct {
	regs     *Regs
	layout   PCRLayout
	id       uint32
	rng      Range
	gckdiv   uint32
	parentID int
	chgPID   int
}

// NewGenerated creates the GCK driver for peripheral id and loads its
// startup parent and divider from hardware. chgPID >= 0 allows the audio
// PLL upstream to be retuned.
func NewGenerated(regs *Regs, layout PCRLayout, id uint32, rng Range, chgPID int) *Generated {
	g := &Generated{regs: regs, layout: layout, id: id, rng: rng, chgPID: chgPID}
	tmp := regs.pcrRead(id & layout.PIDMask)
	g.parentID = int(field(layout.GCKCSSMask, tmp))
	g.gckdiv = field(PCRGCKDiv, tmp)
	return g
}

// NewGeneratedNode creates the clock node over the GCK parents.
func NewGeneratedNode(name string, g *Generated, parents ...*clk.Node) *clk.Node {
	flags := clk.FlagSetRateGate | clk.FlagSetParentGate
	if g.chgPID >= 0 {
		flags |= clk.FlagSetRateParent
	}
	return clk.New(name, g, flags, parents...)
}

// ID returns the peripheral identifier.
func (g *Generated) ID() uint32 { return g.id }

// Div returns the stored GCKDIV.
func (g *Generated) Div() uint32 { return g.gckdiv }

// Enable writes CSS, GCKDIV and GCKEN.
func (g *Generated) Enable() error {
	mask := PCRGCKDiv | g.layout.GCKCSSMask | g.layout.Cmd | PCRGCKEn
	set := prep(g.layout.GCKCSSMask, uint32(g.parentID)) | g.layout.Cmd | prep(PCRGCKDiv, g.gckdiv) | PCRGCKEn
	g.regs.pcrUpdate(g.id&g.layout.PIDMask, mask, set)
	return nil
}

// Disable clears GCKEN.
func (g *Generated) Disable() {
	g.regs.pcrUpdate(g.id&g.layout.PIDMask, g.layout.Cmd|PCRGCKEn, g.layout.Cmd)
}

// IsEnabled reads GCKEN.
func (g *Generated) IsEnabled() bool {
	return g.regs.pcrRead(g.id&g.layout.PIDMask)&PCRGCKEn != 0
}

// Rate returns round(parent / (gckdiv + 1)).
func (g *Generated) Rate(parent uint64) uint64 {
	return divRoundClosest(parent, uint64(g.gckdiv)+1)
}

// Parent returns the stored parent index.
func (g *Generated) Parent() int { return g.parentID }

// SetParent stores the parent index for the next Enable.
func (g *Generated) SetParent(index int) error {
	g.parentID = index
	return nil
}

// SetRate stores the closest divider for the next Enable.
func (g *Generated) SetRate(rate, parent uint64) error {
	if rate == 0 {
		return fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	if g.rng.Max != 0 && rate > g.rng.Max {
		return fmt.Errorf("%w: %d Hz above %d Hz", clk.ErrOutOfRange, rate, g.rng.Max)
	}
	div := divRoundClosest(parent, rate)
	if div == 0 || div > generatedMaxDiv+1 {
		return fmt.Errorf("%w: gck divider %d", clk.ErrUnsupportedRate, div)
	}
	g.gckdiv = uint32(div - 1)
	return nil
}

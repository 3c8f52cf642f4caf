package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

const (
	audioPLLDivFrac    = 1 << 22
	audioPLLNDMax      = 127
	audioPLLFracMax    = 0x3FFFFF
	audioPLLQDPMCMax   = 127
	audioPLLQDAudioMax = 31
)

// AudioPLLOutput is the band the fractional PLL can produce.
var AudioPLLOutput = Range{Min: 620000000, Max: 700000000}

// AudioPLLFrac is the fractional audio PLL:
// rate = parent * (nd + 1) + round(parent * fracr / 2^22).
type AudioPLLFrac struct {
	regs  *Regs
	nd    uint32
	fracr uint32
}

// NewAudioPLLFrac creates the fractional stage. Settings start at zero.
func NewAudioPLLFrac(regs *Regs) *AudioPLLFrac {
	return &AudioPLLFrac{regs: regs}
}

// NewAudioPLLFracNode creates the clock node for the fractional stage.
func NewAudioPLLFracNode(name string, f *AudioPLLFrac, parent *clk.Node) *clk.Node {
	return clk.New(name, f, clk.FlagSetRateGate, parent)
}

// Settings returns the programmed ND and FRACR values.
func (f *AudioPLLFrac) Settings() (nd, fracr uint32) { return f.nd, f.fracr }

// Enable resets the PLL, loads FRACR and then starts it with ND. Reset and
// enable must be separate writes.
func (f *AudioPLLFrac) Enable() error {
	f.regs.clrset(RegAudioPLL0, AudioPLLResetN, 0)
	f.regs.clrset(RegAudioPLL0, AudioPLLResetN, AudioPLLResetN)
	f.regs.clrset(RegAudioPLL1, AudioPLLFracR, f.fracr)
	f.regs.clrset(RegAudioPLL0, AudioPLLEn|AudioPLLND, AudioPLLEn|prep(AudioPLLND, f.nd))
	return nil
}

// Disable stops the PLL and then asserts reset, in two writes.
func (f *AudioPLLFrac) Disable() {
	f.regs.clrset(RegAudioPLL0, AudioPLLEn, 0)
	f.regs.clrset(RegAudioPLL0, AudioPLLResetN, 0)
}

// Rate returns the fractional output for the programmed settings.
func (f *AudioPLLFrac) Rate(parent uint64) uint64 {
	return audioPLLFout(parent, uint64(f.nd), uint64(f.fracr))
}

func audioPLLFout(parent, nd, fracr uint64) uint64 {
	fr := divRoundClosest(parent*fracr, audioPLLDivFrac)
	return parent*(nd+1) + fr
}

// SetRate derives ND and FRACR for a target inside AudioPLLOutput.
func (f *AudioPLLFrac) SetRate(rate, parent uint64) error {
	if !AudioPLLOutput.Contains(rate) {
		return fmt.Errorf("%w: audio pll %d Hz", clk.ErrOutOfRange, rate)
	}
	nd, fracr, err := AudioPLLFracSettings(rate, parent)
	if err != nil {
		return err
	}
	f.nd, f.fracr = nd, fracr
	return nil
}

// AudioPLLFracSettings computes ND and FRACR for rate from parent.
func AudioPLLFracSettings(rate, parent uint64) (nd, fracr uint32, err error) {
	if rate == 0 || parent == 0 {
		return 0, 0, fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	q := rate / parent
	rem := rate % parent
	if q <= 1 || q >= audioPLLNDMax {
		return 0, 0, fmt.Errorf("%w: multiplier %d", clk.ErrUnsupportedRate, q)
	}
	fr := divRoundClosest(rem*audioPLLDivFrac, parent)
	if fr > audioPLLFracMax {
		return 0, 0, fmt.Errorf("%w: fraction %#x", clk.ErrUnsupportedRate, fr)
	}
	return uint32(q - 1), uint32(fr), nil
}

// AudioPLLPad divides the fractional output for the audio pad:
// rate = parent / (qdaudio * div).
type AudioPLLPad struct {
	regs    *Regs
	qdaudio uint32
	div     uint32
}

// NewAudioPLLPad creates the pad divider.
func NewAudioPLLPad(regs *Regs) *AudioPLLPad {
	return &AudioPLLPad{regs: regs}
}

// NewAudioPLLPadNode creates the clock node for the pad divider.
func NewAudioPLLPadNode(name string, p *AudioPLLPad, parent *clk.Node) *clk.Node {
	return clk.New(name, p, clk.FlagSetRateGate|clk.FlagSetParentGate|clk.FlagSetRateParent, parent)
}

// Settings returns the programmed QDAUDIO and DIV values.
func (p *AudioPLLPad) Settings() (qdaudio, div uint32) { return p.qdaudio, p.div }

// Enable writes the divisors and enables the pad output.
func (p *AudioPLLPad) Enable() error {
	p.regs.clrset(RegAudioPLL1, AudioPLLQDPad, prep(AudioPLLQDAudio, p.qdaudio)|prep(AudioPLLDiv, p.div))
	p.regs.clrset(RegAudioPLL0, AudioPLLPadEn, AudioPLLPadEn)
	return nil
}

// Disable gates the pad output.
func (p *AudioPLLPad) Disable() {
	p.regs.clrset(RegAudioPLL0, AudioPLLPadEn, 0)
}

// Rate returns the pad rate, 0 until programmed.
func (p *AudioPLLPad) Rate(parent uint64) uint64 {
	if p.qdaudio == 0 || p.div == 0 {
		return 0
	}
	return parent / uint64(p.qdaudio*p.div)
}

// SetRate prefers a divider of 3 when it divides the ratio, 2 otherwise.
func (p *AudioPLLPad) SetRate(rate, parent uint64) error {
	if rate == 0 {
		return fmt.Errorf("%w: zero rate", clk.ErrUnsupportedRate)
	}
	tmp := parent / rate
	div := uint64(2)
	if tmp%3 == 0 {
		div = 3
	}
	qd := tmp / div
	if qd == 0 || qd > audioPLLQDAudioMax {
		return fmt.Errorf("%w: pad ratio %d", clk.ErrUnsupportedRate, tmp)
	}
	p.qdaudio, p.div = uint32(qd), uint32(div)
	return nil
}

// AudioPLLPMC divides the fractional output for the PMC:
// rate = parent / (qdpmc + 1).
type AudioPLLPMC struct {
	regs  *Regs
	qdpmc uint32
}

// NewAudioPLLPMC creates the PMC divider.
func NewAudioPLLPMC(regs *Regs) *AudioPLLPMC {
	return &AudioPLLPMC{regs: regs}
}

// NewAudioPLLPMCNode creates the clock node for the PMC divider.
func NewAudioPLLPMCNode(name string, p *AudioPLLPMC, parent *clk.Node) *clk.Node {
	return clk.New(name, p, clk.FlagSetRateGate|clk.FlagSetParentGate|clk.FlagSetRateParent, parent)
}

// QDPMC returns the programmed divider field.
func (p *AudioPLLPMC) QDPMC() uint32 { return p.qdpmc }

// Enable writes QDPMC and enables the PMC output.
func (p *AudioPLLPMC) Enable() error {
	p.regs.clrset(RegAudioPLL0, AudioPLLPMCEn|AudioPLLQDPMC, AudioPLLPMCEn|prep(AudioPLLQDPMC, p.qdpmc))
	return nil
}

// Disable gates the PMC output.
func (p *AudioPLLPMC) Disable() {
	p.regs.clrset(RegAudioPLL0, AudioPLLPMCEn, 0)
}

// Rate returns parent / (qdpmc + 1).
func (p *AudioPLLPMC) Rate(parent uint64) uint64 {
	return parent / uint64(p.qdpmc+1)
}

// SetRate sets qdpmc = parent / rate - 1.
func (p *AudioPLLPMC) SetRate(rate, parent uint64) error {
	if rate == 0 || rate > parent {
		return fmt.Errorf("%w: %d Hz from %d Hz", clk.ErrUnsupportedRate, rate, parent)
	}
	qd := parent/rate - 1
	if qd > audioPLLQDPMCMax {
		return fmt.Errorf("%w: divider %d", clk.ErrUnsupportedRate, qd+1)
	}
	p.qdpmc = uint32(qd)
	return nil
}

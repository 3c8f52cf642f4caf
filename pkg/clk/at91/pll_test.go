package at91

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secclk/clkcore/pkg/clk"
)

func newTestPLL(t *testing.T, layout PLLLayout) (*PLL, *Sim) {
	t.Helper()
	sim := NewSim()
	p, err := NewPLL(NewRegs(sim), 0, layout, SAMA5D2PLLACharacteristics)
	require.NoError(t, err)
	return p, sim
}

func TestPLLBestDivMul(t *testing.T) {
	t.Run("exact match with 8-bit multiplier", func(t *testing.T) {
		layout := SAMA5D3PLLLayout
		layout.MulMask = 0xFF
		p, _ := newTestPLL(t, layout)

		best, div, mul, band, err := p.BestDivMul(800000000, 12000000)
		require.NoError(t, err)
		assert.Equal(t, uint64(800000000), best)
		assert.Equal(t, uint32(3), div)
		assert.Equal(t, uint32(199), mul)
		assert.Equal(t, 0, band)
	})

	t.Run("7-bit multiplier settles on closest", func(t *testing.T) {
		p, _ := newTestPLL(t, SAMA5D3PLLLayout)

		best, div, mul, _, err := p.BestDivMul(800000000, 12000000)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), div)
		assert.Equal(t, uint32(66), mul)
		assert.Equal(t, uint64(804000000), best)
	})

	t.Run("input below minimum", func(t *testing.T) {
		p, _ := newTestPLL(t, SAMA5D3PLLLayout)
		_, _, _, _, err := p.BestDivMul(800000000, 32768)
		assert.ErrorIs(t, err, clk.ErrOutOfRange)
	})

	t.Run("output outside every band", func(t *testing.T) {
		p, _ := newTestPLL(t, SAMA5D3PLLLayout)
		_, _, _, _, err := p.BestDivMul(300000000, 12000000)
		assert.ErrorIs(t, err, clk.ErrOutOfRange)
	})

	t.Run("zero rate", func(t *testing.T) {
		p, _ := newTestPLL(t, SAMA5D3PLLLayout)
		_, _, _, _, err := p.BestDivMul(0, 12000000)
		assert.ErrorIs(t, err, clk.ErrUnsupportedRate)
	})
}

func TestPLL(t *testing.T) {
	t.Run("loads boot settings", func(t *testing.T) {
		p, _ := newTestPLL(t, SAMA5D3PLLLayout)
		div, mul, _ := p.Settings()
		assert.Equal(t, uint32(1), div)
		assert.Equal(t, uint32(82), mul)
		assert.Equal(t, uint64(996000000), p.Rate(12000000))
	})

	t.Run("rejects unknown id", func(t *testing.T) {
		_, err := NewPLL(NewRegs(NewSim()), 2, SAMA5D3PLLLayout, SAMA5D2PLLACharacteristics)
		assert.ErrorIs(t, err, clk.ErrConfiguration)
	})

	t.Run("set rate then enable programs PLLAR", func(t *testing.T) {
		p, sim := newTestPLL(t, SAMA5D3PLLLayout)
		require.NoError(t, p.SetRate(804000000, 12000000))
		require.NoError(t, p.Enable())

		pllr := sim.Read32(RegPLLAR)
		assert.Equal(t, uint32(1), pllr&pllDivMask)
		assert.Equal(t, uint32(66), (pllr>>18)&0x7F)
		assert.True(t, p.IsEnabled())
	})

	t.Run("disable clears settings", func(t *testing.T) {
		p, sim := newTestPLL(t, SAMA5D3PLLLayout)
		p.Disable()
		assert.Zero(t, sim.Read32(RegPLLAR)&SAMA5D3PLLLayout.PLLRMask)
		assert.False(t, p.IsEnabled())
	})

	t.Run("unprogrammed rate is zero", func(t *testing.T) {
		p := &PLL{}
		assert.Zero(t, p.Rate(12000000))
	})
}

package at91

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/regmap/mocks"
)

func TestSystem(t *testing.T) {
	t.Run("plain gate writes SCER only", func(t *testing.T) {
		a := mocks.NewMockAccessor(t)
		a.EXPECT().Write32(RegSCER, uint32(1<<3)).Once()

		s, err := NewSystem(NewRegs(a), 3)
		require.NoError(t, err)
		require.NoError(t, s.Enable())
	})

	t.Run("plain gate disable writes SCDR", func(t *testing.T) {
		a := mocks.NewMockAccessor(t)
		a.EXPECT().Write32(RegSCDR, uint32(1<<18)).Once()

		s, err := NewSystem(NewRegs(a), 18)
		require.NoError(t, err)
		s.Disable()
	})

	t.Run("pck output waits for ready", func(t *testing.T) {
		sim := NewSim()
		s, err := NewSystem(NewRegs(sim), 9)
		require.NoError(t, err)

		require.NoError(t, s.Enable())
		assert.True(t, s.IsEnabled())
		assert.NotZero(t, sim.Read32(RegSR)&SRPCKRdy(1))

		s.Disable()
		assert.False(t, s.IsEnabled())
		assert.Zero(t, sim.Read32(RegSR)&SRPCKRdy(1))
	})

	t.Run("pck output times out without ready", func(t *testing.T) {
		a := mocks.NewMockAccessor(t)
		a.EXPECT().Write32(RegSCER, mock.Anything).Return()
		a.EXPECT().Read32(RegSR).Return(0)

		regs := NewRegs(a)
		regs.SetPollTimeout(time.Millisecond)
		s, err := NewSystem(regs, 8)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Enable(), ErrTimeout)
	})

	t.Run("id out of range", func(t *testing.T) {
		_, err := NewSystem(NewRegs(NewSim()), 32)
		assert.ErrorIs(t, err, clk.ErrConfiguration)
	})
}

func TestProgrammable(t *testing.T) {
	sim := NewSim()
	p, err := NewProgrammable(NewRegs(sim), 1)
	require.NoError(t, err)

	require.NoError(t, p.SetParent(4))
	assert.Equal(t, 4, p.Parent())
	require.NoError(t, p.SetRate(1000000, 166000000))
	assert.Equal(t, uint64(166000000/166), p.Rate(166000000))
	assert.Equal(t, uint32(165), field(PCKPres, sim.Read32(RegPCK(1))))

	assert.ErrorIs(t, p.SetRate(100000, 166000000), clk.ErrUnsupportedRate)
	assert.ErrorIs(t, p.SetParent(6), clk.ErrInvalidArgument)

	sim.Write32(RegPCK(1), 7)
	assert.Equal(t, 0, p.Parent())

	_, err = NewProgrammable(NewRegs(sim), 3)
	assert.ErrorIs(t, err, clk.ErrConfiguration)
}

func TestUSB(t *testing.T) {
	sim := NewSim()
	u := NewUSB(NewRegs(sim))

	require.NoError(t, u.SetParent(1))
	assert.Equal(t, 1, u.Parent())
	require.NoError(t, u.SetRate(48000000, UTMIRate))
	assert.Equal(t, uint32(9), field(USBDiv, sim.Read32(RegUSB)))
	assert.Equal(t, uint64(48000000), u.Rate(UTMIRate))

	rates := u.Rates(UTMIRate)
	require.Len(t, rates, 16)
	assert.Equal(t, uint64(30000000), rates[0])
	assert.Equal(t, uint64(UTMIRate), rates[15])

	assert.ErrorIs(t, u.SetRate(1000000, UTMIRate), clk.ErrUnsupportedRate)
}

func TestOscillators(t *testing.T) {
	t.Run("rc oscillator", func(t *testing.T) {
		sim := NewSim()
		o := NewMainRCOsc(NewRegs(sim), MainRCOscRate)
		o.Disable()
		assert.False(t, o.IsEnabled())
		require.NoError(t, o.Enable())
		assert.True(t, o.IsEnabled())
		assert.Equal(t, MORKey, sim.Read32(RegMOR)&morKeyMask)
	})

	t.Run("crystal in bypass", func(t *testing.T) {
		sim := NewSim()
		o := NewMainOsc(NewRegs(sim), true)
		require.NoError(t, o.Enable())
		mor := sim.Read32(RegMOR)
		assert.NotZero(t, mor&MORMoscXTBY)
		assert.Zero(t, mor&MORMoscXTEN)
		assert.True(t, o.IsEnabled())

		o.Disable()
		assert.False(t, o.IsEnabled())
	})

	t.Run("main mux", func(t *testing.T) {
		sim := NewSim()
		m := NewMainMux(NewRegs(sim))
		assert.Equal(t, 1, m.Parent())
		require.NoError(t, m.SetParent(0))
		assert.Equal(t, 0, m.Parent())
	})

	t.Run("utmi", func(t *testing.T) {
		sim := NewSim()
		u := NewUTMI(NewRegs(sim))
		assert.False(t, u.IsEnabled())
		require.NoError(t, u.Enable())
		assert.True(t, u.IsEnabled())
		assert.Equal(t, uint64(UTMIRate), u.Rate(12000000))
		assert.Zero(t, u.Rate(0))
	})
}

func TestMaster(t *testing.T) {
	regs := NewRegs(NewSim())

	pres := NewMasterPres(regs)
	assert.Equal(t, 2, pres.Parent())
	assert.Equal(t, uint64(498000000), pres.Rate(498000000))

	div := NewMasterDiv(regs, SAMA5D2MasterCharacteristics)
	assert.Equal(t, uint64(166000000), div.Rate(498000000))
	assert.NoError(t, div.Check(166000000))
	assert.ErrorIs(t, div.Check(200000000), clk.ErrOutOfRange)

	assert.Equal(t, uint64(83000000), NewH32MX(regs).Rate(166000000))

	pd := NewPLLDiv(regs)
	assert.Equal(t, uint64(498000000), pd.Rate(996000000))
	require.NoError(t, pd.SetRate(996000000, 996000000))
	assert.Equal(t, uint64(996000000), pd.Rate(996000000))
	assert.ErrorIs(t, pd.SetRate(300000000, 996000000), clk.ErrUnsupportedRate)
}

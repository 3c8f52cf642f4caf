package at91

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/regmap"
)

func setupSim(t *testing.T) (*PMC, *Sim) {
	t.Helper()
	sim := NewSim()
	pmc, err := Setup(clk.NewTree(), sim, Config{})
	require.NoError(t, err)
	return pmc, sim
}

func TestSetup(t *testing.T) {
	t.Run("boot rates", func(t *testing.T) {
		pmc, _ := setupSim(t)
		tree := pmc.Tree

		rates := map[string]uint64{
			"slowck":          SlowClockRate,
			"main_xtal":       12000000,
			"mainck":          12000000,
			"pllack":          996000000,
			"plladivck":       498000000,
			"masterck_pres":   498000000,
			"masterck_div":    166000000,
			"h32mxck":         83000000,
			"utmick":          UTMIRate,
			"usbck":           USBRate,
			"uart0_clk":       83000000,
			"dma0_clk":        166000000,
			"audiopll_fracck": 12000000,
		}
		for name, want := range rates {
			n, ok := tree.Lookup(name)
			require.True(t, ok, name)
			assert.Equal(t, want, tree.Rate(n), name)
		}
	})

	t.Run("usb routed to utmi", func(t *testing.T) {
		pmc, sim := setupSim(t)
		usbck, ok := pmc.Tree.Lookup("usbck")
		require.True(t, ok)
		assert.Equal(t, "utmick", pmc.Tree.Parent(usbck).Name())
		assert.Equal(t, USBS, sim.Read32(RegUSB)&USBS)
	})

	t.Run("core table", func(t *testing.T) {
		pmc, _ := setupSim(t)
		for id, name := range map[int]string{
			CoreMain:       "mainck",
			CorePLLACK:     "plladivck",
			CoreAudioPLLCK: "audiopll_pmcck",
			CoreUTMI:       "utmick",
			CoreMCK:        "masterck_div",
			CoreMCK2:       "h32mxck",
			CoreMCKPres:    "masterck_pres",
			CoreI2S0Mux:    "i2s0_muxclk",
			CoreI2S1Mux:    "i2s1_muxclk",
		} {
			n, err := pmc.Lookup(TypeCore, id)
			require.NoError(t, err)
			assert.Equal(t, name, n.Name())
		}
		_, err := pmc.Lookup(TypeCore, CorePLLBCK)
		assert.ErrorIs(t, err, clk.ErrInvalidArgument)
	})

	t.Run("typed tables", func(t *testing.T) {
		pmc, _ := setupSim(t)
		assert.Len(t, pmc.Entries(TypeSystem), len(sama5d2SystemClocks))
		assert.Len(t, pmc.Entries(TypePeripheral), len(sama5d2PeriphClocks)+len(sama5d2Periph32Clocks))
		assert.Len(t, pmc.Entries(TypeGCK), len(sama5d2GCKClocks))
		assert.Len(t, pmc.Entries(TypeProgrammable), numProgrammable)

		n, err := pmc.LookupName(TypeGCK, "can0_gclk")
		require.NoError(t, err)
		assert.Equal(t, 6, n.NumParents())

		pck1, err := pmc.Lookup(TypeSystem, 9)
		require.NoError(t, err)
		assert.Equal(t, "prog1", pmc.Tree.Parent(pck1).Name())
	})

	t.Run("enable peripheral through the tree", func(t *testing.T) {
		pmc, sim := setupSim(t)
		uart, err := pmc.LookupName(TypePeripheral, "uart1_clk")
		require.NoError(t, err)

		require.NoError(t, pmc.Tree.Enable(uart))
		assert.NotZero(t, sim.PCR(25)&PCREn)
		assert.True(t, pmc.Tree.HardwareEnabled(uart))

		pmc.Tree.Disable(uart)
		assert.Zero(t, sim.PCR(25)&PCREn)
	})

	t.Run("i2s mux follows gclk", func(t *testing.T) {
		sfr := regmap.NewMem()
		pmc, err := Setup(clk.NewTree(), NewSim(), Config{SFR: sfr})
		require.NoError(t, err)

		mux, err := pmc.Lookup(TypeCore, CoreI2S1Mux)
		require.NoError(t, err)
		require.NoError(t, pmc.Tree.SetParent(mux, 1))
		assert.Equal(t, uint32(1<<1), sfr.Read32(RegSFRI2SCLK))
		assert.Equal(t, "i2s1_gclk", pmc.Tree.Parent(mux).Name())
	})

	t.Run("programmable output rate", func(t *testing.T) {
		pmc, _ := setupSim(t)
		prog, err := pmc.Lookup(TypeProgrammable, 0)
		require.NoError(t, err)

		require.NoError(t, pmc.Tree.SetParent(prog, 1))
		require.NoError(t, pmc.Tree.SetRate(prog, 4000000))
		assert.Equal(t, uint64(4000000), pmc.Tree.Rate(prog))

		pck0, err := pmc.Lookup(TypeSystem, 8)
		require.NoError(t, err)
		require.NoError(t, pmc.Tree.Enable(pck0))
		assert.True(t, pmc.Tree.HardwareEnabled(pck0))
	})
}

func TestSCMIClocks(t *testing.T) {
	pmc, _ := setupSim(t)

	nodes, err := pmc.SCMIClocks(SAMA5D2SCMIClocks)
	require.NoError(t, err)
	require.Len(t, nodes, len(SAMA5D2SCMIClocks)+1)

	assert.Equal(t, "masterck_div", nodes[0].Name())
	assert.Equal(t, "masterck_pres", nodes[8].Name())
	assert.Equal(t, "ddrck", nodes[9].Name())
	assert.Equal(t, "slowck", nodes[len(nodes)-1].Name())

	seen := make(map[string]bool)
	for _, n := range nodes {
		assert.False(t, seen[n.Name()], "duplicate %s", n.Name())
		seen[n.Name()] = true
		assert.Less(t, len(n.Name()), 16, n.Name())
	}

	_, err = pmc.SCMIClocks([]ClockRef{{TypeGCK, 5}})
	assert.ErrorIs(t, err, clk.ErrInvalidArgument)
}

func TestParseType(t *testing.T) {
	for tt := TypeCore; tt <= TypeProgrammable; tt++ {
		got, err := ParseType(tt.String())
		require.NoError(t, err)
		assert.Equal(t, tt, got)
	}
	_, err := ParseType("bogus")
	assert.ErrorIs(t, err, clk.ErrInvalidArgument)
}

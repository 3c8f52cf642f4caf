package at91

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/regmap"
)

// USBRate is the rate assigned to the USB clock at setup.
const USBRate = 48000000

// SAMA5D2 physical register blocks.
const (
	SAMA5D2PMCBase uintptr = 0xF0014000
	SAMA5D2PMCSize uint32  = 0x200
	SAMA5D2SFRBase uintptr = 0xF8030000
	SAMA5D2SFRSize uint32  = 0x100
)

type sysClock struct {
	name   string
	id     uint8
	parent string
}

type periphClock struct {
	name string
	id   uint32
	rng  Range
}

type gckClock struct {
	name   string
	id     uint32
	rng    Range
	chgPID int
}

var sama5d2SystemClocks = []sysClock{
	{"ddrck", 2, "masterck_div"},
	{"lcdck", 3, "masterck_div"},
	{"uhpck", 6, "usbck"},
	{"udpck", 7, "usbck"},
	{"pck0", 8, "prog0"},
	{"pck1", 9, "prog1"},
	{"pck2", 10, "prog2"},
	{"iscck", 18, "masterck_div"},
}

var range83 = Range{Max: 83000000}

// Peripheral clocks fed by the 32-bit matrix clock.
var sama5d2Periph32Clocks = []periphClock{
	{"macb0_clk", 5, range83},
	{"tdes_clk", 11, range83},
	{"matrix1_clk", 14, Range{}},
	{"hsmc_clk", 17, Range{}},
	{"pioA_clk", 18, range83},
	{"flx0_clk", 19, range83},
	{"flx1_clk", 20, range83},
	{"flx2_clk", 21, range83},
	{"flx3_clk", 22, range83},
	{"flx4_clk", 23, range83},
	{"uart0_clk", 24, range83},
	{"uart1_clk", 25, range83},
	{"uart2_clk", 26, range83},
	{"uart3_clk", 27, range83},
	{"uart4_clk", 28, range83},
	{"twi0_clk", 29, range83},
	{"twi1_clk", 30, range83},
	{"spi0_clk", 33, range83},
	{"spi1_clk", 34, range83},
	{"tcb0_clk", 35, range83},
	{"tcb1_clk", 36, range83},
	{"pwm_clk", 38, range83},
	{"adc_clk", 40, range83},
	{"uhphs_clk", 41, range83},
	{"udphs_clk", 42, range83},
	{"ssc0_clk", 43, range83},
	{"ssc1_clk", 44, range83},
	{"trng_clk", 47, range83},
	{"pdmic_clk", 48, range83},
	{"securam_clk", 51, Range{}},
	{"i2s0_clk", 54, range83},
	{"i2s1_clk", 55, range83},
	{"can0_clk", 56, range83},
	{"can1_clk", 57, range83},
	{"ptc_clk", 58, range83},
	{"classd_clk", 59, range83},
}

// Peripheral clocks fed by MCK.
var sama5d2PeriphClocks = []periphClock{
	{"dma0_clk", 6, Range{}},
	{"dma1_clk", 7, Range{}},
	{"aes_clk", 9, Range{}},
	{"aesb_clk", 10, Range{}},
	{"sha_clk", 12, Range{}},
	{"mpddr_clk", 13, Range{}},
	{"matrix0_clk", 15, Range{}},
	{"sdmmc0_hclk", 31, Range{}},
	{"sdmmc1_hclk", 32, Range{}},
	{"lcdc_clk", 45, Range{}},
	{"isc_clk", 46, Range{}},
	{"qspi0_clk", 52, Range{}},
	{"qspi1_clk", 53, Range{}},
}

const noChgPID = -1

var sama5d2GCKClocks = []gckClock{
	{"sdmmc0_gclk", 31, Range{}, noChgPID},
	{"sdmmc1_gclk", 32, Range{}, noChgPID},
	{"tcb0_gclk", 35, range83, noChgPID},
	{"tcb1_gclk", 36, range83, noChgPID},
	{"pwm_gclk", 38, range83, noChgPID},
	{"isc_gclk", 46, Range{}, noChgPID},
	{"pdmic_gclk", 48, Range{}, noChgPID},
	{"i2s0_gclk", 54, Range{}, 5},
	{"i2s1_gclk", 55, Range{}, 5},
	{"can0_gclk", 56, Range{Max: 80000000}, noChgPID},
	{"can1_gclk", 57, Range{Max: 80000000}, noChgPID},
	{"classd_gclk", 59, Range{Max: 100000000}, 5},
}

// Config parameterizes Setup.
type Config struct {
	// MainXtal is the crystal rate in Hz. Zero selects 12 MHz.
	MainXtal uint64

	// Bypass drives XIN from an external clock instead of a crystal.
	Bypass bool

	// SFR is the special function register block holding the I2S clock
	// selectors. Nil keeps the selectors in memory.
	SFR regmap.Accessor

	// PollTimeout bounds waits on PMC status bits. Zero selects
	// DefaultPollTimeout.
	PollTimeout time.Duration

	// Logger receives setup diagnostics. Nil disables them.
	Logger *slog.Logger
}

type builder struct {
	tree *clk.Tree
	err  error
}

func (b *builder) register(n *clk.Node) *clk.Node {
	if b.err == nil {
		b.err = b.tree.Register(n)
	}
	return n
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Setup registers the SAMA5D2 clock tree on tree over the PMC registers in
// pmcRegs, then routes the USB clock to the UTMI PLL at 48 MHz.
func Setup(tree *clk.Tree, pmcRegs regmap.Accessor, cfg Config) (*PMC, error) {
	if cfg.MainXtal == 0 {
		cfg.MainXtal = 12000000
	}
	regs := NewRegs(pmcRegs)
	if cfg.PollTimeout > 0 {
		regs.SetPollTimeout(cfg.PollTimeout)
	}
	sfr := newSFR(cfg.SFR)

	p := &PMC{Regs: regs, Tree: tree}
	b := &builder{tree: tree}

	p.Slow = b.register(NewSlowClockNode())

	xtal := b.register(clk.NewFixed("main_xtal", cfg.MainXtal))
	rcOsc := b.register(clk.New("main_rc_osc", NewMainRCOsc(regs, MainRCOscRate), 0))
	osc := b.register(clk.New("main_osc", NewMainOsc(regs, cfg.Bypass), 0, xtal))
	mainck := b.register(NewMainMuxNode("mainck", NewMainMux(regs), rcOsc, osc))
	p.add(TypeCore, CoreMain, mainck)

	pll, err := NewPLL(regs, 0, SAMA5D3PLLLayout, SAMA5D2PLLACharacteristics)
	if err != nil {
		return nil, err
	}
	pllack := b.register(NewPLLNode("pllack", pll, mainck))
	plladivck := b.register(clk.New("plladivck", NewPLLDiv(regs), 0, pllack))
	p.add(TypeCore, CorePLLACK, plladivck)

	fracck := b.register(NewAudioPLLFracNode("audiopll_fracck", NewAudioPLLFrac(regs), mainck))
	b.register(NewAudioPLLPadNode("audiopll_padck", NewAudioPLLPad(regs), fracck))
	apmcck := b.register(NewAudioPLLPMCNode("audiopll_pmcck", NewAudioPLLPMC(regs), fracck))
	p.add(TypeCore, CoreAudioPLLCK, apmcck)

	utmick := b.register(NewUTMINode("utmick", NewUTMI(regs), mainck))
	p.add(TypeCore, CoreUTMI, utmick)

	mckpres := b.register(clk.New("masterck_pres", NewMasterPres(regs), 0, p.Slow, mainck, plladivck, utmick))
	p.add(TypeCore, CoreMCKPres, mckpres)

	mdiv := NewMasterDiv(regs, SAMA5D2MasterCharacteristics)
	mck := b.register(clk.New("masterck_div", mdiv, 0, mckpres))
	p.add(TypeCore, CoreMCK, mck)

	h32mxck := b.register(clk.New("h32mxck", NewH32MX(regs), 0, mck))
	p.add(TypeCore, CoreMCK2, h32mxck)

	usbck := b.register(NewUSBNode("usbck", NewUSB(regs), plladivck, utmick))
	if b.err != nil {
		return nil, b.err
	}

	if err := mdiv.Check(tree.Rate(mck)); err != nil && cfg.Logger != nil {
		cfg.Logger.Warn("master clock outside its band", "rate", tree.Rate(mck), "error", err)
	}

	if err := tree.SetParent(usbck, 1); err != nil {
		return nil, fmt.Errorf("usbck parent: %w", err)
	}
	if err := tree.SetRate(usbck, USBRate); err != nil {
		return nil, fmt.Errorf("usbck rate: %w", err)
	}

	gckParents := []*clk.Node{p.Slow, mainck, plladivck, utmick, mck, apmcck}

	for i := 0; i < numProgrammable; i++ {
		drv, err := NewProgrammable(regs, i)
		if err != nil {
			return nil, err
		}
		n := b.register(clk.New(fmt.Sprintf("prog%d", i), drv, 0, gckParents...))
		p.add(TypeProgrammable, i, n)
	}

	for _, sc := range sama5d2SystemClocks {
		parent, ok := tree.Lookup(sc.parent)
		if !ok {
			b.fail(fmt.Errorf("%w: %s parent %s", clk.ErrConfiguration, sc.name, sc.parent))
			break
		}
		drv, err := NewSystem(regs, sc.id)
		if err != nil {
			b.fail(err)
			break
		}
		n := b.register(NewSystemNode(sc.name, drv, parent))
		p.add(TypeSystem, int(sc.id), n)
	}

	for _, pc := range sama5d2PeriphClocks {
		drv := NewPeripheral(regs, SAMA5D2PCRLayout, pc.id, pc.rng)
		n := b.register(NewPeripheralNode(pc.name, drv, mck))
		p.add(TypePeripheral, int(pc.id), n)
	}
	for _, pc := range sama5d2Periph32Clocks {
		drv := NewPeripheral(regs, SAMA5D2PCRLayout, pc.id, pc.rng)
		n := b.register(NewPeripheralNode(pc.name, drv, h32mxck))
		p.add(TypePeripheral, int(pc.id), n)
	}

	for _, gc := range sama5d2GCKClocks {
		drv := NewGenerated(regs, SAMA5D2PCRLayout, gc.id, gc.rng, gc.chgPID)
		n := b.register(NewGeneratedNode(gc.name, drv, gckParents...))
		p.add(TypeGCK, int(gc.id), n)
	}
	if b.err != nil {
		return nil, b.err
	}

	for bus, core := range []int{CoreI2S0Mux, CoreI2S1Mux} {
		periph, err := p.LookupName(TypePeripheral, fmt.Sprintf("i2s%d_clk", bus))
		if err != nil {
			return nil, err
		}
		gclk, err := p.LookupName(TypeGCK, fmt.Sprintf("i2s%d_gclk", bus))
		if err != nil {
			return nil, err
		}
		n := b.register(NewI2SMuxNode(fmt.Sprintf("i2s%d_muxclk", bus), NewI2SMux(sfr, uint(bus)), periph, gclk))
		p.add(TypeCore, core, n)
	}
	if b.err != nil {
		return nil, b.err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("pmc clock tree ready",
			"nodes", tree.Len(),
			"mck", tree.Rate(mck),
			"usb", tree.Rate(usbck))
	}
	return p, nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/secclk/clkcore/pkg/clk/at91"
	"github.com/secclk/clkcore/pkg/regmap"
)

// hardware holds the register blocks the PMC drivers operate on.
type hardware struct {
	PMC regmap.Accessor
	SFR regmap.Accessor

	closers []func() error
}

func openHardware(simulate bool) (*hardware, error) {
	if simulate {
		return &hardware{PMC: at91.NewSim()}, nil
	}

	pmc, err := regmap.MapMMIO(at91.SAMA5D2PMCBase, at91.SAMA5D2PMCSize)
	if err != nil {
		return nil, fmt.Errorf("map PMC: %w", err)
	}
	sfr, err := regmap.MapMMIO(at91.SAMA5D2SFRBase, at91.SAMA5D2SFRSize)
	if err != nil {
		pmc.Close()
		return nil, fmt.Errorf("map SFR: %w", err)
	}
	return &hardware{
		PMC:     pmc,
		SFR:     sfr,
		closers: []func() error{pmc.Close, sfr.Close},
	}, nil
}

func (h *hardware) Close() error {
	var errs []error
	for _, c := range h.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package board

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/clk/at91"
	"github.com/secclk/clkcore/pkg/scmi"
	"gopkg.in/yaml.v3"
)

// SoCSAMA5D2 is the only supported SoC.
const SoCSAMA5D2 = "sama5d2"

// tables maps binding table names to SoC clock lists.
var tables = map[string][]at91.ClockRef{
	SoCSAMA5D2: at91.SAMA5D2SCMIClocks,
}

// Parse parses and validates a board description.
func Parse(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}
	if b.SoC == "" {
		b.SoC = SoCSAMA5D2
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Load reads and parses a board file.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	b, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return b, nil
}

func (b *Board) validate() error {
	if b.SoC != SoCSAMA5D2 {
		return &LoadError{Message: fmt.Sprintf("unsupported soc %q", b.SoC)}
	}

	for i, a := range b.Assigned {
		if a.Clock == "" {
			return &LoadError{Message: fmt.Sprintf("assigned[%d]: clock is required", i)}
		}
		if a.Parent == "" && a.Rate == 0 && !a.Enable {
			return &LoadError{Message: fmt.Sprintf("assigned[%d] %s: nothing to assign", i, a.Clock)}
		}
	}

	seen := make(map[uint32]bool)
	for i, bd := range b.Bindings {
		if seen[bd.Channel] {
			return &LoadError{Message: fmt.Sprintf("bindings[%d]: channel %d listed twice", i, bd.Channel)}
		}
		seen[bd.Channel] = true

		switch {
		case bd.Table != "" && len(bd.Clocks) > 0:
			return &LoadError{Message: fmt.Sprintf("bindings[%d]: table and clocks are exclusive", i)}
		case bd.Table != "":
			if _, ok := tables[bd.Table]; !ok {
				return &LoadError{Message: fmt.Sprintf("bindings[%d]: unknown table %q", i, bd.Table)}
			}
		case len(bd.Clocks) == 0:
			return &LoadError{Message: fmt.Sprintf("bindings[%d]: no clocks", i)}
		}
	}
	return nil
}

// PMCConfig returns the driver configuration for the board oscillators.
func (b *Board) PMCConfig(logger *slog.Logger) at91.Config {
	return at91.Config{
		MainXtal: b.Oscillators.MainXtal,
		Bypass:   b.Oscillators.Bypass,
		Logger:   logger,
	}
}

// Apply performs the boot-time assignments in file order and stops at the
// first failure.
func (b *Board) Apply(tree *clk.Tree) error {
	for _, a := range b.Assigned {
		if err := apply(tree, a); err != nil {
			return fmt.Errorf("board %s: %s: %w", b.Name, a.Clock, err)
		}
	}
	return nil
}

func apply(tree *clk.Tree, a Assignment) error {
	n, ok := tree.Lookup(a.Clock)
	if !ok {
		return fmt.Errorf("%w: unknown clock", clk.ErrConfiguration)
	}

	if a.Parent != "" {
		p, ok := tree.Lookup(a.Parent)
		if !ok {
			return fmt.Errorf("%w: unknown parent %s", clk.ErrConfiguration, a.Parent)
		}
		idx := n.ParentIndex(p)
		if idx < 0 {
			return fmt.Errorf("%w: %s is not a parent candidate", clk.ErrConfiguration, a.Parent)
		}
		if err := tree.SetParent(n, idx); err != nil {
			return err
		}
	}
	if a.Rate != 0 {
		if err := tree.SetRate(n, a.Rate); err != nil {
			return err
		}
	}
	if a.Enable {
		return tree.Enable(n)
	}
	return nil
}

// Bind registers every binding with the adaptor.
func (b *Board) Bind(adaptor *scmi.Adaptor, pmc *at91.PMC) error {
	for _, bd := range b.Bindings {
		nodes, err := b.resolve(bd, adaptor.Tree(), pmc)
		if err != nil {
			return fmt.Errorf("board %s: channel %d: %w", b.Name, bd.Channel, err)
		}
		if err := adaptor.BindAll(bd.Channel, nodes); err != nil {
			return fmt.Errorf("board %s: channel %d: %w", b.Name, bd.Channel, err)
		}
	}
	return nil
}

func (b *Board) resolve(bd Binding, tree *clk.Tree, pmc *at91.PMC) ([]*clk.Node, error) {
	if bd.Table != "" {
		return pmc.SCMIClocks(tables[bd.Table])
	}
	nodes := make([]*clk.Node, 0, len(bd.Clocks))
	for _, name := range bd.Clocks {
		n, ok := tree.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown clock %s", clk.ErrConfiguration, name)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

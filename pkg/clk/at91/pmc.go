package at91

import (
	"fmt"

	"github.com/secclk/clkcore/pkg/clk"
)

// Type selects one of the PMC lookup tables.
type Type uint8

const (
	TypeCore         Type = 0
	TypeSystem       Type = 1
	TypePeripheral   Type = 2
	TypeGCK          Type = 3
	TypeProgrammable Type = 4
)

// String returns the table name.
func (t Type) String() string {
	switch t {
	case TypeCore:
		return "core"
	case TypeSystem:
		return "system"
	case TypePeripheral:
		return "peripheral"
	case TypeGCK:
		return "gck"
	case TypeProgrammable:
		return "programmable"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ParseType converts a table name back to a Type.
func ParseType(s string) (Type, error) {
	for t := TypeCore; t <= TypeProgrammable; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pmc table %q", clk.ErrInvalidArgument, s)
}

// Core clock identifiers.
const (
	CoreSlow       = 0
	CoreMCK        = 1
	CoreUTMI       = 2
	CoreMain       = 3
	CoreMCK2       = 4
	CoreI2S0Mux    = 5
	CoreI2S1Mux    = 6
	CorePLLACK     = 7
	CorePLLBCK     = 8
	CoreAudioPLLCK = 9
	CoreMCKPres    = 10
)

const numProgrammable = 3

// Entry binds a hardware identifier to a registered node.
type Entry struct {
	ID   int
	Node *clk.Node
}

// PMC holds the typed clock tables of a power management controller.
type PMC struct {
	Regs *Regs
	Tree *clk.Tree

	core   []Entry
	system []Entry
	periph []Entry
	gck    []Entry
	prog   []Entry

	// Slow is the slow clock root, provided by the slow clock controller.
	Slow *clk.Node
}

func (p *PMC) table(t Type) []Entry {
	switch t {
	case TypeCore:
		return p.core
	case TypeSystem:
		return p.system
	case TypePeripheral:
		return p.periph
	case TypeGCK:
		return p.gck
	case TypeProgrammable:
		return p.prog
	default:
		return nil
	}
}

func (p *PMC) add(t Type, id int, n *clk.Node) {
	e := Entry{ID: id, Node: n}
	switch t {
	case TypeCore:
		p.core = append(p.core, e)
	case TypeSystem:
		p.system = append(p.system, e)
	case TypePeripheral:
		p.periph = append(p.periph, e)
	case TypeGCK:
		p.gck = append(p.gck, e)
	case TypeProgrammable:
		p.prog = append(p.prog, e)
	}
}

// Lookup returns the clock with hardware id in table t.
func (p *PMC) Lookup(t Type, id int) (*clk.Node, error) {
	for _, e := range p.table(t) {
		if e.ID == id {
			return e.Node, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s clock %d", clk.ErrInvalidArgument, t, id)
}

// LookupName returns the clock named name in table t.
func (p *PMC) LookupName(t Type, name string) (*clk.Node, error) {
	for _, e := range p.table(t) {
		if e.Node.Name() == name {
			return e.Node, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s clock %q", clk.ErrInvalidArgument, t, name)
}

// Entries returns a copy of table t.
func (p *PMC) Entries(t Type) []Entry {
	src := p.table(t)
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

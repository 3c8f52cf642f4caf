package clk

import (
	"fmt"
	"sync"
)

// Enabler gates a clock in hardware. Enable may fail; Disable may not.
type Enabler interface {
	Enable() error
	Disable()
}

// EnableChecker reports the hardware gate state.
type EnableChecker interface {
	IsEnabled() bool
}

// RateGetter computes the output rate from the parent rate.
type RateGetter interface {
	Rate(parent uint64) uint64
}

// RateSetter programs the hardware for a target output rate.
type RateSetter interface {
	SetRate(rate, parent uint64) error
}

// ParentGetter returns the index of the active parent as read from hardware.
type ParentGetter interface {
	Parent() int
}

// ParentSetter selects a parent by index.
type ParentSetter interface {
	SetParent(index int) error
}

// RateLister enumerates the discrete rates reachable from a parent rate.
type RateLister interface {
	Rates(parent uint64) []uint64
}

// Flags modify how the tree applies changes to a node.
type Flags uint32

const (
	// FlagSetRateGate refuses rate changes while the node is enabled.
	FlagSetRateGate Flags = 1 << iota

	// FlagSetParentGate refuses parent changes while the node is enabled.
	FlagSetParentGate

	// FlagSetRateParent forwards rate requests to the active parent first.
	FlagSetRateParent
)

// String returns the set flag names.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if f&FlagSetRateGate != 0 {
		add("SET_RATE_GATE")
	}
	if f&FlagSetParentGate != 0 {
		add("SET_PARENT_GATE")
	}
	if f&FlagSetRateParent != 0 {
		add("SET_RATE_PARENT")
	}
	return s
}

// NodeID is the stable arena index of a registered node.
type NodeID int

// Node is one clock in the tree.
type Node struct {
	name    string
	ops     any
	flags   Flags
	parents []*Node

	enabler      Enabler
	checker      EnableChecker
	rateGetter   RateGetter
	rateSetter   RateSetter
	parentGetter ParentGetter
	parentSetter ParentSetter
	lister       RateLister

	tree *Tree
	id   NodeID

	mu     sync.Mutex
	parent *Node
	rate   uint64
	count  int
}

// New creates an unregistered node. No hardware is accessed until the node
// is registered.
func New(name string, ops any, flags Flags, parents ...*Node) *Node {
	n := &Node{
		name:    name,
		ops:     ops,
		flags:   flags,
		parents: parents,
		id:      -1,
	}
	n.enabler, _ = ops.(Enabler)
	n.checker, _ = ops.(EnableChecker)
	n.rateGetter, _ = ops.(RateGetter)
	n.rateSetter, _ = ops.(RateSetter)
	n.parentGetter, _ = ops.(ParentGetter)
	n.parentSetter, _ = ops.(ParentSetter)
	n.lister, _ = ops.(RateLister)
	return n
}

// validate checks the capability combination.
func (n *Node) validate() error {
	if n.ops == nil {
		return fmt.Errorf("%w: %s: no operations", ErrConfiguration, n.name)
	}
	if n.name == "" {
		return fmt.Errorf("%w: empty name", ErrConfiguration)
	}
	if n.parentSetter != nil && n.parentGetter == nil {
		return fmt.Errorf("%w: %s: set-parent without get-parent", ErrConfiguration, n.name)
	}
	if len(n.parents) > 1 && n.parentGetter == nil {
		return fmt.Errorf("%w: %s: %d parents without get-parent", ErrConfiguration, n.name, len(n.parents))
	}
	return nil
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// ID returns the arena index, or -1 before registration.
func (n *Node) ID() NodeID { return n.id }

// Flags returns the node flags.
func (n *Node) Flags() Flags { return n.flags }

// Ops returns the capability value the node was created with.
func (n *Node) Ops() any { return n.ops }

// NumParents returns the number of parent candidates.
func (n *Node) NumParents() int { return len(n.parents) }

// ParentByIndex returns candidate i, or nil when out of range.
func (n *Node) ParentByIndex(i int) *Node {
	if i < 0 || i >= len(n.parents) {
		return nil
	}
	return n.parents[i]
}

// ParentIndex returns the candidate index of p, or -1.
func (n *Node) ParentIndex(p *Node) int {
	for i, c := range n.parents {
		if c == p {
			return i
		}
	}
	return -1
}

// CanSetRate reports whether the node programs rates itself.
func (n *Node) CanSetRate() bool { return n.rateSetter != nil }

// CanSetParent reports whether the node can switch parents.
func (n *Node) CanSetParent() bool { return n.parentSetter != nil }

// CanListRates reports whether the node enumerates discrete rates.
func (n *Node) CanListRates() bool { return n.lister != nil }

func (n *Node) String() string { return n.name }

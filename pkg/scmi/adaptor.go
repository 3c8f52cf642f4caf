package scmi

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/secclk/clkcore/pkg/clk"
)

// MaxNameLen bounds clock names exposed to agents, terminator included.
const MaxNameLen = 16

// MaxRatesPerReply bounds the rates returned by one ListRates call.
const MaxRatesPerReply = 16

type bindingKey struct {
	channel uint32
	id      uint32
}

// binding is one exposed clock. enabled records the reference the agent
// holds on the node.
type binding struct {
	mu      sync.Mutex
	node    *clk.Node
	enabled bool
}

// Binding describes an exposed clock.
type Binding struct {
	Channel uint32
	ID      uint32
	Node    *clk.Node
}

// Adaptor maps (channel, id) pairs onto tree nodes.
type Adaptor struct {
	mu       sync.RWMutex
	tree     *clk.Tree
	bindings map[bindingKey]*binding

	logger *slog.Logger
}

// NewAdaptor creates an adaptor over tree with no bindings.
func NewAdaptor(tree *clk.Tree) *Adaptor {
	return &Adaptor{
		tree:     tree,
		bindings: make(map[bindingKey]*binding),
	}
}

// SetLogger sets the operational logger. Nil disables it.
func (a *Adaptor) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

func (a *Adaptor) debugLog(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// Tree returns the tree the adaptor serves.
func (a *Adaptor) Tree() *clk.Tree { return a.tree }

// Bind exposes node as clock id on channel. A failed bind leaves the
// bindings unchanged.
func (a *Adaptor) Bind(node *clk.Node, channel, id uint32) error {
	if node == nil {
		return fmt.Errorf("%w: nil node", clk.ErrInvalidArgument)
	}
	if len(node.Name()) >= MaxNameLen {
		return fmt.Errorf("%w: name %q longer than %d", clk.ErrInvalidArgument, node.Name(), MaxNameLen-1)
	}
	if a.tree.Node(node.ID()) != node {
		return fmt.Errorf("%w: %s is not registered", clk.ErrInvalidArgument, node.Name())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	k := bindingKey{channel, id}
	if b, ok := a.bindings[k]; ok {
		return fmt.Errorf("%w: channel %d id %d already bound to %s", ErrDuplicateBinding, channel, id, b.node.Name())
	}
	a.bindings[k] = &binding{node: node}
	a.debugLog("clock bound", "channel", channel, "id", id, "node", node.Name())
	return nil
}

// BindAll binds nodes[i] as clock i on channel, stopping at the first
// failure.
func (a *Adaptor) BindAll(channel uint32, nodes []*clk.Node) error {
	for i, n := range nodes {
		if err := a.Bind(n, channel, uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adaptor) lookup(channel, id uint32) (*binding, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.bindings[bindingKey{channel, id}]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d id %d", ErrNotFound, channel, id)
	}
	return b, nil
}

// Lookup returns the node bound to (channel, id).
func (a *Adaptor) Lookup(channel, id uint32) (*clk.Node, error) {
	b, err := a.lookup(channel, id)
	if err != nil {
		return nil, err
	}
	return b.node, nil
}

// Bindings returns the bindings of channel ordered by id.
func (a *Adaptor) Bindings(channel uint32) []Binding {
	a.mu.RLock()
	out := make([]Binding, 0, len(a.bindings))
	for k, b := range a.bindings {
		if k.channel == channel {
			out = append(out, Binding{Channel: k.channel, ID: k.id, Node: b.node})
		}
	}
	a.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the highest bound id on channel plus one, or 0 when the
// channel has no clocks. Ids below the count may be unbound.
func (a *Adaptor) Count(channel uint32) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	found := false
	var maxID uint32
	for k := range a.bindings {
		if k.channel != channel {
			continue
		}
		found = true
		if k.id > maxID {
			maxID = k.id
		}
	}
	if !found {
		return 0
	}
	return int(maxID) + 1
}

// Name returns the name of the clock.
func (a *Adaptor) Name(channel, id uint32) (string, error) {
	b, err := a.lookup(channel, id)
	if err != nil {
		return "", err
	}
	return b.node.Name(), nil
}

// Rate returns the cached rate of the clock.
func (a *Adaptor) Rate(channel, id uint32) (uint64, error) {
	b, err := a.lookup(channel, id)
	if err != nil {
		return 0, err
	}
	return a.tree.Rate(b.node), nil
}

// SetRate changes the clock rate through the tree. A clock that neither
// programs its own rate nor forwards to its parent is read-only.
func (a *Adaptor) SetRate(channel, id uint32, rate uint64) error {
	b, err := a.lookup(channel, id)
	if err != nil {
		return err
	}
	n := b.node
	if !n.CanSetRate() && n.Flags()&clk.FlagSetRateParent == 0 {
		return fmt.Errorf("%w: %s rate is read-only", ErrNotSupported, n.Name())
	}
	return a.tree.SetRate(n, rate)
}

// State reports whether the clock hardware runs.
func (a *Adaptor) State(channel, id uint32) (bool, error) {
	b, err := a.lookup(channel, id)
	if err != nil {
		return false, err
	}
	return a.tree.HardwareEnabled(b.node), nil
}

// SetState enables or disables the clock on behalf of the agent. The agent
// holds at most one reference per binding, so repeated requests are
// idempotent. Enable failures are reported as ErrEnableFailed.
func (a *Adaptor) SetState(channel, id uint32, on bool) error {
	b, err := a.lookup(channel, id)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case on && !b.enabled:
		if err := a.tree.Enable(b.node); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrEnableFailed, b.node.Name(), err)
		}
		b.enabled = true
	case !on && b.enabled:
		a.tree.Disable(b.node)
		b.enabled = false
	}
	return nil
}

// ListRates returns up to MaxRatesPerReply discrete rates starting at
// index start, and whether more remain. A clock forwarding rate requests
// to its parent enumerates the parent. A clock without a rate list reports
// its current rate as the only entry.
func (a *Adaptor) ListRates(channel, id uint32, start int) ([]uint64, bool, error) {
	b, err := a.lookup(channel, id)
	if err != nil {
		return nil, false, err
	}

	n := b.node
	if n.Flags()&clk.FlagSetRateParent != 0 {
		if p := a.tree.Parent(n); p != nil {
			n = p
		}
	}

	var rates []uint64
	if n.CanListRates() {
		rates = a.tree.ListRates(n)
	} else {
		rates = []uint64{a.tree.Rate(n)}
	}

	if start == 0 && len(rates) == 0 {
		return nil, false, nil
	}
	if start < 0 || start >= len(rates) {
		return nil, false, fmt.Errorf("%w: rate index %d of %d", clk.ErrInvalidArgument, start, len(rates))
	}
	end := start + MaxRatesPerReply
	if end > len(rates) {
		end = len(rates)
	}
	return rates[start:end], end < len(rates), nil
}

package clk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/secclk/clkcore/pkg/log"
)

// Tree is the registry of clock nodes. Nodes are appended in registration
// order and are never removed.
type Tree struct {
	mu     sync.RWMutex
	nodes  []*Node
	byName map[string]*Node

	logger *slog.Logger
	events log.Logger
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{
		byName: make(map[string]*Node),
		events: log.NoopLogger{},
	}
}

// SetLogger sets the operational logger. Nil disables it.
func (t *Tree) SetLogger(logger *slog.Logger) {
	t.logger = logger
}

// SetEventLogger sets the event capture logger. Nil disables it.
func (t *Tree) SetEventLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	t.events = logger
}

func (t *Tree) debugLog(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}

func (t *Tree) warnLog(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}

// emit records a clock event. The node lock must be held.
func (t *Tree) emit(op log.ClockOp, n *Node, requested uint64, err error) {
	ev := &log.ClockEvent{
		Op:        op,
		Node:      n.name,
		Rate:      n.rate,
		Count:     n.count,
		Requested: requested,
	}
	if n.parent != nil {
		ev.Parent = n.parent.name
	}
	category := log.CategoryState
	if err != nil {
		ev.Err = err.Error()
		category = log.CategoryError
	}
	t.events.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerClock,
		Category:  category,
		LocalRole: log.RolePlatform,
		Clock:     ev,
	})
}

// Register validates n, appends it to the arena, selects its active parent
// and computes its initial rate. All parent candidates must already be
// registered in t.
func (t *Tree) Register(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrConfiguration)
	}
	if err := n.validate(); err != nil {
		return err
	}
	for i, p := range n.parents {
		if p == nil || p.tree != t {
			return fmt.Errorf("%w: %s: parent %d not registered", ErrConfiguration, n.name, i)
		}
	}

	// The active parent and rate are settled before n is published so a bad
	// hardware selector leaves the registry untouched.
	var parent *Node
	switch len(n.parents) {
	case 0:
	case 1:
		parent = n.parents[0]
	default:
		idx := n.parentGetter.Parent()
		if idx < 0 || idx >= len(n.parents) {
			panic(fmt.Sprintf("clk: %s: hardware parent index %d out of %d", n.name, idx, len(n.parents)))
		}
		parent = n.parents[idx]
	}
	rate := n.rateFrom(parent)

	n.mu.Lock()
	defer n.mu.Unlock()

	t.mu.Lock()
	if n.tree != nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s already registered", ErrConfiguration, n.name)
	}
	if _, ok := t.byName[n.name]; ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: duplicate name %s", ErrConfiguration, n.name)
	}
	n.parent, n.rate = parent, rate
	n.tree = t
	n.id = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	t.byName[n.name] = n
	t.mu.Unlock()

	t.debugLog("clock registered", "node", n.name, "id", n.id, "rate", n.rate, "parent", n.parent)
	t.emit(log.ClockOpRegister, n, 0, nil)
	return nil
}

// MustRegister registers n and panics on failure. It returns n for chaining.
func (t *Tree) MustRegister(n *Node) *Node {
	if err := t.Register(n); err != nil {
		panic(err)
	}
	return n
}

// computeRate derives the rate of n from its active parent. n must be locked.
func (t *Tree) computeRate(n *Node) uint64 {
	return n.rateFrom(n.parent)
}

// rateFrom is the rate n produces when fed by p.
func (n *Node) rateFrom(p *Node) uint64 {
	var parentRate uint64
	if p != nil {
		p.mu.Lock()
		parentRate = p.rate
		p.mu.Unlock()
	}
	switch {
	case n.rateGetter != nil:
		return n.rateGetter.Rate(parentRate)
	case p != nil:
		return parentRate
	default:
		return 0
	}
}

func (t *Tree) owns(n *Node) error {
	if n == nil || n.tree != t {
		return fmt.Errorf("%w: node not registered in this tree", ErrInvalidArgument)
	}
	return nil
}

// Enable takes a reference on n, enabling it and its ancestors in hardware
// on the first reference.
func (t *Tree) Enable(n *Node) error {
	if err := t.owns(n); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.count > 0 {
		n.count++
		return nil
	}
	if err := t.enableHardware(n); err != nil {
		t.warnLog("clock enable failed", "node", n.name, "error", err)
		t.emit(log.ClockOpEnable, n, 0, err)
		return err
	}
	n.count = 1
	t.emit(log.ClockOpEnable, n, 0, nil)
	return nil
}

// enableHardware enables the active parent and then n. On failure the parent
// reference is dropped again. n must be locked.
func (t *Tree) enableHardware(n *Node) error {
	p := n.parent
	if p != nil {
		if err := t.Enable(p); err != nil {
			return err
		}
	}
	if n.enabler != nil {
		if err := n.enabler.Enable(); err != nil {
			if p != nil {
				t.Disable(p)
			}
			return fmt.Errorf("%w: enable %s: %v", ErrHardware, n.name, err)
		}
	}
	return nil
}

// disableHardware gates n and releases its parent. n must be locked.
func (t *Tree) disableHardware(n *Node) {
	if n.enabler != nil {
		n.enabler.Disable()
	}
	if n.parent != nil {
		t.Disable(n.parent)
	}
}

// Disable drops a reference on n. The last reference gates the hardware and
// releases the parent. Disabling an unreferenced node does nothing.
func (t *Tree) Disable(n *Node) {
	if t.owns(n) != nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.count == 0 {
		return
	}
	n.count--
	if n.count > 0 {
		return
	}
	t.disableHardware(n)
	t.emit(log.ClockOpDisable, n, 0, nil)
}

// Rate returns the cached rate of n.
func (t *Tree) Rate(n *Node) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rate
}

// IsEnabled reports whether n holds at least one enable reference.
func (t *Tree) IsEnabled(n *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count > 0
}

// EnableCount returns the number of enable references on n.
func (t *Tree) EnableCount(n *Node) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// HardwareEnabled asks the hardware when the node can report its gate
// state, and falls back to the reference count otherwise.
func (t *Tree) HardwareEnabled(n *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.checker != nil {
		return n.checker.IsEnabled()
	}
	return n.count > 0
}

// Parent returns the active parent of n, or nil for a root.
func (t *Tree) Parent(n *Node) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// SetRate changes the rate of n. With FlagSetRateParent the request is
// forwarded to the active parent before n itself is programmed.
func (t *Tree) SetRate(n *Node, rate uint64) error {
	if err := t.owns(n); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err := t.setRate(n, rate)
	t.emit(log.ClockOpSetRate, n, rate, err)
	if err != nil {
		t.debugLog("clock set rate refused", "node", n.name, "rate", rate, "error", err)
	}
	return err
}

func (t *Tree) setRate(n *Node, rate uint64) error {
	if rate == n.rate {
		return nil
	}
	if n.flags&FlagSetRateGate != 0 && n.count > 0 {
		return fmt.Errorf("%w: %s is enabled", ErrBusy, n.name)
	}

	p := n.parent
	if n.flags&FlagSetRateParent != 0 && p != nil {
		if err := t.SetRate(p, rate); err != nil {
			// A node with its own divider may still reach the rate from
			// the parent's current output.
			recoverable := errors.Is(err, ErrUnsupportedRate) || errors.Is(err, ErrOutOfRange)
			if n.rateSetter == nil || !recoverable {
				return err
			}
		}
	}

	if n.rateSetter != nil {
		var parentRate uint64
		if p != nil {
			parentRate = t.Rate(p)
		}
		if err := n.rateSetter.SetRate(rate, parentRate); err != nil {
			return driverError(err)
		}
	}

	n.rate = t.computeRate(n)
	t.debugLog("clock rate changed", "node", n.name, "requested", rate, "rate", n.rate)
	return nil
}

// SetParent switches n to parent candidate index. An enabled node is gated
// off around the switch and re-enabled against the new parent with its
// reference count unchanged.
func (t *Tree) SetParent(n *Node, index int) error {
	if err := t.owns(n); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err := t.setParent(n, index)
	t.emit(log.ClockOpSetParent, n, uint64(index), err)
	if err != nil {
		t.warnLog("clock set parent failed", "node", n.name, "index", index, "error", err)
	}
	return err
}

func (t *Tree) setParent(n *Node, index int) error {
	if index < 0 || index >= len(n.parents) {
		return fmt.Errorf("%w: %s: parent index %d out of %d", ErrInvalidArgument, n.name, index, len(n.parents))
	}
	if n.parentSetter == nil {
		return fmt.Errorf("%w: %s cannot change parent", ErrInvalidArgument, n.name)
	}

	next := n.parents[index]
	if next == n.parent {
		return nil
	}

	enabled := n.count > 0
	if enabled && n.flags&FlagSetParentGate != 0 {
		return fmt.Errorf("%w: %s is enabled", ErrBusy, n.name)
	}
	if enabled {
		t.disableHardware(n)
	}

	if err := n.parentSetter.SetParent(index); err != nil {
		err = fmt.Errorf("%w: %s: select parent %d: %v", ErrHardware, n.name, index, err)
		if enabled {
			if rerr := t.enableHardware(n); rerr != nil {
				n.count = 0
				return errors.Join(err, fmt.Errorf("restore %s: %w", n.name, rerr))
			}
		}
		return err
	}

	n.parent = next
	n.rate = t.computeRate(n)

	if enabled {
		if err := t.enableHardware(n); err != nil {
			n.count = 0
			return errors.Join(fmt.Errorf("%w: %s lost its clock after parent switch", ErrHardware, n.name), err)
		}
	}
	t.debugLog("clock parent changed", "node", n.name, "parent", next.name, "rate", n.rate)
	return nil
}

// ListRates returns the discrete rates of n computed from its current parent
// rate, or nil when n cannot enumerate rates.
func (t *Tree) ListRates(n *Node) []uint64 {
	if n.lister == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	var parentRate uint64
	if n.parent != nil {
		parentRate = t.Rate(n.parent)
	}
	return n.lister.Rates(parentRate)
}

// Lookup returns the node registered under name.
func (t *Tree) Lookup(name string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.byName[name]
	return n, ok
}

// Node returns the node with the given arena index, or nil.
func (t *Tree) Node(id NodeID) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Nodes returns a snapshot of all registered nodes in registration order.
func (t *Tree) Nodes() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Len returns the number of registered nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

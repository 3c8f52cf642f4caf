package clk

// Fixed is a root clock with a constant rate.
type Fixed struct {
	Hz uint64
}

// Rate returns the configured rate; a root has no parent.
func (f *Fixed) Rate(uint64) uint64 { return f.Hz }

// NewFixed creates a fixed-rate root node.
func NewFixed(name string, hz uint64) *Node {
	return New(name, &Fixed{Hz: hz}, 0)
}

// Gate is a pass-through clock that can only be switched on and off.
type Gate struct {
	On  func() error
	Off func()
}

// Enable calls On when set.
func (g *Gate) Enable() error {
	if g.On == nil {
		return nil
	}
	return g.On()
}

// Disable calls Off when set.
func (g *Gate) Disable() {
	if g.Off != nil {
		g.Off()
	}
}

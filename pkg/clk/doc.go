// Package clk implements a clock tree: nodes with a fixed set of parent
// candidates, one active parent, a cached rate and an enable reference count.
//
// A Node is created with New and a capability value whose methods describe
// what the hardware can do (Enabler, RateGetter, RateSetter, ParentGetter,
// ParentSetter, RateLister, EnableChecker). Capabilities are detected once by
// type assertion; a node offering none of them simply passes its parent rate
// through.
//
// Nodes are registered into a Tree bottom-up, parents first. The tree keeps
// the enable counts balanced across the hierarchy: a node is never enabled in
// hardware while its active parent is disabled.
//
// # Locking
//
// Every node carries its own mutex. The tree acquires at most the lock of a
// node and then the locks of its ancestors, always child before parent, so
// operations on disjoint subtrees run concurrently.
//
// # Rate cache
//
// Rates are computed when a node is registered and refreshed only for the
// node passed to SetRate or SetParent (and the parents a forwarded SetRate
// reaches). Children are not recomputed. Drivers must not change divider or
// selector registers outside those calls.
//
// # Basic Usage
//
//	tree := clk.NewTree()
//	osc := tree.MustRegister(clk.NewFixed("osc", 12000000))
//	pll := tree.MustRegister(clk.New("pll", pllOps, clk.FlagSetRateGate, osc))
//
//	if err := tree.SetRate(pll, 800000000); err != nil {
//	    return err
//	}
//	if err := tree.Enable(pll); err != nil {
//	    return err
//	}
package clk

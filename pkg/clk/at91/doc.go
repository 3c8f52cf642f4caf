// Package at91 provides clock drivers for the Microchip AT91 Power
// Management Controller (PMC) and builds the SAMA5D2 clock tree.
//
// Each driver is a capability value for clk.New: it implements the subset of
// clk.Enabler, clk.RateGetter, clk.RateSetter, clk.ParentGetter,
// clk.ParentSetter, clk.RateLister and clk.EnableChecker that the hardware
// block supports. Drivers touch registers only through a Regs value, which
// serializes read-modify-write cycles and the indirect peripheral control
// register (PCR) sequence shared by every peripheral and generated clock.
//
// Setup registers the complete SAMA5D2 tree and returns a PMC holding the
// typed lookup tables (core, system, peripheral, generated, programmable).
// Sim models the PMC side effects in memory so the tree can run without
// hardware.
package at91

// Package regmap provides 32-bit register access for clock drivers.
//
// Drivers never touch memory directly; they program hardware through an
// Accessor. Three implementations are provided:
//   - Mem: a sparse in-memory register file, used by simulations and tests
//   - MMIO: a memory-mapped window of /dev/mem for running against real hardware
//   - mocks.MockAccessor: a mockery generated mock for interaction tests
//
// Offsets are relative to the base of the mapped block. Accesses are assumed
// atomic and free of side effects beyond the addressed register.
package regmap

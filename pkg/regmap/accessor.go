package regmap

// Accessor reads and writes 32-bit registers at byte offsets.
type Accessor interface {
	// Read32 returns the value of the register at offset.
	Read32(offset uint32) uint32

	// Write32 stores val in the register at offset.
	Write32(offset uint32, val uint32)
}

// ClrSet clears the bits in clr, then sets the bits in set, in a single
// read-modify-write cycle.
func ClrSet(a Accessor, offset, clr, set uint32) {
	v := a.Read32(offset)
	v &^= clr
	v |= set
	a.Write32(offset, v)
}

// SetBits sets the bits in mask.
func SetBits(a Accessor, offset, mask uint32) {
	ClrSet(a, offset, 0, mask)
}

// ClearBits clears the bits in mask.
func ClearBits(a Accessor, offset, mask uint32) {
	ClrSet(a, offset, mask, 0)
}

// Field extracts the bits selected by mask, shifted down to bit 0.
func Field(mask, reg uint32) uint32 {
	if mask == 0 {
		return 0
	}
	return (reg & mask) >> shift(mask)
}

// Prep shifts val into the position selected by mask.
func Prep(mask, val uint32) uint32 {
	if mask == 0 {
		return 0
	}
	return (val << shift(mask)) & mask
}

// GenMask returns a mask with bits lo through hi (inclusive) set.
func GenMask(hi, lo uint) uint32 {
	return (^uint32(0) >> (31 - hi)) &^ ((uint32(1) << lo) - 1)
}

func shift(mask uint32) uint {
	var s uint
	for mask&1 == 0 {
		mask >>= 1
		s++
	}
	return s
}

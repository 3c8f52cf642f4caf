// Package units formats and parses clock rates for the command-line tools.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

var suffixes = []struct {
	suffix string
	scale  uint64
}{
	{"G", 1000000000},
	{"M", 1000000},
	{"k", 1000},
}

// ParseRate parses a rate in Hz. An optional k, M or G suffix (and an
// optional trailing "Hz") scales the value; fractional values are allowed
// with a suffix, e.g. "12.288M".
func ParseRate(s string) (uint64, error) {
	in := strings.TrimSpace(s)
	in = strings.TrimSuffix(strings.TrimSuffix(in, "Hz"), "hz")
	if in == "" {
		return 0, fmt.Errorf("invalid rate %q", s)
	}

	for _, sf := range suffixes {
		if !strings.HasSuffix(in, sf.suffix) && !strings.HasSuffix(in, strings.ToLower(sf.suffix)) {
			continue
		}
		num := in[:len(in)-len(sf.suffix)]
		whole, frac, _ := strings.Cut(num, ".")
		w, err := strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid rate %q", s)
		}
		rate := w * sf.scale
		if frac != "" {
			f, err := strconv.ParseUint(frac, 10, 64)
			if err != nil || len(frac) > 9 {
				return 0, fmt.Errorf("invalid rate %q", s)
			}
			div := uint64(1)
			for range frac {
				div *= 10
			}
			rate += f * sf.scale / div
		}
		return rate, nil
	}

	rate, err := strconv.ParseUint(in, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	return rate, nil
}

// FormatRate renders hz with the largest unit that keeps it exact to three
// decimals.
func FormatRate(hz uint64) string {
	for _, sf := range suffixes {
		if hz >= sf.scale {
			whole := hz / sf.scale
			rem := hz % sf.scale
			if rem == 0 {
				return fmt.Sprintf("%d %sHz", whole, sf.suffix)
			}
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%d.%0*d", whole, digits(sf.scale), rem), "0"), ".") + " " + sf.suffix + "Hz"
		}
	}
	return fmt.Sprintf("%d Hz", hz)
}

func digits(scale uint64) int {
	n := 0
	for scale > 1 {
		scale /= 10
		n++
	}
	return n
}

// Package version handles the 32-bit protocol version words exchanged on
// the management channel. The major number lives in the upper half-word and
// the minor number in the lower one.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a decoded protocol version.
type Version struct {
	Major uint16
	Minor uint16
}

// Protocol versions implemented by this module.
var (
	Base  = Version{Major: 2, Minor: 0}
	Clock = Version{Major: 1, Minor: 0}
)

// FromWord decodes a version word.
func FromWord(w uint32) Version {
	return Version{Major: uint16(w >> 16), Minor: uint16(w)}
}

// Word encodes v as sent in PROTOCOL_VERSION responses.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)
}

// Parse parses a "major.minor" string.
func Parse(s string) (Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(minor, ".") {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}
	mi, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}
	return Version{Major: uint16(ma), Minor: uint16(mi)}, nil
}

// String returns "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether an agent speaking v can talk to a platform
// reporting other. Minor revisions only add commands.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Less orders versions by major, then minor.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

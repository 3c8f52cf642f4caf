package discovery

import (
	"errors"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the service type advertised by clock daemons.
	ServiceType = "_clkd._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default clock protocol port.
	DefaultPort = 7410

	// InstancePrefix prefixes generated instance names.
	InstancePrefix = "clkd-"
)

// TXT record keys.
const (
	TXTKeySoC      = "soc"
	TXTKeyBoard    = "board"
	TXTKeyVendor   = "vendor" // optional
	TXTKeyVersion  = "ver"    // clock protocol version, major.minor
	TXTKeyChannels = "ch"     // bound channels, comma-separated (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// DaemonInfo is what a daemon advertises about itself.
type DaemonInfo struct {
	// InstanceName is the DNS-SD instance. Empty selects "clkd-<board>".
	InstanceName string

	// Port is the clock protocol port. Zero selects DefaultPort.
	Port uint16

	SoC             string
	Board           string
	Vendor          string
	ProtocolVersion uint32
	Channels        []uint32
}

// Instance returns the effective instance name.
func (i *DaemonInfo) Instance() string {
	if i.InstanceName != "" {
		return i.InstanceName
	}
	return InstancePrefix + i.Board
}

// Validate checks that the info can be advertised.
func (i *DaemonInfo) Validate() error {
	if i.SoC == "" {
		return ErrMissingRequired
	}
	if i.Board == "" && i.InstanceName == "" {
		return ErrMissingRequired
	}
	return ValidateInstanceName(i.Instance())
}

// DaemonService is a discovered clock daemon.
type DaemonService struct {
	DaemonInfo

	// Host is the advertised host name.
	Host string

	// Addresses holds every IPv4 and IPv6 address seen for the instance.
	Addresses []string
}

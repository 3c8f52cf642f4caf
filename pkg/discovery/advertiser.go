package discovery

import (
	"context"
	"time"
)

// Advertiser publishes a daemon on the local network.
type Advertiser interface {
	// Advertise starts (or restarts) the advertisement.
	Advertise(ctx context.Context, info *DaemonInfo) error

	// Update replaces the TXT records of the running advertisement.
	Update(info *DaemonInfo) error

	// Stop withdraws the advertisement.
	Stop() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
	}
}

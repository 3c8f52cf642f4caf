package discovery

import (
	"context"
	"time"
)

// Browser finds clock daemons on the local network.
type Browser interface {
	// Browse streams daemons until ctx is done. Each instance is emitted
	// once; addresses from further interfaces are merged into it.
	Browse(ctx context.Context) (<-chan *DaemonService, error)

	// FindByBoard returns the first daemon advertising board.
	FindByBoard(ctx context.Context, board string) (*DaemonService, error)

	// Stop cancels running browse operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// FilterFunc is a function that filters browse results.
type FilterFunc func(*DaemonService) bool

// FilterBySoC matches daemons driving the given SoC.
func FilterBySoC(soc string) FilterFunc {
	return func(svc *DaemonService) bool {
		return svc.SoC == soc
	}
}

// FilterByBoard matches daemons advertising the given board.
func FilterByBoard(board string) FilterFunc {
	return func(svc *DaemonService) bool {
		return svc.Board == board
	}
}

// FilterByChannel matches daemons exposing channel.
func FilterByChannel(channel uint32) FilterFunc {
	return func(svc *DaemonService) bool {
		for _, c := range svc.Channels {
			if c == channel {
				return true
			}
		}
		return false
	}
}

// FilterBrowseResults filters a channel of daemon services.
func FilterBrowseResults(in <-chan *DaemonService, filter FilterFunc) <-chan *DaemonService {
	out := make(chan *DaemonService)
	go func() {
		defer close(out)
		for svc := range in {
			if filter(svc) {
				out <- svc
			}
		}
	}()
	return out
}

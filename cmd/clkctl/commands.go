package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/secclk/clkcore/internal/units"
	"github.com/secclk/clkcore/pkg/scmi"
	"github.com/secclk/clkcore/pkg/version"
	"github.com/secclk/clkcore/pkg/wire"
)

// supported lists the protocol versions this client speaks.
var supported = map[wire.Protocol]version.Version{
	wire.ProtocolBase:  version.Base,
	wire.ProtocolClock: version.Clock,
}

// execute runs one command against the daemon.
func execute(ctx context.Context, client *scmi.Client, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "info":
		return cmdInfo(ctx, client, out)
	case "list", "ls":
		return cmdList(ctx, client, out)
	case "rate":
		id, err := clockID(rest, 1)
		if err != nil {
			return err
		}
		rate, err := client.RateGet(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, units.FormatRate(rate))
		return nil
	case "set-rate":
		id, err := clockID(rest, 2)
		if err != nil {
			return err
		}
		rate, err := units.ParseRate(rest[1])
		if err != nil {
			return err
		}
		if err := client.RateSet(ctx, id, rate); err != nil {
			return err
		}
		got, err := client.RateGet(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "clock %d = %s\n", id, units.FormatRate(got))
		return nil
	case "rates":
		id, err := clockID(rest, 1)
		if err != nil {
			return err
		}
		rates, err := client.Rates(ctx, id)
		if err != nil {
			return err
		}
		for i, r := range rates {
			fmt.Fprintf(out, "[%d] %s\n", i, units.FormatRate(r))
		}
		return nil
	case "on", "off":
		id, err := clockID(rest, 1)
		if err != nil {
			return err
		}
		return client.ConfigSet(ctx, id, cmd == "on")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func clockID(args []string, want int) (uint32, error) {
	if len(args) < want {
		return 0, fmt.Errorf("expected %d argument(s)", want)
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid clock id %q", args[0])
	}
	return uint32(id), nil
}

func cmdInfo(ctx context.Context, client *scmi.Client, out io.Writer) error {
	vendor, subVendor, err := client.Vendor(ctx)
	if err != nil {
		return err
	}
	impl, err := client.ImplVersion(ctx)
	if err != nil {
		return err
	}
	protocols, err := client.ListProtocols(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Vendor:       %s\n", vendor)
	if subVendor != "" {
		fmt.Fprintf(out, "Sub-vendor:   %s\n", subVendor)
	}
	fmt.Fprintf(out, "Impl version: %#x\n", impl)
	for _, p := range append([]wire.Protocol{wire.ProtocolBase}, protocols...) {
		v, err := client.Version(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Protocol:     %s (%#x) version %s\n", p, uint8(p), version.FromWord(v))
		if want, ok := supported[p]; ok && !want.Compatible(version.FromWord(v)) {
			fmt.Fprintf(out, "Warning:      %s protocol %s is not compatible with %s\n", p, version.FromWord(v), want)
		}
	}
	return nil
}

func cmdList(ctx context.Context, client *scmi.Client, out io.Writer) error {
	n, err := client.ClockCount(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tRATE")
	for id := uint32(0); id < uint32(n); id++ {
		attrs, err := client.ClockAttributes(ctx, id)
		if err != nil {
			return err
		}
		rate, err := client.RateGet(ctx, id)
		if err != nil {
			return err
		}
		state := "off"
		if attrs.Enabled {
			state = "on"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, attrs.Name, state, units.FormatRate(rate))
	}
	return w.Flush()
}

// Command clkctl talks to a clock daemon over the clock protocol.
//
// Usage:
//
//	clkctl [flags] [command [args...]]
//
// Without a command clkctl starts an interactive prompt that reconnects
// when the daemon restarts.
//
// Flags:
//
//	-addr string      Daemon address (default "localhost:7410")
//	-board string     Locate the daemon of this board via mDNS instead of -addr
//	-channel uint     Protocol channel (default 0)
//	-timeout duration Per-request timeout (default 5s)
//
// Examples:
//
//	clkctl info
//	clkctl list
//	clkctl set-rate 11 48M
//	clkctl -board sama5d2-xplained
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/secclk/clkcore/pkg/connection"
	"github.com/secclk/clkcore/pkg/discovery"
	"github.com/secclk/clkcore/pkg/scmi"
	"github.com/secclk/clkcore/pkg/transport"
)

var (
	addr      = flag.String("addr", fmt.Sprintf("localhost:%d", transport.DefaultPort), "Daemon address")
	boardName = flag.String("board", "", "Locate the daemon of this board via mDNS")
	channel   = flag.Uint("channel", 0, "Protocol channel")
	timeout   = flag.Duration("timeout", 5*time.Second, "Per-request timeout")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	ctx := context.Background()

	target := *addr
	if *boardName != "" {
		found, err := locate(ctx, *boardName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "clkctl: %v\n", err)
			os.Exit(1)
		}
		target = found
	}

	if flag.NArg() > 0 {
		if err := oneShot(ctx, target, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "clkctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := interactive(ctx, target); err != nil {
		fmt.Fprintf(os.Stderr, "clkctl: %v\n", err)
		os.Exit(1)
	}
}

func oneShot(ctx context.Context, target string, args []string) error {
	conn, err := transport.Dial(ctx, target, transport.ClientConfig{})
	if err != nil {
		return err
	}
	defer conn.Close()

	client := scmi.NewClient(conn, uint32(*channel))
	client.SetTimeout(*timeout)
	defer client.Close()
	go conn.ReadLoop(func(data []byte) { _ = client.HandleMessage(data) })

	return execute(ctx, client, args, os.Stdout)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `clkctl - clock protocol client

Usage:
  clkctl [flags] [command [args...]]

Commands:
  info                 Show platform vendor, versions and protocols
  list                 List clocks with state and rate
  rate <id>            Read a clock rate
  set-rate <id> <hz>   Request a rate (accepts k, M and G suffixes)
  rates <id>           List the discrete rates of a clock
  on <id>              Enable a clock
  off <id>             Disable a clock

Flags:
`)
	flag.PrintDefaults()
}

// locate browses mDNS for the daemon advertising board.
func locate(ctx context.Context, board string) (string, error) {
	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		return "", err
	}
	defer browser.Stop()

	svc, err := browser.FindByBoard(ctx, board)
	if err != nil {
		return "", err
	}
	if len(svc.Addresses) == 0 {
		return "", fmt.Errorf("%s advertised without addresses", svc.InstanceName)
	}
	return net.JoinHostPort(svc.Addresses[0], strconv.Itoa(int(svc.Port))), nil
}

// interactive runs the prompt over a session that redials the daemon
// when the connection drops.
func interactive(ctx context.Context, target string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "clkctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	session := connection.NewSession(connection.TCPDialer(target, transport.ClientConfig{}), connection.SessionConfig{
		Channel: uint32(*channel),
		Timeout: *timeout,
		OnStateChange: func(from, to connection.State) {
			switch {
			case to == connection.StateReconnecting:
				fmt.Fprintln(out, "[connection lost, reconnecting]")
			case from == connection.StateReconnecting && to == connection.StateConnected:
				fmt.Fprintln(out, "[reconnected]")
			}
		},
	})
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer session.Close()

	fmt.Fprintf(out, "Connected to %s (channel %d). Type 'help' for commands.\n", target, *channel)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			flag.CommandLine.SetOutput(out)
			printUsage()
			continue
		}
		client, err := session.Client()
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if err := execute(ctx, client, args, out); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// Command clkd is the clock management daemon.
//
// It builds the SAMA5D2 clock tree, applies a board description, and serves
// the clock protocol to agents over TCP.
//
// Usage:
//
//	clkd [flags]
//
// Flags:
//
//	-config string      TOML daemon configuration file
//	-board string       YAML board description (default: built-in SAMA5D2 board)
//	-listen string      Listen address (default ":7410")
//	-simulate           Drive a simulated PMC instead of /dev/mem (default true)
//	-xtal uint          Main crystal rate in Hz, overrides the board file
//	-event-log string   Write CBOR protocol/clock events to this file
//	-trace              Echo protocol/clock events to the log at debug level
//	-mdns               Advertise the daemon via mDNS (default true)
//	-name string        mDNS instance name (default "clkd-<board>")
//	-interactive        Start the interactive clock shell
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Simulated PMC with the interactive shell
//	clkd -interactive
//
//	# Real hardware with a board file and event capture
//	clkd -simulate=false -board /etc/clkd/xplained.yaml -event-log /var/log/clkd.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/secclk/clkcore/cmd/clkd/shell"
	"github.com/secclk/clkcore/pkg/board"
	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/clk/at91"
	"github.com/secclk/clkcore/pkg/discovery"
	"github.com/secclk/clkcore/pkg/log"
	"github.com/secclk/clkcore/pkg/scmi"
	"github.com/secclk/clkcore/pkg/transport"
)

// Config holds the daemon configuration.
type Config struct {
	ConfigFile   string
	BoardFile    string
	Listen       string
	Simulate     bool
	MainXtal     uint64
	EventLog     string
	Trace        bool
	Advertise    bool
	InstanceName string
	Interactive  bool
	LogLevel     string
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "TOML daemon configuration file")
	flag.StringVar(&config.BoardFile, "board", "", "YAML board description")
	flag.StringVar(&config.Listen, "listen", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address")
	flag.BoolVar(&config.Simulate, "simulate", true, "Drive a simulated PMC instead of /dev/mem")
	flag.Uint64Var(&config.MainXtal, "xtal", 0, "Main crystal rate in Hz (overrides the board file)")
	flag.StringVar(&config.EventLog, "event-log", "", "Write CBOR events to this file")
	flag.BoolVar(&config.Trace, "trace", false, "Echo events to the log at debug level")
	flag.BoolVar(&config.Advertise, "mdns", true, "Advertise the daemon via mDNS")
	flag.StringVar(&config.InstanceName, "name", "", "mDNS instance name")
	flag.BoolVar(&config.Interactive, "interactive", false, "Start the interactive clock shell")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	if config.ConfigFile != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := loadConfigFile(config.ConfigFile, &config, explicit); err != nil {
			fmt.Fprintf(os.Stderr, "clkd: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := newLogger(os.Stderr, config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clkd: %v\n", err)
		os.Exit(2)
	}

	if err := run(logger); err != nil {
		logger.Error("clkd failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, closeEvents, err := openEventLog(config.EventLog, config.Trace, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	b, err := loadBoard(config.BoardFile)
	if err != nil {
		return err
	}
	if config.MainXtal != 0 {
		b.Oscillators.MainXtal = config.MainXtal
	}

	hw, err := openHardware(config.Simulate)
	if err != nil {
		return err
	}
	defer hw.Close()

	tree := clk.NewTree()
	tree.SetLogger(logger)
	tree.SetEventLogger(events)

	pmcConfig := b.PMCConfig(logger)
	pmcConfig.SFR = hw.SFR
	pmc, err := at91.Setup(tree, hw.PMC, pmcConfig)
	if err != nil {
		return fmt.Errorf("pmc setup: %w", err)
	}
	if err := b.Apply(tree); err != nil {
		return err
	}

	adaptor := scmi.NewAdaptor(tree)
	adaptor.SetLogger(logger)
	if err := b.Bind(adaptor, pmc); err != nil {
		return err
	}

	protocol := scmi.NewServer(adaptor, scmi.DefaultInfo)
	protocol.SetLogger(logger)
	protocol.SetEventLogger(events)

	server := transport.NewServer(transport.ServerConfig{
		Address: config.Listen,
		Logger:  events,
		OnConnect: func(conn *transport.ServerConn) {
			logger.Info("agent connected", "conn", conn.ID(), "remote", conn.RemoteAddr())
		},
		OnDisconnect: func(conn *transport.ServerConn) {
			logger.Info("agent disconnected", "conn", conn.ID())
		},
		OnMessage: func(conn *transport.ServerConn, msg []byte) {
			resp, err := protocol.HandleMessage(ctx, conn.ID(), msg)
			if err != nil {
				logger.Warn("encode response", "conn", conn.ID(), "error", err)
				return
			}
			if err := conn.Send(resp); err != nil {
				logger.Debug("send response", "conn", conn.ID(), "error", err)
			}
		},
		OnError: func(conn *transport.ServerConn, err error) {
			if conn == nil {
				logger.Warn("listener error", "error", err)
				return
			}
			logger.Warn("connection error", "conn", conn.ID(), "error", err)
		},
	})
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()
	logger.Info("serving clock protocol", "addr", server.Addr(), "board", b.Name, "simulate", config.Simulate)

	if config.Advertise {
		adv, err := advertise(ctx, b, adaptor, server.Addr())
		if err != nil {
			logger.Warn("mDNS advertising disabled", "error", err)
		} else {
			defer adv.Stop()
		}
	}

	if config.Interactive {
		sh, err := shell.New(tree, adaptor)
		if err != nil {
			return err
		}
		sh.Run(ctx, cancel)
		return nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
	}
	return nil
}

func newLogger(w *os.File, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openEventLog returns the event sink for the tree, protocol server and
// transport: the CBOR file, the debug log, both, or nothing.
func openEventLog(path string, trace bool, logger *slog.Logger) (log.Logger, func(), error) {
	var sinks []log.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		sinks = append(sinks, fl)
		closeFn = func() { fl.Close() }
	}
	if trace {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	switch len(sinks) {
	case 0:
		return log.NoopLogger{}, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return log.NewMultiLogger(sinks...), closeFn, nil
	}
}

// loadBoard reads path, or returns the built-in simulated board.
func loadBoard(path string) (*board.Board, error) {
	if path != "" {
		return board.Load(path)
	}
	return &board.Board{
		Name:        "sama5d2-sim",
		SoC:         board.SoCSAMA5D2,
		Oscillators: board.Oscillators{MainXtal: 12000000},
		Bindings:    []board.Binding{{Channel: 0, Table: board.SoCSAMA5D2}},
	}, nil
}

func advertise(ctx context.Context, b *board.Board, adaptor *scmi.Adaptor, addr net.Addr) (discovery.Advertiser, error) {
	info := &discovery.DaemonInfo{
		InstanceName:    config.InstanceName,
		SoC:             b.SoC,
		Board:           b.Name,
		Vendor:          scmi.DefaultInfo.Vendor,
		ProtocolVersion: scmi.ClockVersion,
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}
	for _, bd := range b.Bindings {
		if adaptor.Count(bd.Channel) > 0 {
			info.Channels = append(info.Channels, bd.Channel)
		}
	}

	adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	if err != nil {
		return nil, err
	}
	if err := adv.Advertise(ctx, info); err != nil {
		return nil, err
	}
	return adv, nil
}

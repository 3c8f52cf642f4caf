package clkcore_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/secclk/clkcore/pkg/board"
	"github.com/secclk/clkcore/pkg/clk"
	"github.com/secclk/clkcore/pkg/clk/at91"
	"github.com/secclk/clkcore/pkg/discovery"
	"github.com/secclk/clkcore/pkg/log"
	"github.com/secclk/clkcore/pkg/scmi"
	"github.com/secclk/clkcore/pkg/transport"
	"github.com/secclk/clkcore/pkg/version"
	"github.com/secclk/clkcore/pkg/wire"
)

// daemon is a clkd instance assembled in-process on a simulated PMC.
type daemon struct {
	tree    *clk.Tree
	adaptor *scmi.Adaptor
	server  *transport.Server
}

func startDaemon(t *testing.T, ctx context.Context, events log.Logger) *daemon {
	t.Helper()

	b, err := board.Load(filepath.Join("pkg", "board", "testdata", "sama5d2-xplained.yaml"))
	if err != nil {
		t.Fatalf("Failed to load board: %v", err)
	}

	tree := clk.NewTree()
	tree.SetEventLogger(events)
	pmc, err := at91.Setup(tree, at91.NewSim(), b.PMCConfig(nil))
	if err != nil {
		t.Fatalf("PMC setup failed: %v", err)
	}
	if err := b.Apply(tree); err != nil {
		t.Fatalf("Board apply failed: %v", err)
	}

	adaptor := scmi.NewAdaptor(tree)
	if err := b.Bind(adaptor, pmc); err != nil {
		t.Fatalf("Board bind failed: %v", err)
	}

	protocol := scmi.NewServer(adaptor, scmi.DefaultInfo)
	protocol.SetEventLogger(events)

	server := transport.NewServer(transport.ServerConfig{
		Address: "127.0.0.1:0",
		Logger:  events,
		OnMessage: func(conn *transport.ServerConn, msg []byte) {
			resp, err := protocol.HandleMessage(ctx, conn.ID(), msg)
			if err != nil {
				return
			}
			conn.Send(resp)
		},
	})
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	return &daemon{tree: tree, adaptor: adaptor, server: server}
}

// connect opens an agent connection for channel.
func (d *daemon) connect(t *testing.T, ctx context.Context, channel uint32) *scmi.Client {
	t.Helper()

	conn, err := transport.Dial(ctx, d.server.Addr().String(), transport.ClientConfig{})
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	client := scmi.NewClient(conn, channel)
	client.SetTimeout(2 * time.Second)
	t.Cleanup(func() { client.Close() })

	go conn.ReadLoop(func(data []byte) { client.HandleMessage(data) })
	return client
}

// TestE2E_BaseDiscovery walks the base protocol the way an agent does at
// probe time.
func TestE2E_BaseDiscovery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := startDaemon(t, ctx, nil)
	client := d.connect(t, ctx, 0)

	word, err := client.Version(ctx, wire.ProtocolBase)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if got := version.FromWord(word); got != version.Base || word != scmi.BaseVersion {
		t.Errorf("Base version = %s (%#x), want %s", got, word, version.Base)
	}

	vendor, _, err := client.Vendor(ctx)
	if err != nil {
		t.Fatalf("Vendor failed: %v", err)
	}
	if vendor != scmi.DefaultInfo.Vendor {
		t.Errorf("Vendor = %q, want %q", vendor, scmi.DefaultInfo.Vendor)
	}

	protocols, err := client.ListProtocols(ctx)
	if err != nil {
		t.Fatalf("ListProtocols failed: %v", err)
	}
	if len(protocols) != 1 || protocols[0] != wire.ProtocolClock {
		t.Errorf("Protocols = %v, want [CLOCK]", protocols)
	}

	ok, err := client.Supports(ctx, wire.ProtocolClock, wire.CmdClockConfigSet)
	if err != nil {
		t.Fatalf("Supports failed: %v", err)
	}
	if !ok {
		t.Error("CLOCK_CONFIG_SET should be supported")
	}

	count, err := client.ClockCount(ctx)
	if err != nil {
		t.Fatalf("ClockCount failed: %v", err)
	}
	if count != d.adaptor.Count(0) {
		t.Errorf("ClockCount = %d, want %d", count, d.adaptor.Count(0))
	}
}

// TestE2E_ChannelClocks exercises an agent channel bound to an explicit
// clock list by the board file.
func TestE2E_ChannelClocks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := startDaemon(t, ctx, nil)
	client := d.connect(t, ctx, 1)

	count, err := client.ClockCount(ctx)
	if err != nil {
		t.Fatalf("ClockCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("ClockCount = %d, want 2", count)
	}

	uart, err := client.ClockAttributes(ctx, 0)
	if err != nil {
		t.Fatalf("ClockAttributes failed: %v", err)
	}
	if uart.Name != "uart1_clk" || !uart.Enabled {
		t.Errorf("clock 0 = %+v, want enabled uart1_clk", uart)
	}

	pck, err := client.ClockAttributes(ctx, 1)
	if err != nil {
		t.Fatalf("ClockAttributes failed: %v", err)
	}
	if pck.Name != "pck0" || pck.Enabled {
		t.Errorf("clock 1 = %+v, want disabled pck0", pck)
	}

	rate, err := client.RateGet(ctx, 1)
	if err != nil {
		t.Fatalf("RateGet failed: %v", err)
	}
	if rate != 4000000 {
		t.Errorf("pck0 rate = %d, want 4000000", rate)
	}

	if err := client.ConfigSet(ctx, 1, true); err != nil {
		t.Fatalf("ConfigSet failed: %v", err)
	}
	pck0, _ := d.tree.Lookup("pck0")
	if !d.tree.HardwareEnabled(pck0) {
		t.Error("pck0 should be enabled in hardware")
	}

	_, err = client.RateGet(ctx, 2)
	var se *scmi.StatusError
	if !errors.As(err, &se) || se.Status != wire.StatusNotFound {
		t.Errorf("RateGet(2) error = %v, want NOT_FOUND", err)
	}
}

// TestE2E_ChannelReferencesIndependent checks that an agent cannot drop a
// reference taken by another channel.
func TestE2E_ChannelReferencesIndependent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := startDaemon(t, ctx, nil)
	agent0 := d.connect(t, ctx, 0)
	agent1 := d.connect(t, ctx, 1)

	pck0, _ := d.tree.Lookup("pck0")
	var id0 uint32
	found := false
	for _, b := range d.adaptor.Bindings(0) {
		if b.Node == pck0 {
			id0, found = b.ID, true
		}
	}
	if !found {
		t.Fatal("pck0 not bound on channel 0")
	}

	if err := agent1.ConfigSet(ctx, 1, true); err != nil {
		t.Fatalf("channel 1 enable failed: %v", err)
	}
	if err := agent0.ConfigSet(ctx, id0, false); err != nil {
		t.Fatalf("channel 0 disable failed: %v", err)
	}
	if !d.tree.IsEnabled(pck0) {
		t.Error("pck0 disabled by a channel that never enabled it")
	}

	if err := agent0.ConfigSet(ctx, id0, true); err != nil {
		t.Fatalf("channel 0 enable failed: %v", err)
	}
	if got := d.tree.EnableCount(pck0); got != 2 {
		t.Errorf("EnableCount = %d, want 2", got)
	}
	if err := agent1.ConfigSet(ctx, 1, false); err != nil {
		t.Fatalf("channel 1 disable failed: %v", err)
	}
	if !d.tree.IsEnabled(pck0) {
		t.Error("pck0 should stay enabled while channel 0 holds it")
	}
}

// TestE2E_RateForwarding sets a USB host rate that only the parent
// divider can produce.
func TestE2E_RateForwarding(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := startDaemon(t, ctx, nil)
	client := d.connect(t, ctx, 0)

	uhpck, _ := d.tree.Lookup("uhpck")
	var id uint32
	for _, b := range d.adaptor.Bindings(0) {
		if b.Node == uhpck {
			id = b.ID
		}
	}

	rates, err := client.Rates(ctx, id)
	if err != nil {
		t.Fatalf("Rates failed: %v", err)
	}
	if len(rates) != 16 {
		t.Errorf("uhpck lists %d rates, want the 16 usbck dividers", len(rates))
	}

	if err := client.RateSet(ctx, id, 60000000); err != nil {
		t.Fatalf("RateSet failed: %v", err)
	}
	rate, err := client.RateGet(ctx, id)
	if err != nil {
		t.Fatalf("RateGet failed: %v", err)
	}
	if rate != 60000000 {
		t.Errorf("uhpck rate = %d, want 60000000", rate)
	}
	usbck, _ := d.tree.Lookup("usbck")
	if got := d.tree.Rate(usbck); got != 60000000 {
		t.Errorf("usbck rate = %d, want 60000000", got)
	}
}

// TestE2E_EventLog records a session to disk and reads it back.
func TestE2E_EventLog(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "clkd.clog")
	events, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}

	d := startDaemon(t, ctx, events)
	client := d.connect(t, ctx, 1)

	if err := client.ConfigSet(ctx, 1, true); err != nil {
		t.Fatalf("ConfigSet failed: %v", err)
	}
	d.server.Stop()
	if err := events.Close(); err != nil {
		t.Fatalf("Failed to close event log: %v", err)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer reader.Close()

	var requests, enables, registers int
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if e.Message != nil && e.Message.Type == log.MessageTypeRequest {
			requests++
			if e.Channel == nil || *e.Channel != 1 {
				t.Errorf("request logged without channel 1: %+v", e)
			}
		}
		if e.Clock != nil {
			switch e.Clock.Op {
			case log.ClockOpRegister:
				registers++
			case log.ClockOpEnable:
				if e.Clock.Node == "pck0" {
					enables++
				}
			}
		}
	}

	if requests != 1 {
		t.Errorf("logged %d requests, want 1", requests)
	}
	if enables != 1 {
		t.Errorf("logged %d pck0 enables, want 1", enables)
	}
	if registers != d.tree.Len() {
		t.Errorf("logged %d registrations, want %d", registers, d.tree.Len())
	}
}

// TestE2E_Discovery advertises a daemon over mDNS and locates it by board.
func TestE2E_Discovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	advertiser, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	if err != nil {
		t.Fatalf("Failed to create advertiser: %v", err)
	}
	defer advertiser.Stop()

	info := &discovery.DaemonInfo{
		InstanceName:    "clkd-e2e",
		Port:            7410,
		SoC:             board.SoCSAMA5D2,
		Board:           "e2e-board",
		Vendor:          scmi.DefaultInfo.Vendor,
		ProtocolVersion: scmi.ClockVersion,
		Channels:        []uint32{0, 1},
	}
	if err := advertiser.Advertise(ctx, info); err != nil {
		t.Fatalf("Failed to advertise: %v", err)
	}

	// Give mDNS time to propagate
	time.Sleep(500 * time.Millisecond)

	browser, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	if err != nil {
		t.Fatalf("Failed to create browser: %v", err)
	}
	defer browser.Stop()

	browseCtx, browseCancel := context.WithTimeout(ctx, 5*time.Second)
	defer browseCancel()

	found, err := browser.FindByBoard(browseCtx, "e2e-board")
	if err != nil {
		t.Fatalf("Failed to find daemon: %v", err)
	}
	if found.Port != 7410 {
		t.Errorf("Port mismatch: expected 7410, got %d", found.Port)
	}
	if found.SoC != board.SoCSAMA5D2 {
		t.Errorf("SoC mismatch: expected %s, got %s", board.SoCSAMA5D2, found.SoC)
	}
	if len(found.Channels) != 2 {
		t.Errorf("Channels = %v, want [0 1]", found.Channels)
	}
}

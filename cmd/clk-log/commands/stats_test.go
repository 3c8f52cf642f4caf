package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/secclk/clkcore/pkg/log"
	"github.com/secclk/clkcore/pkg/wire"
)

func TestStatsCountsByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerWire, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerClock, Category: log.CategoryState},
	})

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	if got := stats.EventsByLayer[log.LayerTransport]; got != 2 {
		t.Errorf("transport events = %d, want 2", got)
	}
	if got := stats.EventsByCategory[log.CategoryState]; got != 1 {
		t.Errorf("state events = %d, want 1", got)
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	output := buf.String()
	for _, want := range []string{"TRANSPORT:", "WIRE:", "CLOCK:", "Total Events: 4"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestStatsConnections(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	proto := wire.ProtocolClock
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, ConnectionID: "conn-aaaa-1", RemoteAddr: "127.0.0.1:5000", Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, NewState: "CONNECTED"}},
		{Timestamp: ts.Add(time.Second), ConnectionID: "conn-aaaa-1", Layer: log.LayerWire, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: log.MessageTypeRequest, MessageID: 1, Protocol: &proto}},
		{Timestamp: ts.Add(2 * time.Second), ConnectionID: "conn-bbbb-2", Layer: log.LayerTransport, Category: log.CategoryState},
	})

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(stats.Connections) != 2 {
		t.Fatalf("connections = %d, want 2", len(stats.Connections))
	}
	a := stats.Connections["conn-aaaa-1"]
	if a.Events != 2 || a.Requests != 1 {
		t.Errorf("conn a: events=%d requests=%d, want 2/1", a.Events, a.Requests)
	}
	if a.RemoteAddr != "127.0.0.1:5000" {
		t.Errorf("conn a remote = %q", a.RemoteAddr)
	}
	if d := a.LastSeen.Sub(a.FirstSeen); d != time.Second {
		t.Errorf("conn a duration = %v, want 1s", d)
	}
	if !stats.TimeRange.End.Equal(ts.Add(2 * time.Second)) {
		t.Errorf("time range end = %v", stats.TimeRange.End)
	}
}

func TestStatsClockNodes(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpEnable, Node: "usbck", Count: 1}},
		{Timestamp: ts, Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpSetRate, Node: "usbck", Rate: 60000000}},
		{Timestamp: ts, Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpSetRate, Node: "usbck", Rate: 60000000, Err: "invalid"}},
		{Timestamp: ts, Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpDisable, Node: "pck0"}},
	})

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Clock Nodes: 2") {
		t.Errorf("expected node count, got: %s", output)
	}
	if !strings.Contains(output, "ENABLE=1 SET_RATE=2 failures=1") {
		t.Errorf("expected usbck op counts, got: %s", output)
	}
	if !strings.Contains(output, "DISABLE=1") {
		t.Errorf("expected pck0 op counts, got: %s", output)
	}
}

func TestStatsResponseStatus(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	ok := wire.StatusSuccess
	notFound := wire.StatusNotFound
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, Layer: log.LayerWire, Message: &log.MessageEvent{Type: log.MessageTypeResponse, Status: &ok}},
		{Timestamp: ts, Layer: log.LayerWire, Message: &log.MessageEvent{Type: log.MessageTypeResponse, Status: &ok}},
		{Timestamp: ts, Layer: log.LayerWire, Message: &log.MessageEvent{Type: log.MessageTypeResponse, Status: &notFound}},
	})

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if stats.Statuses[ok] != 2 || stats.Statuses[notFound] != 1 {
		t.Errorf("statuses = %v", stats.Statuses)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero events, got: %s", buf.String())
	}
}

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/secclk/clkcore/pkg/wire"
)

func newTestSlog(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSlogAdapterClockEvent(t *testing.T) {
	var buf bytes.Buffer
	a := NewSlogAdapter(newTestSlog(&buf))

	a.Log(Event{
		Layer:    LayerClock,
		Category: CategoryState,
		Clock: &ClockEvent{
			Op:     ClockOpSetParent,
			Node:   "usbck",
			Rate:   480000000,
			Parent: "utmick",
			Err:    "busy",
		},
	})

	out := buf.String()
	for _, want := range []string{"op=SET_PARENT", "node=usbck", "rate=480000000", "parent=utmick", "error=busy", "layer=CLOCK"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	a := NewSlogAdapter(newTestSlog(&buf))

	proto := wire.ProtocolClock
	status := wire.StatusNotFound
	ch := uint32(2)
	a.Log(Event{
		ConnectionID: "c1",
		Layer:        LayerWire,
		Channel:      &ch,
		Message: &MessageEvent{
			Type:      MessageTypeResponse,
			MessageID: 7,
			Protocol:  &proto,
			Status:    &status,
		},
	})

	out := buf.String()
	for _, want := range []string{"conn_id=c1", "channel=2", "msg_id=7", "protocol=CLOCK", "status=NOT_FOUND"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewSlogAdapter(logger).Log(Event{Layer: LayerClock, Clock: &ClockEvent{Node: "x"}})
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %s", buf.String())
	}
}

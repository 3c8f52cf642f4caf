package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.cbor")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Unix(1700000000, 0)
	ch0, ch1 := uint32(0), uint32(1)

	path := writeEvents(t,
		Event{Timestamp: base, ConnectionID: "a", Layer: LayerWire, Channel: &ch0, Message: &MessageEvent{MessageID: 1}},
		Event{Timestamp: base.Add(time.Second), ConnectionID: "b", Layer: LayerWire, Direction: DirectionOut, Channel: &ch1, Message: &MessageEvent{MessageID: 2}},
		Event{Timestamp: base.Add(2 * time.Second), Layer: LayerClock, Category: CategoryState, Clock: &ClockEvent{Node: "usbck"}},
		Event{Timestamp: base.Add(3 * time.Second), Layer: LayerClock, Category: CategoryError, Clock: &ClockEvent{Node: "pllack", Err: "busy"}},
	)

	layerClock := LayerClock
	out := DirectionOut
	catErr := CategoryError
	end := base.Add(2 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"connection", Filter{ConnectionID: "a"}, 1},
		{"layer", Filter{Layer: &layerClock}, 2},
		{"direction", Filter{Direction: &out}, 1},
		{"category", Filter{Category: &catErr}, 1},
		{"time window", Filter{TimeStart: &base, TimeEnd: &end}, 2},
		{"channel", Filter{Channel: &ch1}, 1},
		{"node", Filter{Node: "usbck"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			n := 0
			for {
				_, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Next failed: %v", err)
				}
				n++
			}
			if n != tt.want {
				t.Errorf("got %d events, want %d", n, tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.cbor")); err == nil {
		t.Error("expected error for missing file")
	}
}

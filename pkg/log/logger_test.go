package log

import (
	"sync"
	"testing"
)

// recordingLogger collects events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{Layer: LayerClock})
}

func TestMultiLogger(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}

	m := NewMultiLogger(a, nil, b)
	if m.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", m.Len())
	}

	m.Log(Event{Layer: LayerClock})
	m.Log(Event{Layer: LayerWire})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("expected both loggers to receive 2 events, got %d and %d", a.count(), b.count())
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{})
	if m.Len() != 0 {
		t.Errorf("Len: got %d, want 0", m.Len())
	}
}

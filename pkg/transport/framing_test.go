package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/secclk/clkcore/pkg/log"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "small message", payload: []byte("hello")},
		{name: "medium message", payload: bytes.Repeat([]byte("x"), 1000)},
		{name: "max size message", payload: bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
		{name: "single byte", payload: []byte{0x42}},
		{name: "binary data", payload: []byte{0x00, 0xFF, 0x7F, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			writer := NewFrameWriter(buf, 0)
			if err := writer.WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}

			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}

			reader := NewFrameReader(buf, 0)
			got, err := reader.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d bytes", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterEmptyMessage(t *testing.T) {
	writer := NewFrameWriter(new(bytes.Buffer), 0)

	if err := writer.WriteFrame([]byte{}); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
	if err := writer.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty for nil, got %v", err)
	}
}

func TestFrameWriterMessageTooLarge(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf, 100)

	if err := writer.WriteFrame(make([]byte, 100)); err != nil {
		t.Fatalf("100 bytes should fit: %v", err)
	}
	if err := writer.WriteFrame(make([]byte, 101)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	prefix := func(n uint32) []byte {
		b := make([]byte, LengthPrefixSize)
		binary.BigEndian.PutUint32(b, n)
		return b
	}

	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{name: "empty stream", input: nil, want: io.EOF},
		{name: "partial prefix", input: []byte{0x00, 0x00}, want: ErrFrameTruncated},
		{name: "zero length", input: prefix(0), want: ErrMessageEmpty},
		{name: "oversize", input: prefix(DefaultMaxMessageSize + 1), want: ErrMessageTooLarge},
		{name: "short payload", input: append(prefix(10), 1, 2, 3), want: ErrFrameTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewFrameReader(bytes.NewReader(tt.input), 0)
			_, err := reader.ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFrame error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFrameReaderMultipleFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf, 0)
	messages := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, m := range messages {
		if err := writer.WriteFrame(m); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}

	reader := NewFrameReader(buf, 0)
	for i, want := range messages {
		got, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %q, want %q", i, got, want)
		}
	}
	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestFrameWriterConcurrent(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(&lockedWriter{w: buf}, 0)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = writer.WriteFrame(bytes.Repeat([]byte{id}, 32))
			}
		}(byte(i + 1))
	}
	wg.Wait()

	reader := NewFrameReader(buf, 0)
	for n := 0; n < writers*perWriter; n++ {
		frame, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", n, err)
		}
		if !bytes.Equal(frame, bytes.Repeat(frame[:1], 32)) {
			t.Fatalf("frame %d interleaved: %v", n, frame)
		}
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) snapshot() []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]log.Event(nil), c.events...)
}

func TestFramerLogging(t *testing.T) {
	var stream bytes.Buffer
	logger := &captureLogger{}

	framer := NewFramer(&stream, 0)
	framer.SetLogger(logger, "conn-1", log.RoleAgent)

	big := bytes.Repeat([]byte("z"), MaxLogFrameDataSize+10)
	if err := framer.WriteFrame(big); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := framer.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	events := logger.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	out, in := events[0], events[1]
	if out.Direction != log.DirectionOut || in.Direction != log.DirectionIn {
		t.Errorf("directions = %v, %v", out.Direction, in.Direction)
	}
	for _, e := range events {
		if e.ConnectionID != "conn-1" || e.LocalRole != log.RoleAgent || e.Layer != log.LayerTransport {
			t.Errorf("unexpected event metadata: %+v", e)
		}
		if e.Frame == nil || !e.Frame.Truncated || len(e.Frame.Data) != MaxLogFrameDataSize {
			t.Errorf("frame not truncated for logging: %+v", e.Frame)
		}
		if e.Frame != nil && e.Frame.Size != FrameSize(len(big)) {
			t.Errorf("frame size = %d, want %d", e.Frame.Size, FrameSize(len(big)))
		}
	}
}

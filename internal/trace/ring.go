package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory. When created with a
// dump target it writes them out on Close, so a long bench run only
// leaves its tail behind.
type RingTracer struct {
	mu     sync.Mutex
	buf    []Event
	next   int // slot for the next event
	stored int
	level  Level

	dump   io.Writer
	format Format
	closed bool
}

// NewRingTracer creates a ring holding up to capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// DumpOnClose makes Close write the retained events to w.
func (t *RingTracer) DumpOnClose(w io.Writer, format Format) *RingTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dump, t.format = w, format
	return t
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % len(t.buf)
	t.stored = min(t.stored+1, len(t.buf))
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastLocked(t.stored)
}

// Last returns up to n of the newest events, oldest first.
func (t *RingTracer) Last(n int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastLocked(min(max(n, 0), t.stored))
}

func (t *RingTracer) lastLocked(n int) []Event {
	out := make([]Event, n)
	start := (t.next - n + len(t.buf)) % len(t.buf)
	for i := range out {
		out[i] = t.buf[(start+i)%len(t.buf)]
	}
	return out
}

// Dump writes the retained events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

// Close dumps to the configured target once, then closes it if it can be.
func (t *RingTracer) Close() error {
	t.mu.Lock()
	w, format, done := t.dump, t.format, t.closed
	t.closed = true
	t.mu.Unlock()
	if w == nil || done {
		return nil
	}
	if err := t.Dump(w, format); err != nil {
		return err
	}
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

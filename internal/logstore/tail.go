package logstore

import (
	"bytes"
	"sync"
)

// Tail is a bounded ring of the most recent lines of one output stream.
// It is the cheap-inspection answer to "show recent output" without
// re-reading the log file.
type Tail struct {
	mu           sync.Mutex
	lines        []string
	max          int
	dropped      int // lines evicted since start
	droppedBytes int // bytes of evicted lines, trailing newlines included
}

// NewTail returns a Tail retaining at most max lines.
func NewTail(max int) *Tail {
	if max <= 0 {
		max = 1
	}
	return &Tail{max: max}
}

// Append adds one complete line (without trailing newline).
func (t *Tail) Append(line string) {
	t.mu.Lock()
	t.lines = append(t.lines, line)
	if over := len(t.lines) - t.max; over > 0 {
		for _, l := range t.lines[:over] {
			t.droppedBytes += len(l) + 1
		}
		t.lines = append(t.lines[:0], t.lines[over:]...)
		t.dropped += over
	}
	t.mu.Unlock()
}

// Lines returns a copy of the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Dropped returns how many lines have been evicted from the ring.
func (t *Tail) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// DroppedBytes returns how many bytes the evicted lines carried,
// counting one newline per line.
func (t *Tail) DroppedBytes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.droppedBytes
}

// lineWriter splits a byte stream into lines and feeds a Tail. Writes
// never fail; a partial trailing line is held until the next write or
// Flush.
type lineWriter struct {
	mu   sync.Mutex
	tail *Tail
	rest []byte
}

func newLineWriter(t *Tail) *lineWriter { return &lineWriter{tail: t} }

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rest = append(w.rest, p...)
	for {
		i := bytes.IndexByte(w.rest, '\n')
		if i < 0 {
			break
		}
		line := w.rest[:i]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		w.tail.Append(string(line))
		w.rest = w.rest[i+1:]
	}
	return len(p), nil
}

// Flush pushes any buffered partial line into the tail.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.rest) > 0 {
		w.tail.Append(string(w.rest))
		w.rest = nil
	}
}

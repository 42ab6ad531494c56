package tui

import (
	"errors"
	"strings"
	"sync"

	"github.com/smallnest/ringbuffer"
)

// DefaultLogTailSize is the number of log bytes kept for the log pane.
const DefaultLogTailSize = 64 * 1024

// LogTail is an io.Writer for the logger while the screen owns the
// terminal. It keeps the newest bytes and discards the oldest when full.
type LogTail struct {
	mu      sync.Mutex
	buf     *ringbuffer.RingBuffer
	dropped uint64
}

func NewLogTail(size int) *LogTail {
	if size <= 0 {
		size = DefaultLogTailSize
	}
	return &LogTail{buf: ringbuffer.New(size)}
}

// Write never blocks and always reports len(p).
func (t *LogTail) Write(p []byte) (int, error) {
	n := len(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	if capacity := t.buf.Capacity(); len(p) > capacity {
		t.dropped += uint64(len(p) - capacity)
		p = p[len(p)-capacity:]
	}
	if need := len(p) - t.buf.Free(); need > 0 {
		discard := make([]byte, need)
		read, err := t.buf.TryRead(discard)
		if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
			return n, err
		}
		t.dropped += uint64(read)
	}

	if _, err := t.buf.Write(p); err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
		return n, err
	}
	return n, nil
}

// Drain returns and removes everything buffered.
func (t *LogTail) Drain() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	length := t.buf.Length()
	if length == 0 {
		return ""
	}
	out := make([]byte, length)
	n, err := t.buf.TryRead(out)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		return ""
	}
	return string(out[:n])
}

// Dropped reports how many bytes were discarded to make room.
func (t *LogTail) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// appendLines adds the complete lines of chunk to lines, keeping at most limit.
func appendLines(lines []string, chunk string, limit int) []string {
	for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

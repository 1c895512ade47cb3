package stats

import (
	"sync"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

const DefaultWindowSize = 100

// Window is a fixed-capacity ring of the most recent readings of one sensor.
// A single producer appends while any number of readers take snapshots.
type Window struct {
	mu    sync.RWMutex
	buf   []types.Reading
	start int
	size  int
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{buf: make([]types.Reading, capacity)}
}

// Append adds r, evicting the oldest reading once the window is full.
func (w *Window) Append(r types.Reading) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = r
		w.size++
		return
	}
	w.buf[w.start] = r
	w.start = (w.start + 1) % len(w.buf)
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

func (w *Window) Cap() int {
	return len(w.buf)
}

// Readings returns a copy of the window, oldest first.
func (w *Window) Readings() []types.Reading {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]types.Reading, w.size)
	for i := range w.size {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Snapshot copies the values under the read lock and computes the
// aggregate outside of it.
func (w *Window) Snapshot() types.Aggregate {
	w.mu.RLock()
	values := make([]float64, w.size)
	for i := range w.size {
		values[i] = w.buf[(w.start+i)%len(w.buf)].Value
	}
	w.mu.RUnlock()

	return Compute(values, time.Now())
}

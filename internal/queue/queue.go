// Package queue connects the sensor producers to the persister.
package queue

import (
	"sync"
	"sync/atomic"

	fifo "github.com/eapache/queue"
	"github.com/ntentasd/nostradamus-telemetry/internal/metrics"
	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
)

// ReadingQueue is an unbounded multi-producer FIFO with a single consumer.
// Producers never see back-pressure; under a stalled consumer the queue
// grows without limit. The consumer polls with Drain on its own cadence.
type ReadingQueue struct {
	mu    sync.Mutex
	items *fifo.Queue

	// enqueued only changes under mu, so it never trails the queue contents.
	enqueued atomic.Uint64
}

func New() *ReadingQueue {
	return &ReadingQueue{
		items: fifo.New(),
	}
}

func (q *ReadingQueue) Enqueue(r types.Reading) {
	q.mu.Lock()
	q.items.Add(r)
	q.enqueued.Add(1)
	depth := q.items.Length()
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
}

// Drain removes and returns every queued reading without waiting.
func (q *ReadingQueue) Drain() []types.Reading {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.items.Length()
	if n == 0 {
		return nil
	}

	out := make([]types.Reading, 0, n)
	for q.items.Length() > 0 {
		out = append(out, q.items.Peek().(types.Reading))
		q.items.Remove()
	}
	metrics.QueueDepth.Set(0)

	return out
}

func (q *ReadingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Enqueued is the number of readings accepted since creation.
func (q *ReadingQueue) Enqueued() uint64 {
	return q.enqueued.Load()
}

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainPreservesOrder(t *testing.T) {
	q := New()
	for i := range 10 {
		q.Enqueue(types.Reading{SensorID: 1, Value: float64(i)})
	}

	require.Equal(t, 10, q.Len())
	got := q.Drain()
	require.Len(t, got, 10)
	for i, r := range got {
		assert.Equal(t, float64(i), r.Value)
	}

	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Drain())
	assert.EqualValues(t, 10, q.Enqueued())
}

func TestDepthNeverExceedsEnqueued(t *testing.T) {
	const producers, perProducer = 4, 2000
	q := New()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(types.Reading{SensorID: id, Value: float64(i)})
			}
		}(p)
	}

	stop := make(chan struct{})
	violations := make(chan [2]uint64, 1)
	go func() {
		for {
			select {
			case <-stop:
				close(violations)
				return
			default:
			}
			depth := uint64(q.Len())
			if total := q.Enqueued(); depth > total {
				violations <- [2]uint64{depth, total}
				close(violations)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	for v := range violations {
		t.Fatalf("queue depth %d exceeded enqueued count %d", v[0], v[1])
	}
	assert.EqualValues(t, producers*perProducer, q.Enqueued())
}

func TestConcurrentProducersConserveReadings(t *testing.T) {
	const producers, perProducer = 8, 500
	q := New()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(types.Reading{SensorID: id, Value: float64(i)})
			}
		}(p)
	}

	var drained []types.Reading
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(drained) < producers*perProducer {
			drained = append(drained, q.Drain()...)
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain every reading")
	}

	require.Len(t, drained, producers*perProducer)
	assert.EqualValues(t, producers*perProducer, q.Enqueued())

	last := make(map[int]float64)
	for _, r := range drained {
		if prev, ok := last[r.SensorID]; ok {
			assert.Greater(t, r.Value, prev, "per-producer order broken for sensor %d", r.SensorID)
		}
		last[r.SensorID] = r.Value
	}
}

package pubsub

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueDropsWhenFull(t *testing.T) {
	bus := New()

	const workers = 10
	var total atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := bus.Subscribe(10)
			defer bus.Unsubscribe(q)

			for n := 0; n < 20; n++ {
				q.Push(n)
			}

			var count int
			for {
				_, ok := q.PopTimeout(time.Second)
				if !ok {
					break
				}
				count++
			}
			total.Add(int64(count))
			assert.Equal(t, 10, count)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), total.Load())
	assert.Equal(t, 0, bus.Num())
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := New()

	q1 := bus.Subscribe(4)
	q2 := bus.Subscribe(4)
	assert.Equal(t, 2, bus.Num())

	bus.Publish("frame-1")

	v1, ok := q1.PopTimeout(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "frame-1", v1)

	v2, ok := q2.PopTimeout(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "frame-1", v2)

	bus.Unsubscribe(q1)
	bus.Publish("frame-2")

	_, ok = q1.PopTimeout(50 * time.Millisecond)
	assert.False(t, ok, "unsubscribed queue must not receive further publishes")
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	bus := New()
	q := bus.Subscribe(1)

	q.Close()
	assert.NotPanics(t, func() { q.Close() })

	_, ok := q.PopTimeout(10 * time.Millisecond)
	assert.False(t, ok)
}

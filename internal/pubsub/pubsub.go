// Package pubsub is a tiny in-process fan-out broker: every completed
// frame published by a session is pushed to every subscribed queue, so a
// synchronous frame callback can hand decoded frames off to slower
// downstream consumers (a file sinker, a debug CLI) without blocking the
// receive thread on their I/O.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Queue is a subscriber's inbox.
type Queue interface {
	// ID uniquely identifies the queue.
	ID() string

	// PopTimeout blocks until an item is available or timeout elapses.
	PopTimeout(timeout time.Duration) (any, bool)

	// Push enqueues an item. Non-blocking: a full queue drops the item
	// rather than stalling the publisher.
	Push(data any)

	// Close releases the queue. Safe to call more than once.
	Close()
}

type channel struct {
	id     string
	ch     chan any
	closed atomic.Bool
}

func newChannel(size int) Queue {
	if size <= 0 {
		size = 1
	}
	return &channel{id: uuid.New().String(), ch: make(chan any, size)}
}

func (ch *channel) ID() string {
	return ch.id
}

func (ch *channel) PopTimeout(timeout time.Duration) (any, bool) {
	if ch.closed.Load() {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case data, ok := <-ch.ch:
		return data, ok
	case <-ctx.Done():
		return nil, false
	}
}

func (ch *channel) Push(data any) {
	if ch.closed.Load() {
		return
	}
	select {
	case ch.ch <- data:
	default:
	}
}

func (ch *channel) Close() {
	if ch.closed.CompareAndSwap(false, true) {
		close(ch.ch)
	}
}

// PubSub fans out published values to every currently subscribed Queue.
type PubSub struct {
	mu     sync.RWMutex
	queues map[string]Queue
}

func New() *PubSub {
	return &PubSub{queues: make(map[string]Queue)}
}

// Num returns the current subscriber count.
func (p *PubSub) Num() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.queues)
}

// Subscribe registers a new queue with the given buffer size.
func (p *PubSub) Subscribe(size int) Queue {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := newChannel(size)
	p.queues[q.ID()] = q
	return q
}

// Publish pushes msg to every subscribed queue, non-blocking.
func (p *PubSub) Publish(msg any) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, q := range p.queues {
		q.Push(msg)
	}
}

// Unsubscribe removes q from the broker. It does not close q.
func (p *PubSub) Unsubscribe(q Queue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.queues, q.ID())
}

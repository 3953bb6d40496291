package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/readflow/errors"
)

// DefaultCapacity is the queue capacity used when a NodeSpec leaves it unset.
const DefaultCapacity = 1000

// Message is anything that travels between nodes.
type Message = any

// Cloner is implemented by messages that must be copied when a node fans
// out to more than one sink.
type Cloner interface {
	Clone() Message
}

// Queue is a fixed-capacity FIFO with blocking Push and Pop and an explicit
// Close. Pop on an empty closed queue reports exhaustion instead of blocking.
type Queue struct {
	mu     sync.RWMutex
	ch     chan Message
	closed bool

	pushed atomic.Int64
	popped atomic.Int64
}

// NewQueue creates a queue holding at most capacity messages.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Message, capacity)}
}

// Push appends msg, blocking while the queue is full. It fails with
// QUEUE_CLOSED once Close has been called, or with the context error.
func (q *Queue) Push(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.QueueClosed()
	}
	select {
	case q.ch <- msg:
		q.pushed.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest message, blocking while the queue is empty.
// Returns (nil, false, nil) when the queue is closed and drained.
func (q *Queue) Pop(ctx context.Context) (Message, bool, error) {
	select {
	case msg, open := <-q.ch:
		if !open {
			return nil, false, nil
		}
		q.popped.Add(1)
		return msg, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close marks that no more pushes will occur. It waits for in-flight pushes
// to land and reports whether this call performed the close.
func (q *Queue) Close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	close(q.ch)
	return true
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Len returns the number of queued messages.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Pushed returns the number of messages ever accepted.
func (q *Queue) Pushed() int64 { return q.pushed.Load() }

// Popped returns the number of messages ever handed to a consumer.
func (q *Queue) Popped() int64 { return q.popped.Load() }

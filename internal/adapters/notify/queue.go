package notify

import (
	"context"
	"sync"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// defaultQueueCapacity bounds the outbound queue when no size is configured.
const defaultQueueCapacity = 1024

// Queue buffers notices between the engine and the dispatcher pool.
type Queue struct {
	notices  chan Notice
	capacity int

	mu     sync.RWMutex
	closed bool
}

// QueueOption applies a configuration option to the Queue.
type QueueOption func(*Queue)

// WithCapacity sets the maximum number of buffered notices.
func WithCapacity(capacity int) QueueOption {
	return func(q *Queue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// NewQueue creates a bounded notice queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.notices = make(chan Notice, q.capacity)
	metrics.UpdateNoticeQueueSize(0)

	return q
}

// Enqueue adds a notice without blocking. Returns false when the queue is
// closed or full; the caller logs and moves on.
func (q *Queue) Enqueue(ctx context.Context, n Notice) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordNoticeDropped()
		return false
	}

	select {
	case q.notices <- n:
		metrics.RecordNoticeQueued()
		metrics.UpdateNoticeQueueSize(len(q.notices))
		return true
	case <-ctx.Done():
		metrics.RecordNoticeDropped()
		return false
	default:
		metrics.RecordNoticeDropped()
		return false
	}
}

// Dequeue returns a channel receiving notices as they become available.
// The channel closes once the queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) <-chan Notice {
	out := make(chan Notice)
	go func() {
		defer close(out)
		for n := range q.notices {
			select {
			case out <- n:
				metrics.UpdateNoticeQueueSize(len(q.notices))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered notices.
func (q *Queue) Len(ctx context.Context) int {
	return len(q.notices)
}

// Close stops new enqueues and lets consumers drain what remains.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.notices)
	q.closed = true

	return nil
}

// IsClosed returns true once the queue has been closed.
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

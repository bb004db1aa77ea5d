package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// Default dispatcher configuration.
const (
	defaultWorkers          = 2
	dispatchShutdownTimeout = 10 * time.Second
)

// Dispatcher drains the queue with a small worker pool, posting each
// notice to the configured channel.
type Dispatcher struct {
	queue   *Queue
	channel Channel
	workers int
	logger  logger.Logger

	shutdown  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	stopOnce  sync.Once
}

// DispatcherOption applies a configuration option to the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher over the given queue and channel.
func NewDispatcher(queue *Queue, channel Channel, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		queue:    queue,
		channel:  channel,
		workers:  defaultWorkers,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.Get().Named("notify")
	}

	return d
}

// Start launches the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
	go func() {
		d.wg.Wait()
		close(d.done)
	}()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	notices := d.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown:
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			d.deliver(ctx, n)
		}
	}
}

// deliver posts one notice. Failures are logged and counted, never retried.
func (d *Dispatcher) deliver(ctx context.Context, n Notice) {
	if err := d.channel.Post(ctx, n); err != nil {
		d.logger.Error(ctx, "notice delivery failed",
			logger.String("kind", string(n.Kind)),
			logger.String("raid_id", n.RaidID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNoticeDelivered()
}

// Shutdown closes the queue, lets the workers drain what remains, and
// waits for them to exit or the context to time out.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	var closeErr error
	d.closeOnce.Do(func() {
		if err := d.queue.Close(); err != nil {
			closeErr = err
			d.logger.Error(ctx, "error closing notice queue", logger.Error(err))
		}
	})

	shutdownCtx, cancel := context.WithTimeout(ctx, dispatchShutdownTimeout)
	defer cancel()

	select {
	case <-d.done:
		return closeErr
	case <-shutdownCtx.Done():
		d.stopOnce.Do(func() { close(d.shutdown) })
		d.logger.Warn(ctx, "notice dispatcher shutdown timed out")
		return fmt.Errorf("dispatcher shutdown timed out: %w", shutdownCtx.Err())
	}
}

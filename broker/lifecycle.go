package broker

import (
	"context"
	"io"
)

var _ io.Closer = (*LocalBroker)(nil)

// Open starts the delivery worker and returns the broker for chaining.
//
// Open is reentrant: every call must be paired with a Close, and only the
// outermost pair starts and stops the worker. Each Closed to Open transition
// gets a fresh worker; subscriptions carry over from earlier cycles.
func (b *LocalBroker) Open() *LocalBroker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.depth++
	if b.depth > 1 {
		return b
	}
	b.worker = newWorker(b.logger, b.metrics, b.onError, b.draining)
	b.logger.Debug("event broker opened")
	return b
}

// Close undoes one Open. The outermost Close stops accepting publishes, then
// blocks until every delivery already scheduled has run. Closing a closed
// broker does nothing. The error is always nil; it exists to satisfy io.Closer.
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	if b.depth == 0 {
		b.mu.Unlock()
		return nil
	}
	b.depth--
	if b.depth > 0 {
		b.mu.Unlock()
		return nil
	}
	w := b.worker
	b.worker = nil
	b.draining = w.done
	b.mu.Unlock()

	w.stop()
	b.logger.Debug("event broker closed")
	return nil
}

// IsOpen reports whether the broker currently accepts publishes.
func (b *LocalBroker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.worker != nil
}

// Scope opens the broker, runs fn and closes the broker again, draining all
// deliveries fn caused before returning fn's error.
func (b *LocalBroker) Scope(ctx context.Context, fn func(context.Context, EventSource) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer b.Open().Close()
	return fn(ctx, b)
}

package broker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/casualjim/evbroker/events"
	"github.com/casualjim/evbroker/pkg/slogx"
)

type delivery struct {
	token    Token
	name     string
	callback Callback
	event    events.Event
}

// worker runs deliveries one at a time in submission order.
// The queue is unbounded so that submit never blocks a publisher.
type worker struct {
	logger  *slog.Logger
	metrics *metrics
	onError func(*DeliveryError)

	mu      sync.Mutex
	queue   []delivery
	closing bool

	// after is closed once the previous cycle's worker has exited.
	after <-chan struct{}
	wake  chan struct{}
	done  chan struct{}
}

// newWorker starts a worker that delivers nothing until after is closed,
// so a reopened broker never overlaps with the worker still draining the
// previous cycle. A nil after means there is nothing to wait for.
func newWorker(logger *slog.Logger, m *metrics, onError func(*DeliveryError), after <-chan struct{}) *worker {
	w := &worker{
		logger:  logger,
		metrics: m,
		onError: onError,
		after:   after,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker) submit(d delivery) {
	w.mu.Lock()
	w.queue = append(w.queue, d)
	w.mu.Unlock()
	w.signal()
}

func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// stop lets the worker finish everything already queued, then waits for it to exit.
func (w *worker) stop() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.signal()
	<-w.done
}

func (w *worker) run() {
	defer close(w.done)
	if w.after != nil {
		<-w.after
	}

	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closing := w.closing
			w.mu.Unlock()
			if closing {
				return
			}
			<-w.wake
			continue
		}
		d := w.queue[0]
		w.queue[0] = delivery{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.deliver(d)
	}
}

func (w *worker) deliver(d delivery) {
	ctx := context.Background()
	eventType := d.event.EventType()

	err := invoke(d)
	if err == nil {
		w.metrics.recordDelivery(ctx, eventType, resultOK)
		return
	}

	derr := &DeliveryError{
		Subscription: d.token,
		EventType:    eventType,
		Callback:     d.name,
		Err:          err,
	}
	result := resultError
	attrs := []any{
		slogx.Error(err),
		slogx.EventType(eventType),
		slogx.Subscription(d.token),
		slogx.Callback(derr.Callback),
	}
	var perr *PanicError
	if errors.As(err, &perr) {
		result = resultPanic
		attrs = append(attrs, slogx.Stack(perr.Stack))
	}

	w.metrics.recordDelivery(ctx, eventType, result)
	w.logger.Error("error delivering "+eventType.String()+" event", attrs...)
	w.report(derr)
}

// report hands derr to the configured error handler. A panicking handler is
// logged and otherwise ignored so that it cannot stop the worker.
func (w *worker) report(derr *DeliveryError) {
	if w.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("delivery error handler panicked", slog.Any("panic", r), slogx.Subscription(derr.Subscription))
		}
	}()
	w.onError(derr)
}

func invoke(d delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return d.callback(d.event)
}

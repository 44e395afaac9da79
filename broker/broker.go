package broker

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/casualjim/evbroker/events"
	"github.com/casualjim/evbroker/internal/subscription"
	"github.com/casualjim/evbroker/pkg/reflectx"
	"github.com/casualjim/evbroker/pkg/slogx"
	"github.com/fogfish/opts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Token identifies a subscription for Unsubscribe.
type Token = subscription.Token

// Callback receives delivered events on the broker's delivery worker.
// It must finish its work before returning: anything it starts in the
// background is outside the broker's ordering guarantees.
type Callback = subscription.Callback

// EventSource is the contract other subsystems (schedulers, job stores) depend on.
type EventSource interface {
	Subscribe(callback Callback, options ...opts.Option[SubscribeOptions]) (Token, error)
	Unsubscribe(token Token)
	Publish(ctx context.Context, event events.Event) error
}

var _ EventSource = (*LocalBroker)(nil)

// LocalBroker delivers events to subscribers inside the current process.
//
// Subscriptions outlive Open/Close cycles; only the delivery worker is
// recreated each time the broker is opened.
type LocalBroker struct {
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	metrics       *metrics
	onError       func(*DeliveryError)

	// mu guards subs, depth, worker and draining.
	mu     sync.Mutex
	subs   *subscription.Registry
	depth  int
	worker *worker

	// draining is the done channel of the last closed worker.
	draining <-chan struct{}
}

// New creates a closed broker. Call Open (or Scope) before publishing.
func New(options ...opts.Option[LocalBroker]) (*LocalBroker, error) {
	b := &LocalBroker{
		subs: subscription.New(),
	}
	if err := opts.Apply(b, options); err != nil {
		return nil, fmt.Errorf("failed to configure event broker: %w", err)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With(slogx.LoggerName("evbroker"))
	if b.meterProvider == nil {
		b.meterProvider = otel.GetMeterProvider()
	}
	b.metrics = newMetrics(b.meterProvider)
	return b, nil
}

// Subscribe registers callback and returns the token to unsubscribe it with.
// A nil callback is rejected with ErrInvalidCallback. Subscribing is allowed
// whether or not the broker is open.
func (b *LocalBroker) Subscribe(callback Callback, options ...opts.Option[SubscribeOptions]) (Token, error) {
	if callback == nil {
		return "", fmt.Errorf("subscribe: %w: callback is nil", ErrInvalidCallback)
	}
	var so SubscribeOptions
	if err := opts.Apply(&so, options); err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}

	name := so.callbackName
	if name == "" {
		name = reflectx.FunctionName(callback)
	}

	b.mu.Lock()
	token := b.subs.AddNamed(name, callback, so.eventTypes, so.oneShot)
	b.mu.Unlock()

	b.metrics.recordSubscriptions(context.Background(), 1)
	b.logger.Debug("subscribed",
		slogx.Subscription(token),
		slogx.Callback(name),
		slog.Any("event_types", so.eventTypes),
		slog.Bool("one_shot", so.oneShot))
	return token, nil
}

// Unsubscribe removes the subscription for token. Unknown or already removed
// tokens are ignored. Deliveries scheduled before the call may still run.
func (b *LocalBroker) Unsubscribe(token Token) {
	b.mu.Lock()
	removed := b.subs.Remove(token)
	b.mu.Unlock()

	if removed {
		b.metrics.recordSubscriptions(context.Background(), -1)
		b.logger.Debug("unsubscribed", slogx.Subscription(token))
	}
}

// Publish schedules delivery of event to every matching subscription and
// returns without waiting for any callback. One-shot subscriptions that
// match are retired before Publish releases the lock, so concurrent publishes
// can never deliver to them twice.
func (b *LocalBroker) Publish(ctx context.Context, event events.Event) error {
	if isNilEvent(event) {
		return ErrInvalidEvent
	}
	eventType := event.EventType()

	b.mu.Lock()
	if b.worker == nil {
		b.mu.Unlock()
		return fmt.Errorf("publish %s: %w", eventType, ErrClosed)
	}

	matched := b.subs.Match(eventType)
	var retired []Token
	for _, sub := range matched {
		b.worker.submit(delivery{
			token:    sub.Token,
			name:     sub.Name,
			callback: sub.Callback,
			event:    event,
		})
		if sub.OneShot {
			retired = append(retired, sub.Token)
		}
	}
	for _, token := range retired {
		b.subs.Remove(token)
	}
	b.mu.Unlock()

	b.metrics.recordPublish(ctx, eventType, len(matched))
	b.metrics.recordSubscriptions(ctx, -len(retired))
	for _, token := range retired {
		b.logger.Debug("retired one-shot subscription", slogx.Subscription(token), slogx.EventType(eventType))
	}
	return nil
}

func isNilEvent(event events.Event) bool {
	if event == nil {
		return true
	}
	switch v := reflect.ValueOf(event); v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Subscriptions returns the number of active subscriptions.
func (b *LocalBroker) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs.Len()
}

// SubscribeTo subscribes fn to events of type E only. The subscription's
// event type filter is derived from E's zero value. For interface types every
// event that implements E is delivered.
func SubscribeTo[E events.Event](src EventSource, fn func(E) error, options ...opts.Option[SubscribeOptions]) (Token, error) {
	if fn == nil {
		return "", fmt.Errorf("subscribe: %w: callback is nil", ErrInvalidCallback)
	}

	switch t := reflect.TypeFor[E](); t.Kind() {
	case reflect.Interface:
	case reflect.Pointer:
		options = append(options, EventTypes(reflect.New(t.Elem()).Interface().(E).EventType()))
	default:
		var zero E
		options = append(options, EventTypes(zero.EventType()))
	}
	options = append(options, namedCallback(reflectx.FunctionName(fn)))
	return src.Subscribe(func(evt events.Event) error {
		typed, ok := evt.(E)
		if !ok {
			return nil
		}
		return fn(typed)
	}, options...)
}

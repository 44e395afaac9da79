package broker

import (
	"fmt"
	"log/slog"

	"github.com/casualjim/evbroker/events"
	"github.com/fogfish/opts"
	"go.opentelemetry.io/otel/metric"
)

// SubscribeOptions collects the settings of a single subscription.
type SubscribeOptions struct {
	eventTypes   []events.EventType
	oneShot      bool
	callbackName string
}

// EventTypes restricts a subscription to the given event types.
// Without this option, or with no types given, every event is delivered.
func EventTypes(types ...events.EventType) opts.Option[SubscribeOptions] {
	return opts.Type[SubscribeOptions](func(o *SubscribeOptions) error {
		o.eventTypes = append(o.eventTypes, types...)
		return nil
	})
}

// namedCallback overrides the name a wrapped callback is logged under.
func namedCallback(name string) opts.Option[SubscribeOptions] {
	return opts.Type[SubscribeOptions](func(o *SubscribeOptions) error {
		o.callbackName = name
		return nil
	})
}

// OneShot makes the subscription retire itself after its first match.
var OneShot = opts.ForName[SubscribeOptions, bool]("oneShot")

// WithLogger sets the logger used for delivery failures and lifecycle debug output.
var WithLogger = opts.ForName[LocalBroker, *slog.Logger]("logger")

// WithMeterProvider sets the OpenTelemetry meter provider for the broker's instruments.
func WithMeterProvider(mp metric.MeterProvider) opts.Option[LocalBroker] {
	return opts.Type[LocalBroker](func(b *LocalBroker) error {
		if mp == nil {
			return fmt.Errorf("meter provider is required")
		}
		b.meterProvider = mp
		return nil
	})
}

// WithErrorHandler registers fn to be called on the delivery worker after a
// callback fails and the failure has been logged. fn must not block for long:
// the next delivery waits for it.
func WithErrorHandler(fn func(*DeliveryError)) opts.Option[LocalBroker] {
	return opts.Type[LocalBroker](func(b *LocalBroker) error {
		b.onError = fn
		return nil
	})
}

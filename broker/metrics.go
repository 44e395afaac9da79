package broker

import (
	"context"

	"github.com/casualjim/evbroker/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/casualjim/evbroker/broker"

const (
	resultOK    = "ok"
	resultError = "error"
	resultPanic = "panic"
)

type metrics struct {
	published      metric.Int64Counter
	deliveries     metric.Int64Counter
	deliveryErrors metric.Int64Counter
	subscriptions  metric.Int64UpDownCounter
}

func newMetrics(mp metric.MeterProvider) *metrics {
	meter := mp.Meter(meterName)
	m := new(metrics)
	m.published, _ = meter.Int64Counter("evbroker.events.published",
		metric.WithDescription("Number of events published to the broker"),
		metric.WithUnit("{event}"))
	m.deliveries, _ = meter.Int64Counter("evbroker.deliveries",
		metric.WithDescription("Number of callback executions by the delivery worker"),
		metric.WithUnit("{delivery}"))
	m.deliveryErrors, _ = meter.Int64Counter("evbroker.delivery.errors",
		metric.WithDescription("Number of callbacks that returned an error or panicked"),
		metric.WithUnit("{error}"))
	m.subscriptions, _ = meter.Int64UpDownCounter("evbroker.subscriptions",
		metric.WithDescription("Number of active subscriptions"),
		metric.WithUnit("{subscription}"))
	return m
}

func (m *metrics) recordPublish(ctx context.Context, eventType events.EventType, matched int) {
	if m.published != nil {
		m.published.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", eventType.String()),
			attribute.Bool("matched", matched > 0)))
	}
}

func (m *metrics) recordDelivery(ctx context.Context, eventType events.EventType, result string) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType.String()),
		attribute.String("result", result))
	if m.deliveries != nil {
		m.deliveries.Add(ctx, 1, attrs)
	}
	if result != resultOK && m.deliveryErrors != nil {
		m.deliveryErrors.Add(ctx, 1, attrs)
	}
}

func (m *metrics) recordSubscriptions(ctx context.Context, delta int) {
	if m.subscriptions != nil && delta != 0 {
		m.subscriptions.Add(ctx, int64(delta))
	}
}

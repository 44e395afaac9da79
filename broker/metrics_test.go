package broker

import (
	"context"
	"testing"

	"github.com/casualjim/evbroker/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func noopProvider() metric.MeterProvider {
	return noop.NewMeterProvider()
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	logger, _ := captureLogger()
	b, err := New(WithLogger(logger), WithMeterProvider(provider))
	require.NoError(t, err)
	b.Open()
	ctx := context.Background()

	_, err = b.Subscribe(new(recorder).record)
	require.NoError(t, err)
	_, err = b.Subscribe(failingCallback, OneShot(true))
	require.NoError(t, err)
	token, err := b.Subscribe(new(recorder).record, EventTypes(events.TypeJobAdded))
	require.NoError(t, err)
	b.Unsubscribe(token)

	require.NoError(t, b.Publish(ctx, taskAdded(1)))
	require.NoError(t, b.Publish(ctx, taskAdded(2)))
	require.NoError(t, b.Close())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "evbroker.events.published"))
	assert.Equal(t, int64(3), sumOf(t, rm, "evbroker.deliveries"))
	assert.Equal(t, int64(1), sumOf(t, rm, "evbroker.delivery.errors"))
	assert.Equal(t, int64(1), sumOf(t, rm, "evbroker.subscriptions"))
}

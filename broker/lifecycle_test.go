package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/casualjim/evbroker/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestClose_DrainsScheduledDeliveries(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t).Open()
	var delivered atomic.Int32
	_, err := b.Subscribe(func(events.Event) error {
		time.Sleep(time.Millisecond)
		delivered.Add(1)
		return nil
	})
	require.NoError(t, err)

	for i := range 25 {
		require.NoError(t, b.Publish(context.Background(), taskAdded(i)))
	}
	require.NoError(t, b.Close())

	assert.Equal(t, int32(25), delivered.Load(), "close returns only after every scheduled delivery ran")
}

func TestClose_PublishAfterCloseFails(t *testing.T) {
	b := newBroker(t).Open()
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), taskAdded(1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, b.IsOpen())
}

func TestClose_Idempotent(t *testing.T) {
	b := newBroker(t)
	assert.NoError(t, b.Close(), "closing a never opened broker is a no-op")

	b.Open()
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.False(t, b.IsOpen())
}

func TestClose_RejectsPublishWhileDraining(t *testing.T) {
	b := newBroker(t).Open()
	entered := make(chan struct{})
	release := make(chan struct{})
	_, err := b.Subscribe(func(events.Event) error {
		close(entered)
		<-release
		return nil
	}, OneShot(true))
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), taskAdded(1)))
	<-entered

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = b.Close()
	}()

	require.Eventually(t, func() bool { return !b.IsOpen() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, b.Publish(context.Background(), taskAdded(2)), ErrClosed)

	select {
	case <-closed:
		t.Fatal("close returned before the running delivery finished")
	default:
	}
	close(release)
	<-closed
}

func TestReopen_KeepsSubscriptions(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t)
	ctx := context.Background()

	kept, dropped := new(recorder), new(recorder)
	_, err := b.Subscribe(kept.record)
	require.NoError(t, err)
	token, err := b.Subscribe(dropped.record)
	require.NoError(t, err)

	b.Open()
	require.NoError(t, b.Publish(ctx, taskAdded("first")))
	require.NoError(t, b.Close())

	b.Unsubscribe(token)

	b.Open()
	require.True(t, b.IsOpen())
	require.NoError(t, b.Publish(ctx, taskAdded("second")))
	require.NoError(t, b.Close())

	assert.Equal(t, []string{"first", "second"}, kept.taskIDs())
	assert.Equal(t, []string{"first"}, dropped.taskIDs())
}

func TestOpen_Reentrant(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t)
	rec := new(recorder)
	_, err := b.Subscribe(rec.record)
	require.NoError(t, err)

	b.Open()
	b.Open()
	require.NoError(t, b.Close())
	assert.True(t, b.IsOpen(), "inner close keeps the broker open")
	require.NoError(t, b.Publish(context.Background(), taskAdded(1)))

	require.NoError(t, b.Close())
	assert.False(t, b.IsOpen())
	assert.Equal(t, []string{"1"}, rec.taskIDs())
}

func TestOpen_FreshWorkerPerCycle(t *testing.T) {
	b := newBroker(t)

	b.Open()
	first := b.worker
	require.NoError(t, b.Close())

	b.Open()
	second := b.worker
	require.NoError(t, b.Close())

	assert.NotNil(t, first)
	assert.NotNil(t, second)
	assert.NotSame(t, first, second)
}

func TestScope(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t)
	rec := new(recorder)
	_, err := b.Subscribe(rec.record)
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = b.Scope(context.Background(), func(ctx context.Context, src EventSource) error {
		assert.True(t, b.IsOpen())
		for i := range 3 {
			require.NoError(t, src.Publish(ctx, taskAdded(i)))
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, b.IsOpen())
	assert.Equal(t, []string{"0", "1", "2"}, rec.taskIDs(), "scope drains before returning")
}

func TestScope_CancelledContext(t *testing.T) {
	b := newBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Scope(ctx, func(context.Context, EventSource) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.False(t, b.IsOpen())
}

func TestLifecycle_ConcurrentCycles(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t)
	var delivered atomic.Int32
	_, err := b.Subscribe(func(events.Event) error {
		delivered.Add(1)
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var published atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				b.Open()
				if err := b.Publish(context.Background(), taskAdded(i)); err == nil {
					published.Add(1)
				}
				_ = b.Close()
			}
		}()
	}
	wg.Wait()

	assert.False(t, b.IsOpen())
	assert.Equal(t, int32(400), published.Load(), "publishing inside an open scope always succeeds")
	assert.Equal(t, published.Load(), delivered.Load())
}

func TestReopen_WhilePreviousCycleDrains(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newBroker(t).Open()

	var (
		mu       sync.Mutex
		order    []string
		inFlight atomic.Int32
		maxSeen  atomic.Int32
	)
	started := make(chan struct{})
	release := make(chan struct{})
	_, err := SubscribeTo(b, func(evt events.TaskAdded) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxSeen.Load()
			if n <= m || maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		mu.Lock()
		order = append(order, evt.TaskID)
		mu.Unlock()
		if evt.TaskID == "1" {
			close(started)
			<-release
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), taskAdded(1)))
	<-started

	closed := make(chan struct{})
	go func() {
		_ = b.Close()
		close(closed)
	}()
	require.Eventually(t, func() bool { return !b.IsOpen() }, time.Second, time.Millisecond)

	b.Open()
	require.NoError(t, b.Publish(context.Background(), taskAdded(2)))

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) > 1
	}, 50*time.Millisecond, 5*time.Millisecond, "the new cycle waits for the old worker to drain")

	close(release)
	<-closed
	require.NoError(t, b.Close())

	assert.Equal(t, int32(1), maxSeen.Load(), "callbacks never overlap")
	assert.Equal(t, []string{"1", "2"}, order)
}

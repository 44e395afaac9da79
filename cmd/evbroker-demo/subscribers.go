package main

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/casualjim/evbroker/broker"
	"github.com/casualjim/evbroker/events"
	"github.com/casualjim/evbroker/internal/registry"
	"github.com/fatih/color"
)

var errJobFailed = errors.New("job failed")

// tally counts what the demo subscribers saw. Callbacks run on the broker's
// single delivery worker, the mutex only protects reads from main.
type tally struct {
	mu        sync.Mutex
	printed   int
	succeeded int
	failed    int
	started   time.Time
}

// elapsed is the time since the scheduler reported it started, or zero when
// that event was never seen.
func (t *tally) elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}

func (t *tally) snapshot() (printed, succeeded, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.printed, t.succeeded, t.failed
}

// subscribers registers the callbacks that EVBROKER_SUBSCRIBERS may refer to.
func subscribers(out io.Writer, stats *tally) (registry.Registry[broker.Callback], error) {
	reg := registry.New[broker.Callback]()

	err := errors.Join(
		reg.Register("demo:printer", printer(out, stats)),
		reg.Register("demo:failing", failOnJobError),
		reg.Register("demo:panicking", panicOnStop),
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func printer(out io.Writer, stats *tally) broker.Callback {
	return func(evt events.Event) error {
		data, err := events.ToJSON(evt)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", color.CyanString(evt.EventType().String()), data)
		stats.mu.Lock()
		stats.printed++
		stats.mu.Unlock()
		return nil
	}
}

// failOnJobError returns an error for every failed job, to show that a
// misbehaving subscriber is logged and skipped.
func failOnJobError(evt events.Event) error {
	if released, ok := evt.(events.JobReleased); ok && released.Outcome == events.OutcomeError {
		return fmt.Errorf("%w: %s", errJobFailed, released.JobID)
	}
	return nil
}

func panicOnStop(evt events.Event) error {
	if evt.EventType() == events.TypeSchedulerStopped {
		panic("scheduler stopped")
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/casualjim/evbroker/broker"
	"github.com/casualjim/evbroker/events"
	"github.com/casualjim/evbroker/internal/config"
	"github.com/casualjim/evbroker/pkg/convx"
	"github.com/casualjim/evbroker/pkg/slogx"
	"github.com/casualjim/evbroker/pkg/stdx"
	"github.com/casualjim/evbroker/pkg/uuidx"
	"github.com/fatih/color"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func setupLogging(cfg config.Config) {
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	if cfg.LogJSON {
		output = os.Stderr
	}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: cfg.LogLevel}),
	))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg)

	b := stdx.Must1(broker.New(broker.WithLogger(slog.Default())))
	if err := run(context.Background(), b, cfg, os.Stdout); err != nil {
		slog.Error("demo failed", slogx.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, b *broker.LocalBroker, cfg config.Config, out io.Writer) error {
	stats := new(tally)
	reg, err := subscribers(out, stats)
	if err != nil {
		return err
	}

	for _, ref := range cfg.Subscribers {
		cb, err := reg.Resolve(ref)
		if err != nil {
			return err
		}
		if _, err := b.Subscribe(cb); err != nil {
			return fmt.Errorf("subscribing %s: %w", ref, err)
		}
		slog.Debug("subscribed configured callback", slog.String("ref", ref))
	}

	_, err = broker.SubscribeTo(b, func(evt events.SchedulerStarted) error {
		started, err := convx.ToDateTime(evt.Timestamp)
		if err != nil {
			return err
		}
		stats.mu.Lock()
		stats.started = started
		stats.mu.Unlock()
		fmt.Fprintln(out, color.GreenString("scheduler is up"))
		return nil
	}, broker.OneShot(true))
	if err != nil {
		return err
	}

	_, err = broker.SubscribeTo(b, func(evt events.JobReleased) error {
		stats.mu.Lock()
		defer stats.mu.Unlock()
		if evt.Outcome == events.OutcomeSuccess {
			stats.succeeded++
		} else {
			stats.failed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = b.Scope(ctx, func(ctx context.Context, src broker.EventSource) error {
		return simulate(ctx, src, cfg.DemoEvents)
	})
	if err != nil {
		return err
	}

	printed, succeeded, failed := stats.snapshot()
	fmt.Fprintf(out, "%s printed=%d succeeded=%d failed=%d elapsed=%.3fs\n",
		color.YellowString("summary"), printed, succeeded, failed, convx.Seconds(stats.elapsed()))
	return nil
}

// simulate publishes the events a scheduler would emit while running jobs.
// Every third job fails.
func simulate(ctx context.Context, src broker.EventSource, jobs int) error {
	publish := func(evt events.Event) error {
		return src.Publish(ctx, evt)
	}

	if err := publish(events.SchedulerStarted{Base: events.Now()}); err != nil {
		return err
	}
	if err := publish(events.TaskAdded{Base: events.Now(), TaskID: "demo:report"}); err != nil {
		return err
	}
	for i := range jobs {
		jobID := uuidx.New()
		if err := publish(events.JobAdded{Base: events.Now(), JobID: jobID, TaskID: "demo:report"}); err != nil {
			return err
		}
		released := events.JobReleased{Base: events.Now(), JobID: jobID, Outcome: events.OutcomeSuccess}
		if i%3 == 2 {
			released.Outcome = events.OutcomeError
			released.Exception = "report generation failed"
		}
		if err := publish(released); err != nil {
			return err
		}
	}
	return publish(events.SchedulerStopped{Base: events.Now()})
}

// Package broker implements an in-process publish/subscribe event broker.
//
// Subscribers register a Callback, optionally restricted to a set of event
// types and optionally one-shot, and receive a Token they can later pass to
// Unsubscribe. Publishers call Publish, which returns as soon as the matching
// deliveries are queued.
//
// Design decisions:
//   - Single delivery worker: callbacks run one at a time, in publish order,
//     on a goroutine owned by the broker. Subscribers never race each other.
//   - Non-blocking publish: the delivery queue is unbounded, so a slow
//     subscriber delays later deliveries but never the publisher.
//   - Failure isolation: errors returned by callbacks and panics inside them
//     are logged (and optionally reported through WithErrorHandler); the
//     worker carries on with the next delivery.
//   - One lock: a single mutex guards the subscription table and the
//     match-and-retire step of Publish. It is never held while a callback runs.
//   - Reentrant lifecycle: Open/Close nest. The outermost Close drains the
//     queue before returning; subscriptions survive into the next Open.
//
// Example usage:
//
//	b, err := broker.New(broker.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer b.Open().Close()
//
//	token, err := broker.SubscribeTo(b, func(evt events.JobReleased) error {
//	    slog.Info("job finished", slog.String("outcome", string(evt.Outcome)))
//	    return nil
//	})
//	if err != nil {
//	    return err
//	}
//	defer b.Unsubscribe(token)
//
//	_ = b.Publish(ctx, events.JobReleased{Base: events.Now(), JobID: id, Outcome: events.OutcomeSuccess})
package broker

package broker

import (
	"errors"
	"fmt"

	"github.com/casualjim/evbroker/events"
)

// Sentinel errors for the event broker.
var (
	// ErrInvalidCallback is returned by Subscribe for callbacks that cannot be run on the delivery worker.
	ErrInvalidCallback = errors.New("invalid callback")

	// ErrClosed is returned by Publish while the broker is not open.
	ErrClosed = errors.New("event broker is closed")

	// ErrInvalidEvent is returned by Publish for a nil event.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrCallbackPanic matches any PanicError via errors.Is.
	ErrCallbackPanic = errors.New("callback panicked")
)

// DeliveryError describes a failed delivery. It is only ever logged: by the
// time a callback runs, Publish has long returned.
type DeliveryError struct {
	Subscription Token
	EventType    events.EventType
	Callback     string
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("error delivering %s event to %s (subscription %s): %v", e.EventType, e.Callback, e.Subscription, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("callback panicked: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrCallbackPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrCallbackPanic
}

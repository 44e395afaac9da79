package events

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// EventType identifies the concrete kind of an event.
type EventType string

func (t EventType) String() string {
	return string(t)
}

// Event is implemented by every value that can be published.
type Event interface {
	EventType() EventType
}

// Base carries the fields shared by every event kind.
type Base struct {
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Now returns a Base stamped with the current UTC time.
func Now() Base {
	return Base{Timestamp: strfmt.DateTime(time.Now().UTC())}
}

// At returns a Base stamped with t.
func At(t time.Time) Base {
	return Base{Timestamp: strfmt.DateTime(t)}
}

// Outcome describes how a job run ended.
type Outcome string

const (
	OutcomeSuccess             Outcome = "success"
	OutcomeError               Outcome = "error"
	OutcomeMissedStartDeadline Outcome = "missed_start_deadline"
	OutcomeCancelled           Outcome = "cancelled"
)

package slogx

import (
	"fmt"
	"log/slog"
)

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
	// KeyEventType is the key under which event discriminants are logged.
	KeyEventType = "event_type"
	// KeySubscription is the key under which subscription tokens are logged.
	KeySubscription = "subscription"
	// KeyCallback is the key under which callback identities are logged.
	KeyCallback = "callback"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName creates a slog.Attr with the provided logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// EventType returns the attribute used to tag log lines with an event discriminant.
func EventType(eventType fmt.Stringer) slog.Attr {
	return Stringer(KeyEventType, eventType)
}

// Subscription returns the attribute used to tag log lines with a subscription token.
func Subscription[T ~string](token T) slog.Attr {
	return slog.String(KeySubscription, string(token))
}

// Callback tags a log line with the name a callback was registered under.
func Callback(name string) slog.Attr {
	return slog.String(KeyCallback, name)
}

// Stack records a captured goroutine stack as a string attribute.
func Stack(stack []byte) slog.Attr {
	return slog.String("stack", string(stack))
}

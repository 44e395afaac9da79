package uuidx

import "github.com/google/uuid"

// New generates a new UUID using the version 7 format and returns it.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new version 7 UUID and returns its canonical string form.
// Version 7 values are time ordered, so strings produced by one process sort
// in generation order and are never handed out twice.
func NewString() string {
	return New().String()
}

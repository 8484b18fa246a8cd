package utils

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a time ordered UUIDv7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Now is the server timestamp, truncated to what every backend can store.
func Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

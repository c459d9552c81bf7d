package storage

import (
	"database/sql/driver"
	"errors"
	"strings"
)

var (
	// ErrConnectionEnded classifies the transient disconnect failure that the
	// retry policy is allowed to retry.
	ErrConnectionEnded = errors.New("connection ended")

	// ErrNotAcquired is returned when storage is used before Acquire succeeded.
	ErrNotAcquired = errors.New("storage connection not acquired")

	// ErrClosed is returned when storage is used after Close.
	ErrClosed = errors.New("storage connection closed")
)

// IsTransient reports whether err belongs to the retryable
// connection-ended class. Every other error class is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionEnded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return strings.Contains(err.Error(), "connection ended")
}

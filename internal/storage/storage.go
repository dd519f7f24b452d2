// Package storage provides the persistent key-value store used for
// sessions, selection state and configuration records. Each key holds one
// JSON document; keys are independent of each other and there is no
// multi-key transaction.
package storage

import (
	"errors"
	"log/slog"
)

// ErrPersistenceUnavailable signals that a write to the underlying store
// failed. In-memory state stays authoritative; callers log and continue.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// Store is the contract shared by all backends. Get reports absence (not
// an error) when the key is missing or its stored value fails to decode.
type Store interface {
	// Get decodes the JSON document under key into out. It returns false
	// when the key is absent or the stored value is not valid JSON for out.
	Get(key string, out any) (bool, error)

	// Set serializes value as JSON and writes it synchronously under key.
	// A failed write is reported wrapped in ErrPersistenceUnavailable.
	Set(key string, value any) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys returns all stored keys starting with prefix.
	Keys(prefix string) ([]string, error)
}

func pickLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

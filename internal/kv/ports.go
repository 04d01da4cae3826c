// Package kv defines the local key-value store the transaction collection
// is persisted in. Backends live in the memory, file and sqlite subpackages.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Ports for local storage backends.
type (
	Reader interface {
		// Get returns the value under key. A missing key is not an error.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
	}

	Writer interface {
		// Set replaces the whole value under key.
		Set(ctx context.Context, key string, value []byte) error
	}

	Store interface {
		Reader
		Writer
		Close() error
	}
)

var (
	ErrUnavailable = errors.New("key-value store unavailable")
	ErrInvalidKey  = errors.New("invalid key")
)

// ValidateKey rejects keys that cannot be used as a file name.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

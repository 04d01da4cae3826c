package backend

import (
	"context"

	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and the function releasing it
type BackendResult struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup, if any, and logs a failure. Meant for defer.
func (r *BackendResult) Close(logger *log.Logger) {
	if r == nil || r.Cleanup == nil {
		return
	}
	if err := r.Cleanup(); err != nil {
		logger.Error("Failed to close storage backend",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeStorage)
	}
}

// Factory creates key-value stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

package backend

import (
	"context"

	"pelotero/internal/amqp"
	"pelotero/internal/services"
	"pelotero/internal/store"
)

// Backend is a Record Store that can report its own health.
type Backend interface {
	store.Store
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the optional change
// publisher and a cleanup function releasing both.
type BackendResult struct {
	Backend Backend
	AMQP    *amqp.Client // nil when change events are disabled
	Cleanup CleanupFunc
}

// Publisher returns the change publisher for the services, or a nil
// interface when AMQP is disabled.
func (r *BackendResult) Publisher() services.ChangePublisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, shared by both backends. Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

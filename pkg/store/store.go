package store

import (
	"context"
	"fmt"
	"time"

	"getgsa/onboarding/pkg/config"
)

// Store persists onboarding requests and their analysis results.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new request. The request keeps its ID and
	// timestamps; zero timestamps are set to the current time.
	Create(ctx context.Context, req *Request) error

	// Get returns the request with the given ID, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, id string) (*Request, error)

	// SaveResult stores the analysis result and marks the request processed.
	SaveResult(ctx context.Context, id string, result *Result) error

	// MarkError records an analysis failure and marks the request errored.
	MarkError(ctx context.Context, id string, message string) error

	// Query returns the requests matching the filters.
	Query(ctx context.Context, query *Query) ([]*Request, error)

	// Count returns the number of requests matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes requests created before the cutoff and returns
	// how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// New creates the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres":
		return Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}

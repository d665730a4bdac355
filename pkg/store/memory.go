package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map. Data is lost when the
// process exits; it backs tests and the local analyze command.
type MemoryStore struct {
	requests map[string]*Request
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*Request),
		now:      time.Now,
	}
}

// Create persists a new request.
func (s *MemoryStore) Create(ctx context.Context, req *Request) error {
	if err := ctx.Err(); err != nil {
		return NewStorageError("memory", "create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return NewStorageError("memory", "create", errDuplicate(req.ID))
	}

	c := clone(req)
	now := s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	s.requests[c.ID] = c
	return nil
}

// Get returns the request with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(r), nil
}

// SaveResult stores the result and marks the request processed.
func (s *MemoryStore) SaveResult(ctx context.Context, id string, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return notFound(id)
	}
	res := *result
	res.Documents = append([]DocumentResult(nil), result.Documents...)
	r.Result = &res
	r.Status = StatusProcessed
	r.Error = ""
	r.UpdatedAt = s.now().UTC()
	return nil
}

// MarkError records an analysis failure.
func (s *MemoryStore) MarkError(ctx context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return notFound(id)
	}
	r.Status = StatusError
	r.Error = message
	r.UpdatedAt = s.now().UTC()
	return nil
}

// Query returns matching requests ordered by creation time.
func (s *MemoryStore) Query(ctx context.Context, query *Query) ([]*Request, error) {
	if query == nil {
		query = &Query{}
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]*Request, 0, len(s.requests))
	for _, r := range s.requests {
		if matchesQuery(r, query) {
			results = append(results, clone(r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if query.ascending() {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if query.Limit > 0 {
		start := query.Offset
		if start > len(results) {
			return []*Request{}, nil
		}
		end := start + query.Limit
		if end > len(results) {
			end = len(results)
		}
		results = results[start:end]
	}
	return results, nil
}

// Count returns the number of matching requests.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	if err := query.Validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.requests {
		if matchesQuery(r, query) {
			count++
		}
	}
	return count, nil
}

// DeleteBefore removes requests created before cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.requests {
		if r.CreatedAt.Before(cutoff) {
			delete(s.requests, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close discards all stored requests.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = make(map[string]*Request)
	return nil
}

func matchesQuery(r *Request, q *Query) bool {
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.StartTime != nil && r.CreatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.CreatedAt.After(*q.EndTime) {
		return false
	}
	return true
}

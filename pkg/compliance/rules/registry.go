package rules

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Registry holds the current rule pack. Reloads replace the pack pointer
// atomically; an evaluation captures one pack for its whole run, so a reload
// never affects a request already in flight.
type Registry struct {
	current  atomic.Pointer[RulePack]
	loadedAt atomic.Int64
	reloads  atomic.Int64
}

// NewRegistry returns a registry serving pack, or the default pack when
// pack is nil.
func NewRegistry(pack *RulePack) *Registry {
	if pack == nil {
		pack = DefaultPack()
	}
	r := &Registry{}
	r.current.Store(pack)
	r.loadedAt.Store(time.Now().UnixNano())
	return r
}

// Current returns the active pack.
func (r *Registry) Current() *RulePack {
	return r.current.Load()
}

// Swap validates pack and makes it current. The previous pack is returned.
func (r *Registry) Swap(pack *RulePack) (*RulePack, error) {
	if err := pack.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to activate rule pack: %w", err)
	}
	prev := r.current.Swap(pack)
	r.loadedAt.Store(time.Now().UnixNano())
	r.reloads.Add(1)
	return prev, nil
}

// LoadedAt returns when the current pack was activated.
func (r *Registry) LoadedAt() time.Time {
	return time.Unix(0, r.loadedAt.Load())
}

// Reloads returns the number of successful swaps.
func (r *Registry) Reloads() int64 {
	return r.reloads.Load()
}

// Evaluator returns an evaluator bound to the current pack.
func (r *Registry) Evaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{Pack: r.Current(), Now: now}
}

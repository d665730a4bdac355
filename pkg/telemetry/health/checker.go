package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status values reported by checks and the overall status.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether a dependency is usable. It returns nil when it
// is, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	OK        bool                   `json:"ok"`
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs the registered dependency checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	service string

	// Timeout for individual checks
	checkTimeout time.Duration
}

// New creates a checker for service. If timeout is 0, each check gets 5
// seconds.
func New(service string, checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		service:      service,
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a check for a named dependency, replacing any
// check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// ListChecks returns the sorted names of the registered checks.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is up. It runs no checks.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		OK:        true,
		Status:    StatusHealthy,
		Service:   c.service,
		Timestamp: time.Now().UTC(),
	}
}

// CheckReadiness runs every registered check concurrently. The result is
// unhealthy when any check fails.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := HealthStatus{
		OK:        true,
		Status:    StatusHealthy,
		Service:   c.service,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	}
	for _, r := range results {
		if r.Status != StatusHealthy {
			status.OK = false
			status.Status = StatusUnhealthy
		}
	}
	return status
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }
	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), DurationMS: elapsed()}
		}
		return CheckResult{Status: StatusHealthy, DurationMS: elapsed()}
	case <-checkCtx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: "health check timeout", DurationMS: elapsed()}
	}
}

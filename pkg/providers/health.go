package providers

import (
	"context"
	"time"
)

// StartHealthChecker probes the provider every HealthCheckInterval until
// ctx is done or Close is called. While the provider is unhealthy the
// interval backs off exponentially. It does nothing when no probe is set.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	if p.probe == nil {
		return
	}
	p.checkerStarted = true
	go p.runHealthChecker(ctx)
}

func (p *HTTPProvider) runHealthChecker(ctx context.Context) {
	defer close(p.healthCheckStopped)

	interval := p.config.HealthCheckInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	p.logger.Info("health checker started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopHealthCheck:
			return
		case <-timer.C:
			p.performHealthCheck(ctx)

			next := interval
			if health := p.GetHealth(); !health.IsHealthy {
				next = calculateBackoff(health.ConsecutiveFailures, interval)
				p.logger.Debug("health check backoff",
					"consecutive_failures", health.ConsecutiveFailures,
					"next_check_in", next,
				)
			}
			timer.Reset(next)
		}
	}
}

// performHealthCheck runs the probe once with a short timeout.
func (p *HTTPProvider) performHealthCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := p.probe(checkCtx)
	p.updateHealth(err == nil, err)
	if err != nil {
		p.logger.Error("health check failed", "error", err, "latency", time.Since(start))
	}
}

// calculateBackoff returns base * 2^failures, capped at ten times base and
// at five minutes.
func calculateBackoff(consecutiveFailures int, base time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return base
	}
	multiplier := 10
	if consecutiveFailures < 4 {
		multiplier = 1 << uint(consecutiveFailures)
	}
	backoff := base * time.Duration(multiplier)
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	return backoff
}

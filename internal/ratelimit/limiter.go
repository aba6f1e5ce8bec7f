package ratelimit

import (
	"sync"
	"time"
)

// Quota describes one provider's call budget per fixed window.
type Quota struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// Usage is a point-in-time view of one provider's counter, exposed through
// health reporting.
type Usage struct {
	Calls  int
	Max    int
	Window time.Duration
}

type counter struct {
	calls int
	quota Quota
}

// Limiter tracks per-provider fixed-window call counters. TryAcquire never
// blocks: a denial means "skip this provider and try the next", and the
// orchestrator clears counters on a schedule at least as long as each
// provider's window.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*counter
}

// New constructs a limiter with the given per-provider quotas.
func New(quotas map[string]Quota) *Limiter {
	l := &Limiter{m: make(map[string]*counter, len(quotas))}
	for name, q := range quotas {
		l.m[name] = &counter{quota: q}
	}
	return l
}

// TryAcquire consumes one call for the provider if its budget allows it.
// Unknown providers are unconstrained.
func (l *Limiter) TryAcquire(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.m[provider]
	if !ok {
		return true
	}
	if c.quota.Max > 0 && c.calls >= c.quota.Max {
		return false
	}
	c.calls++
	return true
}

// Reset clears the counter for one provider.
func (l *Limiter) Reset(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.m[provider]; ok {
		c.calls = 0
	}
}

// ResetAll clears every counter.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.m {
		c.calls = 0
	}
}

// Windows returns each provider's configured window, for reset scheduling.
func (l *Limiter) Windows() map[string]time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]time.Duration, len(l.m))
	for name, c := range l.m {
		out[name] = c.quota.Window
	}
	return out
}

// Snapshot reports current usage per provider.
func (l *Limiter) Snapshot() map[string]Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Usage, len(l.m))
	for name, c := range l.m {
		out[name] = Usage{Calls: c.calls, Max: c.quota.Max, Window: c.quota.Window}
	}
	return out
}

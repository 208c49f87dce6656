package ai

import (
	"sync"
	"time"
)

// Cooldown tracks provider failures. A provider that fails threshold times
// in a row is skipped until its cooldown expires.
type Cooldown struct {
	threshold int
	duration  time.Duration
	now       func() time.Time

	mu    sync.Mutex
	stats map[string]*ProviderStats
}

type ProviderStats struct {
	Successes   int       `json:"successes"`
	Failures    int       `json:"failures"`
	Consecutive int       `json:"consecutive_failures"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastFailure time.Time `json:"last_failure,omitzero"`
	Until       time.Time `json:"cooldown_until,omitzero"`
}

func NewCooldown(threshold int, duration time.Duration) *Cooldown {
	if threshold <= 0 {
		threshold = 1
	}
	return &Cooldown{
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
		stats:     make(map[string]*ProviderStats),
	}
}

func (c *Cooldown) get(provider string) *ProviderStats {
	s, ok := c.stats[provider]
	if !ok {
		s = &ProviderStats{}
		c.stats[provider] = s
	}
	return s
}

func (c *Cooldown) RecordSuccess(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.get(provider)
	s.Successes++
	s.Consecutive = 0
	s.LastSuccess = c.now()
	s.Until = time.Time{}
}

func (c *Cooldown) RecordFailure(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.get(provider)
	s.Failures++
	s.Consecutive++
	s.LastFailure = c.now()
	if s.Consecutive >= c.threshold {
		s.Until = s.LastFailure.Add(c.duration)
	}
}

func (c *Cooldown) IsInCooldown(provider string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[provider]
	if !ok {
		return false
	}
	return c.now().Before(s.Until)
}

// Stats returns a copy of the provider's counters.
func (c *Cooldown) Stats(provider string) ProviderStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.stats[provider]; ok {
		return *s
	}
	return ProviderStats{}
}

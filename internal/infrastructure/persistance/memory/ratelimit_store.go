// Package memory provides in-process implementations of repository interfaces.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hapkiduki/shipping-quote/internal/domain/repository"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a client may stay silent before its bucket is dropped.
const DefaultIdleTTL = 10 * time.Minute

// clientLimiter is the bucket for one key and the last time it was used.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitStore is a token bucket per key, held in process memory.
// Limits are not shared between replicas. Buckets idle for longer than the
// idle TTL are evicted, so memory stays bounded by the number of recently
// active clients.
type RateLimitStore struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

var _ repository.RateLimitStore = (*RateLimitStore)(nil)

// StoreOption configures a RateLimitStore.
type StoreOption func(*RateLimitStore)

// WithIdleTTL overrides DefaultIdleTTL. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *RateLimitStore) {
		s.idleTTL = ttl
	}
}

// NewRateLimitStore creates a store allowing requestsPerSecond with the given burst.
//
// The idle TTL is never shorter than the time an empty bucket takes to
// refill; dropping a bucket earlier would hand a throttled client a fresh burst.
//
// Parameters:
//   - requestsPerSecond: sustained rate per key
//   - burst: maximum burst size per key
//   - opts: optional configuration
//
// Returns:
//   - *RateLimitStore: an empty store
func NewRateLimitStore(requestsPerSecond float64, burst int, opts ...StoreOption) *RateLimitStore {
	s := &RateLimitStore{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case requestsPerSecond <= 0:
		s.idleTTL = 0
	case s.idleTTL > 0:
		refill := time.Duration(float64(burst) / requestsPerSecond * float64(time.Second))
		s.idleTTL = max(s.idleTTL, refill)
	}
	return s
}

// Allow implements repository.RateLimitStore.
func (s *RateLimitStore) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, repository.ErrInvalidInput
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIdle(now)

	c, exists := s.clients[key]
	if !exists {
		c = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1), nil
}

// Len returns the number of tracked keys.
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// evictIdle drops idle buckets at most once per idle TTL. Caller holds mu.
func (s *RateLimitStore) evictIdle(now time.Time) {
	if s.idleTTL <= 0 || now.Sub(s.lastSweep) < s.idleTTL {
		return
	}
	for key, c := range s.clients {
		if now.Sub(c.lastSeen) >= s.idleTTL {
			delete(s.clients, key)
		}
	}
	s.lastSweep = now
}

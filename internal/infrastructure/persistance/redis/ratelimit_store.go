// Package redis provides Redis implementations of repository interfaces.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/hapkiduki/shipping-quote/internal/domain/repository"
	goredis "github.com/redis/go-redis/v9"
)

// Options contains connection settings.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Connect opens a client and verifies the server answers PING.
//
// Parameters:
//   - ctx: context for the initial ping
//   - opts: connection settings
//
// Returns:
//   - *goredis.Client: the connected client
//   - error: ErrConnectionFailed if the ping fails
func Connect(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", repository.ErrConnectionFailed, opts.Addr, err)
	}
	return client, nil
}

// RateLimitStore counts requests per key in fixed windows stored in Redis,
// so every replica enforces the same limit.
type RateLimitStore struct {
	client goredis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

var _ repository.RateLimitStore = (*RateLimitStore)(nil)

// NewRateLimitStore creates a store allowing limit requests per window.
//
// Parameters:
//   - client: a Redis client or cluster client
//   - limit: requests allowed in each window
//   - window: window length (e.g., time.Second)
//
// Returns:
//   - *RateLimitStore: the store
func NewRateLimitStore(client goredis.Cmdable, limit int64, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		limit:  limit,
		window: window,
		prefix: "shipquote:ratelimit",
		now:    time.Now,
	}
}

// Allow implements repository.RateLimitStore.
func (s *RateLimitStore) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, repository.ErrInvalidInput
	}

	windowKey := s.windowKey(key)

	var count *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		count = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, s.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", repository.ErrConnectionFailed, err)
	}

	return count.Val() <= s.limit, nil
}

// windowKey builds the counter key for the window containing now.
func (s *RateLimitStore) windowKey(key string) string {
	start := s.now().Truncate(s.window).Unix()
	return fmt.Sprintf("%s:%s:%d", s.prefix, key, start)
}

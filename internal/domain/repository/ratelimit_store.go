// Package repository contains the repository interfaces (ports) for data access.
package repository

import "context"

// RateLimitStore decides whether a client may make another request.
// It replaces per-process maps of limiters so the HTTP layer can share
// limits across replicas when backed by a network store.
//
// Example usage:
//
//	store := redisstore.NewRateLimitStore(client, 10, time.Second)
//	ok, err := store.Allow(ctx, clientIP)
type RateLimitStore interface {
	// Allow records one request for key and reports whether it is permitted.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - key: the client identifier (e.g., remote IP)
	//
	// Returns:
	//   - bool: true if the request is within the limit
	//   - error: ErrConnectionFailed if the backing store is unreachable
	Allow(ctx context.Context, key string) (bool, error)
}

package cache

import (
	"context"
	"time"
)

// Cache stores remote document bodies keyed by store path.
// A miss is reported as (nil, nil), never as an error.
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration; zero means no expiration
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection
	Close() error

	// Health checks cache health
	Health(ctx context.Context) error
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// DocumentKey builds the cache key for a file in a repository branch
func DocumentKey(repo, branch, path string) string {
	return "doc:" + repo + "@" + branch + ":" + path
}

// New returns an in-memory cache when valkeyURL is empty, otherwise a
// two-level cache backed by Valkey.
func New(valkeyURL string, l1MaxItems int) (Cache, error) {
	if valkeyURL == "" {
		return NewMemoryCache(l1MaxItems, time.Hour), nil
	}
	return NewMultiLevelCache(valkeyURL, l1MaxItems)
}

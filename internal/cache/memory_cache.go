package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryCache is a process-local LRU with a single TTL for every entry
type memoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryCache creates an in-memory cache holding at most size entries
func NewMemoryCache(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 128
	}
	return &memoryCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	return value, nil
}

// Set ignores the per-entry expiration; entries live for the cache TTL
func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *memoryCache) Close() error {
	c.lru.Purge()
	return nil
}

func (c *memoryCache) Health(context.Context) error {
	return nil
}

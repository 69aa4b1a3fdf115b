package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/valkey-io/valkey-go"
)

// valkeyCache implements Cache interface using Valkey
type valkeyCache struct {
	client valkey.Client
}

// NewValkeyCache creates a new Valkey-backed cache
func NewValkeyCache(valkeyURL string) (Cache, error) {
	addr, password, err := parseValkeyURL(valkeyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Valkey URL: %w", err)
	}

	clientOption := valkey.ClientOption{
		InitAddress: []string{addr},
	}
	if password != "" {
		clientOption.Password = password
	}

	client, err := valkey.NewClient(clientOption)
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	c := &valkeyCache{client: client}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return c, nil
}

// Get retrieves a value from Valkey
func (c *valkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	result := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := result.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, &CacheError{Operation: "get", Key: key, Err: err}
	}

	data, err := result.AsBytes()
	if err != nil {
		return nil, &CacheError{Operation: "get", Key: key, Err: err}
	}
	return data, nil
}

// Set stores a value in Valkey with expiration
func (c *valkeyCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	var cmd valkey.Completed
	if expiration > 0 {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(expiration).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &CacheError{Operation: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a key from Valkey
func (c *valkeyCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error(); err != nil {
		return &CacheError{Operation: "delete", Key: key, Err: err}
	}
	return nil
}

// Close closes the Valkey connection
func (c *valkeyCache) Close() error {
	c.client.Close()
	return nil
}

// Health checks Valkey health
func (c *valkeyCache) Health(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("Valkey health check failed: %w", err)
	}
	return nil
}

// parseValkeyURL extracts connection details from Valkey URL
func parseValkeyURL(valkeyURL string) (address, password string, err error) {
	u, err := url.Parse(valkeyURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("missing host in URL")
	}
	address = u.Host

	if u.User != nil {
		password, _ = u.User.Password()
	}
	return address, password, nil
}

// MultiLevelCache keeps hot documents in a process-local L1 in front of Valkey
type MultiLevelCache struct {
	l1 Cache
	l2 Cache
}

// NewMultiLevelCache creates a new multi-level cache
func NewMultiLevelCache(valkeyURL string, l1MaxItems int) (Cache, error) {
	l2, err := NewValkeyCache(valkeyURL)
	if err != nil {
		return nil, err
	}
	return newMultiLevelCache(NewMemoryCache(l1MaxItems, time.Hour), l2), nil
}

func newMultiLevelCache(l1, l2 Cache) *MultiLevelCache {
	return &MultiLevelCache{l1: l1, l2: l2}
}

// Get retrieves from L1 first, then L2, promoting L2 hits
func (c *MultiLevelCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, _ := c.l1.Get(ctx, key); data != nil {
		return data, nil
	}

	data, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data != nil {
		_ = c.l1.Set(ctx, key, data, time.Hour)
	}
	return data, nil
}

// Set stores in both levels, L2 first
func (c *MultiLevelCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return c.l1.Set(ctx, key, value, expiration)
}

// Delete removes from both levels
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.l2.Delete(ctx, key)
}

// Close closes both levels
func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	return c.l2.Close()
}

// Health checks L2 health
func (c *MultiLevelCache) Health(ctx context.Context) error {
	return c.l2.Health(ctx)
}

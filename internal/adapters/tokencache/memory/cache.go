// Package memory keeps the gateway bearer token in process memory.
package memory

import (
	"context"
	"sync"
	"time"
)

// Cache implements ports.TokenCache for a single process.
type Cache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{now: time.Now}
}

func (c *Cache) Get(_ context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || !c.now().Before(c.expiresAt) {
		return "", false, nil
	}
	return c.token, true, nil
}

func (c *Cache) Set(_ context.Context, token string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = expiresAt
	return nil
}

func (c *Cache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
	return nil
}

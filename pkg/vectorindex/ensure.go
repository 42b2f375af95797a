package vectorindex

import (
	"context"
	"sync"
)

// ensureCache remembers which indexes are known to be ready so EnsureIndex
// runs once per name per process. Failures are not cached.
type ensureCache struct {
	mu    sync.Mutex
	ready map[string]bool
}

func (c *ensureCache) do(ctx context.Context, name string, fn func(context.Context, string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready[name] {
		return nil
	}
	if err := fn(ctx, name); err != nil {
		return err
	}
	if c.ready == nil {
		c.ready = make(map[string]bool)
	}
	c.ready[name] = true
	return nil
}

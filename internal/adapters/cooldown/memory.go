package cooldown

import (
	"context"
	"sync"
	"time"
)

// window is one live counter.
type window struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter is an in-process Counter for tests and diskless runs.
// Expired entries are reset lazily on access and removed by PurgeExpired.
type MemoryCounter struct {
	mu   sync.Mutex
	rows map[string]*window
	now  func() time.Time
}

// MemoryOption configures a MemoryCounter.
type MemoryOption func(*MemoryCounter)

// WithMemoryClock overrides the counter's clock. Used in tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCounter) {
		c.now = now
	}
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter(opts ...MemoryOption) *MemoryCounter {
	c := &MemoryCounter{
		rows: make(map[string]*window),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Incr bumps key's count, starting a fresh window when none is live.
func (c *MemoryCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.rows[key]
	if !ok || !w.expiresAt.After(now) {
		w = &window{expiresAt: now.Add(ttl)}
		c.rows[key] = w
	}
	w.count++
	return w.count, nil
}

// Get returns key's live count, or zero when the window has lapsed.
func (c *MemoryCounter) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.rows[key]
	if !ok || !w.expiresAt.After(c.now()) {
		return 0, nil
	}
	return w.count, nil
}

// PurgeExpired drops lapsed windows and returns how many were removed.
func (c *MemoryCounter) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, w := range c.rows {
		if !w.expiresAt.After(now) {
			delete(c.rows, key)
			n++
		}
	}
	return n, nil
}

package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
)

// MemoryCache is the process-local backend: map + per-entry one-shot timer
// plus an interval sweeper. Suitable for single-instance deployments only;
// entries are lost on restart.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
	gen     uint64
	now     func() time.Time
}

type memEntry struct {
	calc  Calculation
	timer *time.Timer
	gen   uint64
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Store(_ context.Context, calc Calculation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[calc.OrderNo]; ok {
		old.timer.Stop()
	}
	calc.CreatedAt = c.now()
	c.gen++
	gen := c.gen
	t := time.AfterFunc(c.ttl, func() { c.expire(calc.OrderNo, gen) })
	c.entries[calc.OrderNo] = memEntry{calc: calc, timer: t, gen: gen}
	return nil
}

// expire is the timer callback. The generation check keeps a timer that
// already fired but lost the lock race from evicting an entry a concurrent
// Store just replaced.
func (c *MemoryCache) expire(orderNo string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[orderNo]; ok && e.gen == gen {
		e.timer.Stop()
		delete(c.entries, orderNo)
	}
}

func (c *MemoryCache) Get(_ context.Context, orderNo string) (Calculation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[orderNo]
	if !ok {
		return Calculation{}, errs.Newf(errs.KindNotFound, "no cart calculation for %s", orderNo)
	}
	if c.now().Sub(e.calc.CreatedAt) > c.ttl {
		e.timer.Stop()
		delete(c.entries, orderNo)
		return Calculation{}, errs.Newf(errs.KindExpired, "cart calculation for %s expired", orderNo)
	}
	return e.calc, nil
}

func (c *MemoryCache) Clear(_ context.Context, orderNo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[orderNo]; ok {
		e.timer.Stop()
		delete(c.entries, orderNo)
	}
	return nil
}

// Cleanup drops every entry older than the TTL. Redundant with the per-entry
// timers but keeps the map bounded if a timer is ever lost.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if c.now().Sub(e.calc.CreatedAt) > c.ttl {
			e.timer.Stop()
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// StartSweeper runs Cleanup on a fixed interval until ctx is done.
func (c *MemoryCache) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Cleanup()
			}
		}
	}()
}

func (c *MemoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

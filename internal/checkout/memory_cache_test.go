package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/kimiashop/orderflow/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) (*MemoryCache, *time.Time) {
	c := NewMemoryCache(ttl)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCacheStoreGet(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(30 * time.Minute)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-1", TotalCents: 60_000}))

	got, err := c.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), got.TotalCents)

	// still retrievable at exactly the TTL boundary
	*now = now.Add(30 * time.Minute)
	_, err = c.Get(ctx, "ORD-1")
	assert.NoError(t, err)

	*now = now.Add(time.Second)
	_, err = c.Get(ctx, "ORD-1")
	assert.True(t, errs.Is(err, errs.KindExpired))

	// expired entry was evicted, second read is a plain miss
	_, err = c.Get(ctx, "ORD-1")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(30 * time.Minute)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-2", TotalCents: 100}))
	require.NoError(t, c.Clear(ctx, "ORD-2"))

	_, err := c.Get(ctx, "ORD-2")
	assert.True(t, errs.Is(err, errs.KindNotFound))

	// clearing a missing entry is not an error
	assert.NoError(t, c.Clear(ctx, "ORD-2"))
}

func TestMemoryCacheStoreOverwriteRefreshes(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(30 * time.Minute)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-3", TotalCents: 1}))
	*now = now.Add(20 * time.Minute)
	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-3", TotalCents: 2}))

	*now = now.Add(15 * time.Minute) // 35min after first store, 15 after second
	got, err := c.Get(ctx, "ORD-3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalCents)
}

func TestMemoryCacheCleanup(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(30 * time.Minute)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "old"}))
	*now = now.Add(20 * time.Minute)
	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "fresh"}))
	*now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 1, c.size())

	_, err := c.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryCacheStaleTimerKeepsReplacedEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(30 * time.Minute)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-5", TotalCents: 1}))
	c.mu.Lock()
	staleGen := c.entries["ORD-5"].gen
	c.mu.Unlock()

	// a timer that fired for the first store but ran after this re-store
	// must not evict the replacement
	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-5", TotalCents: 2}))
	c.expire("ORD-5", staleGen)

	got, err := c.Get(ctx, "ORD-5")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalCents)

	c.mu.Lock()
	curGen := c.entries["ORD-5"].gen
	c.mu.Unlock()
	c.expire("ORD-5", curGen)
	_, err = c.Get(ctx, "ORD-5")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestMemoryCacheTimerEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(20 * time.Millisecond)

	require.NoError(t, c.Store(ctx, Calculation{OrderNo: "ORD-4"}))
	assert.Eventually(t, func() bool { return c.size() == 0 }, time.Second, 5*time.Millisecond)
}

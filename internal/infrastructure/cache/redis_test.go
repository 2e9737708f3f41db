package cache

import (
	"context"
	"document-access/internal/config"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/services"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCacheGetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheServiceStoresBothKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	svc := services.NewRedisCacheService(c, time.Hour)

	doc := &entities.Document{ID: "17", RecordID: "DOC-1", Title: "Chronicle"}
	require.NoError(t, svc.SetDocument(ctx, doc))

	assert.True(t, mr.Exists(services.DocumentIDKey("17")))
	assert.True(t, mr.Exists(services.DocumentRecordKey("DOC-1")))

	got, err := svc.GetDocument(ctx, services.DocumentRecordKey("DOC-1"))
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	release, err := c.Acquire(ctx, "notify:grant:7", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:notify:grant:7"))

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = c.Acquire(waitCtx, "notify:grant:7", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.False(t, mr.Exists("lock:notify:grant:7"))

	again, err := c.Acquire(ctx, "notify:grant:7", time.Minute)
	require.NoError(t, err)
	again()
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	release, err := c.Acquire(ctx, "stat:1:2", time.Second)
	require.NoError(t, err)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	other, err := c.Acquire(ctx, "stat:1:2", time.Minute)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists("lock:stat:1:2"))

	other()
	assert.False(t, mr.Exists("lock:stat:1:2"))
}

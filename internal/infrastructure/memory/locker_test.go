package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerSerializesKey(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "k", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestLockerHonoursContext(t *testing.T) {
	l := NewLocker()

	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	other, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	other()
}

func TestLockerKeysAreIndependent(t *testing.T) {
	l := NewLocker()

	a, err := l.Acquire(context.Background(), "a", time.Second)
	require.NoError(t, err)
	defer a()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	b, err := l.Acquire(ctx, "b", time.Second)
	require.NoError(t, err)
	b()
}

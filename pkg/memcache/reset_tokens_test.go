package mem

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokens_SingleUse(t *testing.T) {
	s := NewResetTokens()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok", "account-1", time.Minute))

	got, err := s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "account-1", got)

	got, err = s.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResetTokens_Expired(t *testing.T) {
	s := NewResetTokens()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "old", "account-1", time.Minute))
	now = now.Add(2 * time.Minute)

	got, err := s.Consume(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Set(ctx, "stale", "account-2", time.Second))
	now = now.Add(time.Minute)
	require.NoError(t, s.Set(ctx, "fresh", "account-3", time.Minute))
	assert.NotContains(t, s.data, "stale")
}

func TestResetTokens_ConcurrentConsume(t *testing.T) {
	s := NewResetTokens()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "tok", "account-1", time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if id, _ := s.Consume(ctx, "tok"); id != "" {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

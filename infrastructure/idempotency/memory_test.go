package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, acquired, err := s.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, acquired)

	existing, acquired, err := s.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Equal(t, StateInProgress, existing.State)

	require.NoError(t, s.Complete(ctx, "k1", Entry{StatusCode: 201, Body: []byte(`{"ok":true}`)}))
	existing, acquired, err = s.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Equal(t, StateCompleted, existing.State)
	assert.Equal(t, 201, existing.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(existing.Body))

	require.NoError(t, s.Release(ctx, "k1"))
	_, acquired, err = s.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, acquired, _ := s.Begin(ctx, "k")
	require.True(t, acquired)

	now = now.Add(2 * time.Minute)
	_, acquired, err := s.Begin(ctx, "k")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryStoreSingleWinner(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, acquired, err := s.Begin(context.Background(), "same")
			if assert.NoError(t, err) && acquired {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestEmptyKeyRejected(t *testing.T) {
	_, _, err := NewMemoryStore(0).Begin(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsResult(t *testing.T) {
	got, err := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRunTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	_, err := Run(context.Background(), 20*time.Millisecond, func(context.Context) (string, error) {
		<-block
		return "late", nil
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRecoversPanic(t *testing.T) {
	_, err := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic during fetch")
}

func TestRunPassesErrors(t *testing.T) {
	want := errors.New("catalog offline")
	_, err := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, want
	})
	require.ErrorIs(t, err, want)
}

func TestGuardLastWriterWins(t *testing.T) {
	var g Guard
	first := g.Begin()
	second := g.Begin()

	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))

	ran := g.Commit(first, func() { t.Fatal("stale commit ran") })
	assert.False(t, ran)
	assert.True(t, g.Commit(second, func() {}))
}

func TestGuardConcurrentBegin(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Begin()
		}()
	}
	wg.Wait()
	assert.True(t, g.Current(Token(50)))
}

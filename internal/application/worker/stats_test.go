package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/infrastructure/telemetry"
)

func TestStatsReporter_SamplesEveryPool(t *testing.T) {
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	r, err := NewStatsReporter(tel, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStatsInterval, r.interval)

	var store, cache atomic.Int32
	r.Register("postgres", func() map[string]int64 {
		store.Add(1)
		return map[string]int64{"open": 3, "in_use": 1}
	})
	r.Register("redis", func() map[string]int64 {
		cache.Add(1)
		return map[string]int64{"total": 2}
	})

	r.report(context.Background())
	assert.Equal(t, int32(1), store.Load())
	assert.Equal(t, int32(1), cache.Load())
}

func TestStatsReporter_RunStopsOnCancel(t *testing.T) {
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	r, err := NewStatsReporter(tel, time.Millisecond)
	require.NoError(t, err)

	var calls atomic.Int32
	r.Register("postgres", func() map[string]int64 {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}

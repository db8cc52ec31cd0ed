package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		rps         float64
		wantEnabled bool
		wantRPS     float64
		wantString  string
	}{
		{rps: 0, wantString: "rate limiting disabled"},
		{rps: -2},
		{rps: 0.5, wantEnabled: true, wantRPS: 0.5, wantString: "1 request per 2s"},
		{rps: 4, wantEnabled: true, wantRPS: 4, wantString: "4.00 rps"},
	}

	for _, tt := range tests {
		l := New(tt.rps)
		require.NotNil(t, l)
		assert.Equal(t, tt.wantEnabled, l.Enabled(), "rps=%v", tt.rps)
		assert.Equal(t, tt.wantRPS, l.RPS(), "rps=%v", tt.rps)
		if tt.wantString != "" {
			assert.Equal(t, tt.wantString, l.String())
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	t.Run("disabled never blocks", func(t *testing.T) {
		l := New(0)
		start := time.Now()
		for i := 0; i < 50; i++ {
			require.NoError(t, l.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("spaces requests", func(t *testing.T) {
		l := New(20)
		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, l.Wait(context.Background()))
		}
		// The first token is immediate; the next two are 50ms apart.
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		l := New(0.1)
		require.NoError(t, l.Wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, l.Wait(ctx))
	})
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(200)
	var wg sync.WaitGroup
	errs := make(chan error, 8*3)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				errs <- l.Wait(context.Background())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestLimiter_NilReceiver(t *testing.T) {
	var l *Limiter
	assert.False(t, l.Enabled())
	assert.Zero(t, l.RPS())
	assert.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, "rate limiting disabled", l.String())
}

func BenchmarkLimiter_Wait(b *testing.B) {
	l := New(1e9)
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		_ = l.Wait(ctx)
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowRefill(t *testing.T) {
	now := time.Unix(0, 0)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("ip", 2, 1))
	assert.True(t, l.Allow("ip", 2, 1))
	assert.False(t, l.Allow("ip", 2, 1))
	assert.True(t, l.Allow("other", 2, 1))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("ip", 2, 1))
	assert.False(t, l.Allow("ip", 2, 1))
}

func TestWait(t *testing.T) {
	l := New()
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "pages", 1, 100))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "pages", 1, 100))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	require.NoError(t, l.Wait(ctx, "slow", 1, 0.001))
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, l.Wait(cctx, "slow", 1, 0.001))
}

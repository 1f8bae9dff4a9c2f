package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, zerolog.Nop()), mr
}

func TestAllowUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "otp:verify:alice@example.com", 5, time.Minute), "call %d", i)
	}
	assert.False(t, limiter.Allow(ctx, "otp:verify:alice@example.com", 5, time.Minute))

	// Other keys are unaffected.
	assert.True(t, limiter.Allow(ctx, "otp:verify:bob@example.com", 5, time.Minute))
}

func TestWindowResets(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "otp:reset:alice@example.com", 1, time.Minute))
	assert.False(t, limiter.Allow(ctx, "otp:reset:alice@example.com", 1, time.Minute))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, limiter.Allow(ctx, "otp:reset:alice@example.com", 1, time.Minute))
}

func TestDegradesOpenWithoutRedis(t *testing.T) {
	limiter := New(nil, zerolog.Nop())
	assert.True(t, limiter.Allow(context.Background(), "any", 1, time.Minute))

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(context.Background(), "any", 1, time.Minute))
}

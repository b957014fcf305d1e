package middleware

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsBurstThenBlocks(t *testing.T) {
	bucket := NewTokenBucket(3, 1)

	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	assert.Greater(t, bucket.GetRetryAfter(), 0)
}

func TestTokenBucketRefills(t *testing.T) {
	// High refill rate so the test doesn't sleep long
	bucket := NewTokenBucket(1, 100)

	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, bucket.Allow())
}

func TestRateLimiterTracksPerIP(t *testing.T) {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  RateLimitConfig{Limit: 1, Window: time.Minute},
	}

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// A different address gets its own bucket
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  RateLimitConfig{Limit: 5, Window: 50 * time.Millisecond},
	}

	for i := 0; i < 100; i++ {
		rl.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	assert.Len(t, rl.buckets, 100)

	time.Sleep(60 * time.Millisecond)

	// An address seen after the idle window survives eviction
	rl.Allow("10.1.0.1")
	rl.evictIdle(time.Now())

	assert.Len(t, rl.buckets, 1)
	_, kept := rl.buckets["10.1.0.1"]
	assert.True(t, kept)
}

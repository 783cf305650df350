package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTokenBucket_Allow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	bucket := newTokenBucket(5, 1, clock.Now)

	for i := 0; i < 5; i++ {
		assert.True(t, bucket.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, bucket.Allow(), "6th request should be denied")

	clock.Advance(time.Second)
	assert.True(t, bucket.Allow(), "request after refill should be allowed")
	assert.False(t, bucket.Allow())
}

func TestTokenBucket_FractionalRefill(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	bucket := newTokenBucket(2, 2, clock.Now)

	assert.True(t, bucket.AllowN(2))
	assert.False(t, bucket.Allow())

	// 0.5초 * 2/s = 1 토큰
	clock.Advance(500 * time.Millisecond)
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())
}

func TestTokenBucket_CapacityCap(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	bucket := newTokenBucket(3, 10, clock.Now)

	clock.Advance(time.Hour)
	assert.Equal(t, int64(3), bucket.Tokens())
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	limiter := NewRateLimiter(3, 1)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("user1"))
	}
	assert.False(t, limiter.Allow("user1"))
	assert.True(t, limiter.Allow("user2"), "different key has its own bucket")
}

func TestRateLimiter_Reset(t *testing.T) {
	limiter := NewRateLimiter(2, 1)
	defer limiter.Stop()

	limiter.Allow("test")
	limiter.Allow("test")
	assert.False(t, limiter.Allow("test"))

	limiter.Reset("test")
	assert.True(t, limiter.Allow("test"))
}

func TestRateLimiter_CleanupRemovesFullBuckets(t *testing.T) {
	limiter := NewRateLimiter(5, 1)
	defer limiter.Stop()

	limiter.Allow("idle")
	limiter.AllowN("busy", 5)
	limiter.Reset("idle")
	limiter.getBucket("idle")

	limiter.cleanup()
	assert.Equal(t, 1, limiter.ActiveBuckets(), "only the drained bucket survives")
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewRateLimiter(100, 10)
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				limiter.Allow("concurrent")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, limiter.ActiveBuckets())
}

func BenchmarkTokenBucket_Allow(b *testing.B) {
	bucket := NewTokenBucket(1000000, 100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bucket.Allow()
	}
}

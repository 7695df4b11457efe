package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string]rateBucket
	limit  int
	window time.Duration
}

type rateBucket struct {
	count int
	reset time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string]rateBucket),
		limit:  limit,
		window: window,
	}
}

// Allow counts one hit for key and reports whether it fits in the current window.
func (l *Limiter) Allow(key string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.hits[key]
	if !ok || now.After(bucket.reset) {
		bucket = rateBucket{count: 0, reset: now.Add(l.window)}
	}
	if bucket.count >= l.limit {
		l.hits[key] = bucket
		return false, bucket.reset
	}
	bucket.count++
	l.hits[key] = bucket
	l.sweep(now)
	return true, bucket.reset
}

// sweep drops expired buckets once the map grows large.
func (l *Limiter) sweep(now time.Time) {
	if len(l.hits) < 4096 {
		return
	}
	for key, bucket := range l.hits {
		if now.After(bucket.reset) {
			delete(l.hits, key)
		}
	}
}

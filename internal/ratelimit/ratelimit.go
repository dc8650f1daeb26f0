// Package ratelimit provides a keyed token-bucket rate limiter with idle
// eviction. Each key gets an independent bucket; buckets unused for a while
// are swept so an open key space (client IPs) cannot grow the map forever.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// sweepInterval is how often idle buckets are collected.
	sweepInterval = time.Minute
	// idleAfter is how long a key must go unused before its bucket is
	// evicted. Eviction hands a returning key a fresh burst, which is
	// acceptable at this horizon.
	idleAfter = 5 * time.Minute
)

// entry pairs a bucket with its last use, recorded on every lookup.
type entry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

func (e *entry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// KeyedRateLimiter manages one token bucket per key.
type KeyedRateLimiter struct {
	mu      sync.RWMutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst per key, and starts the idle-eviction sweeper.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go krl.sweep()

	return krl
}

// Allow reports whether a request for the given key may proceed. It never
// blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.get(key).Allow()
}

// get returns the bucket for a key, creating it on first use.
func (krl *KeyedRateLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	// Fast path: read lock
	krl.mu.RLock()
	e, ok := krl.entries[key]
	krl.mu.RUnlock()

	if ok {
		e.touch(now)
		return e.limiter
	}

	// Slow path: write lock to create
	krl.mu.Lock()
	defer krl.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok = krl.entries[key]; ok {
		e.touch(now)
		return e.limiter
	}

	e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
	e.touch(now)
	krl.entries[key] = e
	return e.limiter
}

// Stop terminates the sweeper. Existing buckets keep working.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			krl.evictIdle(now.Add(-idleAfter))
		case <-krl.done:
			return
		}
	}
}

// evictIdle drops buckets not used since the cutoff, returning how many
// were removed.
func (krl *KeyedRateLimiter) evictIdle(cutoff time.Time) int {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	n := 0
	for key, e := range krl.entries {
		if e.lastSeen.Load() < cutoff.UnixNano() {
			delete(krl.entries, key)
			n++
		}
	}
	return n
}

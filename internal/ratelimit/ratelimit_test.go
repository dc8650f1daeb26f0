package ratelimit

import (
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		key      string
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			key:      "192.168.1.10",
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			key:      "192.168.1.10",
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "different keys are independent",
			rps:      1,
			burst:    1,
			key:      "10.0.0.1",
			calls:    1,
			wantPass: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow(tt.key) {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	// Exhaust the first key
	rl.Allow("192.168.1.10")
	if rl.Allow("192.168.1.10") {
		t.Error("first key should be exhausted")
	}

	// A different client should still pass
	if !rl.Allow("192.168.1.11") {
		t.Error("second key should be independent and allowed")
	}
}

func TestKeyedRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	// Nothing is idle yet.
	if n := rl.evictIdle(time.Now().Add(-time.Minute)); n != 0 {
		t.Errorf("evicted %d fresh buckets, want 0", n)
	}

	// Age one bucket past the cutoff.
	rl.mu.Lock()
	rl.entries["10.0.0.1"].lastSeen.Store(time.Now().Add(-10 * time.Minute).UnixNano())
	rl.mu.Unlock()

	if n := rl.evictIdle(time.Now().Add(-time.Minute)); n != 1 {
		t.Errorf("evicted %d buckets, want 1", n)
	}

	// The evicted key gets a fresh bucket, and a fresh burst, on next use.
	if !rl.Allow("10.0.0.1") {
		t.Error("recreated bucket should allow")
	}
}

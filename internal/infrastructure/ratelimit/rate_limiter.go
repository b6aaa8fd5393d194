package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Actions limited per session.
const (
	ActionSendMessage   = "send_message"
	ActionCreateChat    = "create_chat"
	ActionComment       = "comment"
	ActionLike          = "like"
	ActionUpload        = "upload"
	ActionDefault       = "default"
	idleBucketRetention = time.Hour
)

type Limit struct {
	RPS   float64
	Burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limits  map[string]Limit
	def     Limit
	now     func() time.Time
}

// NewRateLimiter uses def for every action without its own limit.
func NewRateLimiter(def Limit) *RateLimiter {
	if def.RPS <= 0 {
		def.RPS = 2
	}
	if def.Burst <= 0 {
		def.Burst = 10
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limits: map[string]Limit{
			// chat creation is far rarer than messaging
			ActionCreateChat: {RPS: 5.0 / 3600, Burst: 5},
			ActionUpload:     {RPS: 0.5, Burst: 5},
		},
		def: def,
		now: time.Now,
	}
}

// SetLimit overrides the limit of one action. Existing buckets keep theirs.
func (rl *RateLimiter) SetLimit(action string, l Limit) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limits[action] = l
}

func (rl *RateLimiter) get(userID, action string) *rate.Limiter {
	key := userID + ":" + action

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		l, found := rl.limits[action]
		if !found {
			l = rl.def
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.RPS), l.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = rl.now()
	return b.limiter
}

// Allow consumes a token if one is available. When it is not, the returned
// duration is how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	limiter := rl.get(userID, action)
	now := rl.now()

	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup drops buckets that have not been used for an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > idleBucketRetention {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

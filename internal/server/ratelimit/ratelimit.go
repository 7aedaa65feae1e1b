// Package ratelimit throttles the pipeline API per client IP. The two POST
// routes that spend LLM tokens carry strict per-route budgets; everything
// else shares the default budget.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Rule is the budget for one route: Limit requests per Window, with Burst
// requests allowed up front. Burst defaults to Limit when zero.
type Rule struct {
	Route  string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Info reports the budget state for one decision, for the X-RateLimit-*
// response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// bucket is one client+route token bucket. Tokens refill continuously at
// rate per second up to capacity. Callers pass the current time, which
// keeps refill behavior testable without sleeping.
type bucket struct {
	tokens   float64
	capacity float64
	rate     float64
	refilled time.Time
	seen     time.Time
}

func newBucket(capacity int, rate float64, now time.Time) *bucket {
	return &bucket{
		tokens:   float64(capacity),
		capacity: float64(capacity),
		rate:     rate,
		refilled: now,
		seen:     now,
	}
}

// take refills from elapsed time and consumes one token if available. It
// reports the tokens left and when the bucket will be full again.
func (b *bucket) take(now time.Time) (ok bool, remaining int, reset time.Time) {
	elapsed := now.Sub(b.refilled).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	b.refilled = now
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		ok = true
	}

	reset = now
	if b.tokens < b.capacity && b.rate > 0 {
		reset = now.Add(time.Duration((b.capacity - b.tokens) / b.rate * float64(time.Second)))
	}
	return ok, int(b.tokens), reset
}

// retryAfter is the wait until one token is available.
func (b *bucket) retryAfter() time.Duration {
	if b.tokens >= 1 || b.rate <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
}

// Limiter applies per-client, per-route token buckets. Idle buckets are
// swept periodically so one-off clients do not accumulate forever.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     *Config
	ticker  *time.Ticker
	done    chan struct{}
}

// NewLimiter builds a limiter from the config. A nil config gets the
// built-in defaults.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = defaultConfig()
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
	}

	if cfg.Enabled && cfg.CleanupInterval > 0 {
		l.ticker = time.NewTicker(cfg.CleanupInterval)
		l.done = make(chan struct{})
		go l.sweepLoop()
	}

	return l
}

// Allow decides whether a request from clientID may proceed on the given
// route. Whitelisted clients and unlimited routes skip bucketing entirely.
func (l *Limiter) Allow(clientID, route, method string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.cfg.Blacklist[clientID] {
		return false, Info{}
	}

	rule := l.ruleFor(route, method)
	if rule.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	burst := rule.Burst
	if burst <= 0 {
		burst = rule.Limit
	}
	rate := float64(rule.Limit) / rule.Window.Seconds()
	key := clientID + " " + method + " " + rule.Route

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b := l.buckets[key]
	if b == nil {
		b = newBucket(burst, rate, now)
		l.buckets[key] = b
	}

	ok, remaining, reset := b.take(now)
	info := Info{
		Allowed:   ok,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !ok {
		info.RetryAfter = b.retryAfter()
	}
	return ok, info
}

// ruleFor matches a request to its budget. Health checks are never
// limited; routes without an explicit rule fall back to the default.
func (l *Limiter) ruleFor(route, method string) Rule {
	if route == "/health" && method == http.MethodGet {
		return Rule{}
	}
	for _, r := range l.cfg.Rules {
		if r.Route == route && r.Method == method {
			return r
		}
	}
	return Rule{
		Route:  route,
		Limit:  l.cfg.DefaultLimit,
		Window: l.cfg.DefaultWindow,
	}
}

// Stop ends the sweep goroutine.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
		close(l.done)
	}
}

func (l *Limiter) sweepLoop() {
	for {
		select {
		case <-l.ticker.C:
			l.sweep(time.Now().Add(-bucketIdleTTL))
		case <-l.done:
			return
		}
	}
}

// bucketIdleTTL is how long a bucket may go unused before the sweep drops
// it. Well past the longest rule window, so budgets are not reset early.
const bucketIdleTTL = 2 * time.Hour

func (l *Limiter) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

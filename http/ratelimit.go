package http

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests per host using a token bucket.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	config   RateLimiterConfig
}

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// RPS applies to every host without an entry in CustomRates (0 = unlimited)
	RPS float64
	// Burst is the bucket size (default 1)
	Burst int
	// CustomRates maps host names to RPS values, overriding RPS. A zero
	// entry leaves that host unlimited.
	CustomRates map[string]float64
}

// DefaultRateLimiterConfig returns a polite default for a single consumer account.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RPS:         5,
		Burst:       1,
		CustomRates: make(map[string]float64),
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}

	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
	}
}

// Wait blocks until the limiter for the URL's host allows a request.
// Returns an error if the context is canceled or its deadline cannot be met.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}

	limiter := rl.getLimiter(extractDomain(urlStr))
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// getLimiter returns the limiter for a host, creating one if necessary.
func (rl *RateLimiter) getLimiter(domain string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rps := rl.getRPS(domain)
	if rps <= 0 {
		return nil
	}

	if limiter, ok := rl.limiters[domain]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rps), rl.config.Burst)
	rl.limiters[domain] = limiter
	return limiter
}

// getRPS must be called with rl.mu held.
func (rl *RateLimiter) getRPS(domain string) float64 {
	if rps, ok := rl.config.CustomRates[domain]; ok {
		return rps
	}
	return rl.config.RPS
}

// HostOf returns the host name (without port) that rates are keyed by.
func HostOf(urlStr string) string {
	return extractDomain(urlStr)
}

// extractDomain extracts the host (without port) from a URL string.
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}

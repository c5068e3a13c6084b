package sites

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterRegistry hands out a token-bucket limiter per site id, sized by
// each site's RPM. A bucket is created on first use and lives until process
// exit, per the rate-limit bucket's lifetime contract.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLimiterRegistry() *LimiterRegistry {
	return &LimiterRegistry{limiters: make(map[string]*rate.Limiter)}
}

// Get returns the limiter for siteID, sized by rpm on first call; rpm on
// subsequent calls for an already-created bucket is ignored (the bucket's
// rate is fixed for the process's lifetime, matching the "lives until
// process exit" contract).
func (r *LimiterRegistry) Get(siteID string, rpm int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[siteID]; ok {
		return l
	}
	if rpm <= 0 {
		rpm = 10
	}
	l := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	r.limiters[siteID] = l
	return l
}

// Package throttle limits request rates globally and per client key.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// Config configuration for Throttle
type Config struct {
	TotalPerSec, TotalBurst int
	EachPerSec, EachBurst   int
}

// Validate checks rates are positive and bursts cover one second of traffic.
func (c Config) Validate() error {
	if c.TotalPerSec <= 0 || c.EachPerSec <= 0 {
		return errors.New("PerSec must bigger than 0")
	}
	if c.TotalBurst < c.TotalPerSec || c.EachBurst < c.EachPerSec {
		return errors.New("burst must not be smaller than PerSec")
	}
	return nil
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle allows a request only when both the shared bucket and the
// caller's own bucket have a token left.
type Throttle struct {
	mu    sync.Mutex
	cfg   Config
	total *rate.Limiter
	keys  map[string]*keyLimiter
	now   func() time.Time
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid throttle config")
	}

	return &Throttle{
		cfg:   cfg,
		total: rate.NewLimiter(rate.Limit(cfg.TotalPerSec), cfg.TotalBurst),
		keys:  make(map[string]*keyLimiter),
		now:   time.Now,
	}, nil
}

// Allow consumes a token for key.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	now := t.now()
	kl, ok := t.keys[key]
	if !ok {
		kl = &keyLimiter{
			limiter: rate.NewLimiter(rate.Limit(t.cfg.EachPerSec), t.cfg.EachBurst),
		}
		t.keys[key] = kl
	}
	kl.lastSeen = now
	t.mu.Unlock()

	if !kl.limiter.AllowN(now, 1) {
		return false
	}
	return t.total.AllowN(now, 1)
}

// Sweep drops keys unused for longer than idle and returns how many were dropped.
func (t *Throttle) Sweep(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := t.now().Add(-idle)
	var n int
	for k, kl := range t.keys {
		if kl.lastSeen.Before(deadline) {
			delete(t.keys, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (t *Throttle) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(idle)
		}
	}
}

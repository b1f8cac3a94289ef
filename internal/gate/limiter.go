package gate

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"golang.org/x/time/rate"
)

// Config holds the per-user quota.
type Config struct {
	RequestsPerMinute int
	Burst             int
	DeniedUsers       []string
	CleanupInterval   time.Duration
	IdleTTL           time.Duration
}

// DefaultConfig returns the quota used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 10,
		Burst:             10,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
	}
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a token bucket per user. It satisfies application.RequestGate.
type Limiter struct {
	mu           sync.Mutex
	users        map[string]*userLimiter
	denied       map[string]bool
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}

	denied := make(map[string]bool, len(config.DeniedUsers))
	for _, id := range config.DeniedUsers {
		if id = strings.TrimSpace(id); id != "" {
			denied[id] = true
		}
	}

	l := &Limiter{
		users:       make(map[string]*userLimiter),
		denied:      denied,
		limit:       rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:       config.Burst,
		idleTTL:     config.IdleTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go l.startCleanup(config.CleanupInterval)
	return l
}

// Allow consumes units tokens from the user's bucket. Blocked users and
// requests that can never fit the bucket are Denied; an empty bucket is
// RateLimited with the time until enough tokens are available.
func (l *Limiter) Allow(ctx context.Context, userID string, units int) error {
	if units <= 0 {
		units = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.denied[userID] {
		log.Warn().Str("user_id", userID).Msg("request denied for blocked user")
		return financeErrors.ErrDenied
	}
	if units > l.burst {
		return financeErrors.ErrDenied
	}

	now := l.now()
	entry, ok := l.users[userID]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, units)
	if !reservation.OK() {
		return financeErrors.ErrDenied
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		remaining := int(math.Max(0, math.Floor(entry.limiter.TokensAt(now))))
		return financeErrors.NewRateLimitedError(remaining, delay)
	}
	return nil
}

func (l *Limiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanupStaleEntries() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	for id, entry := range l.users {
		if entry.lastSeen.Before(cutoff) {
			delete(l.users, id)
		}
	}
}

// ActiveUsers returns the number of buckets currently tracked.
func (l *Limiter) ActiveUsers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

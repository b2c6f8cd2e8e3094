// Package ratelimit tracks per-user daily request quotas in process memory.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const dayFormat = "2006-01-02"

type key struct {
	userID string
	day    string
}

// Limiter counts requests per (user, calendar day) and rejects callers that
// exceed the daily quota. Counters for past days are evicted once the table
// grows beyond maxEntries, so memory stays bounded without ever resetting
// the current day's counts.
type Limiter struct {
	mu         sync.Mutex
	counts     map[key]int
	dailyLimit int
	maxEntries int
}

func New(dailyLimit, maxEntries int) *Limiter {
	if dailyLimit <= 0 {
		dailyLimit = 200
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Limiter{
		counts:     make(map[key]int),
		dailyLimit: dailyLimit,
		maxEntries: maxEntries,
	}
}

// Allow records one request for userID on now's UTC calendar day and reports
// whether it fits within the daily quota. The call that would push the count
// past the limit is rejected and not recorded.
func (l *Limiter) Allow(userID string, now time.Time) bool {
	day := now.UTC().Format(dayFormat)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.counts) > l.maxEntries {
		l.evictBefore(day)
	}

	k := key{userID: userID, day: day}
	if l.counts[k] >= l.dailyLimit {
		return false
	}
	l.counts[k]++
	return true
}

// Remaining reports how many requests userID has left for now's UTC day.
func (l *Limiter) Remaining(userID string, now time.Time) int {
	day := now.UTC().Format(dayFormat)

	l.mu.Lock()
	defer l.mu.Unlock()

	left := l.dailyLimit - l.counts[key{userID: userID, day: day}]
	if left < 0 {
		return 0
	}
	return left
}

// TrackedKeys reports the number of (user, day) entries currently held.
func (l *Limiter) TrackedKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counts)
}

// StartJanitor evicts stale-day entries periodically until ctx is canceled,
// keeping the table small even when traffic stops.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				day := now.UTC().Format(dayFormat)
				l.mu.Lock()
				l.evictBefore(day)
				l.mu.Unlock()
			}
		}
	}()
}

// evictBefore drops every entry whose day differs from the current day.
// Caller must hold l.mu.
func (l *Limiter) evictBefore(day string) {
	for k := range l.counts {
		if k.day != day {
			delete(l.counts, k)
		}
	}
}

package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestAllowUntilDailyLimit(t *testing.T) {
	l := New(200, 1000)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 200; i++ {
		if !l.Allow("u1", now) {
			t.Fatalf("call %d rejected, want allowed", i)
		}
	}
	if l.Allow("u1", now) {
		t.Fatalf("call 201 allowed, want rejected")
	}
	if got := l.Remaining("u1", now); got != 0 {
		t.Fatalf("Remaining() = %d, want 0", got)
	}
}

func TestAllowIsolatesUsersAndDays(t *testing.T) {
	l := New(2, 1000)
	day1 := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)

	l.Allow("u1", day1)
	l.Allow("u1", day1)
	if l.Allow("u1", day1) {
		t.Fatalf("u1 over quota on day1, want rejected")
	}
	if !l.Allow("u2", day1) {
		t.Fatalf("u2 rejected, want independent quota")
	}
	if !l.Allow("u1", day2) {
		t.Fatalf("u1 rejected on next day, want fresh quota")
	}
}

func TestEvictionKeepsCurrentDayCounts(t *testing.T) {
	l := New(5, 10)
	yesterday := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	today := yesterday.Add(24 * time.Hour)

	for i := 0; i < 11; i++ {
		l.Allow(fmt.Sprintf("old-%d", i), yesterday)
	}
	// Current-day usage for u1 must survive the overflow eviction.
	for i := 0; i < 5; i++ {
		l.Allow("u1", today)
	}
	if l.Allow("u1", today) {
		t.Fatalf("u1 over quota after eviction, want rejected")
	}
	if got := l.TrackedKeys(); got != 1 {
		t.Fatalf("TrackedKeys() = %d, want 1 after stale-day eviction", got)
	}
}

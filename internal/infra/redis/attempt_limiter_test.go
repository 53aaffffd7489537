package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptLimiterCapsAttempts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	limiter := NewAttemptLimiter(newClient(mr), 2, time.Hour)

	for i := 0; i < 2; i++ {
		ok, err := limiter.MayAttempt(ctx, "u1", "p1")
		if err != nil || !ok {
			t.Fatalf("attempt %d: expected allowed, got %v %v", i+1, ok, err)
		}
	}
	if ok, _ := limiter.MayAttempt(ctx, "u1", "p1"); ok {
		t.Fatalf("expected third attempt to be refused")
	}
	if ok, _ := limiter.MayAttempt(ctx, "u2", "p1"); !ok {
		t.Fatalf("expected other user to be allowed")
	}
	if ttl := mr.TTL("exam:attempts:u1:p1"); ttl != time.Hour {
		t.Fatalf("expected window ttl, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if ok, _ := limiter.MayAttempt(ctx, "u1", "p1"); !ok {
		t.Fatalf("expected attempts to reset after window")
	}
}

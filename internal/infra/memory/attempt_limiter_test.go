package memory

import (
	"context"
	"testing"
)

func TestAttemptLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewAttemptLimiter(1)

	if ok, _ := limiter.MayAttempt(ctx, "u1", "p1"); !ok {
		t.Fatalf("expected first attempt allowed")
	}
	if ok, _ := limiter.MayAttempt(ctx, "u1", "p1"); ok {
		t.Fatalf("expected second attempt refused")
	}
	if ok, _ := limiter.MayAttempt(ctx, "u1", "p2"); !ok {
		t.Fatalf("expected other paper allowed")
	}
}

package memory

import (
	"context"
	"sync"
)

// AttemptLimiter allows at most max attempts per user and paper for the
// lifetime of the process.
type AttemptLimiter struct {
	mu       sync.Mutex
	max      int
	attempts map[string]int
}

func NewAttemptLimiter(max int) *AttemptLimiter {
	return &AttemptLimiter{max: max, attempts: make(map[string]int)}
}

func (l *AttemptLimiter) MayAttempt(_ context.Context, userID, paperID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := userID + "\x00" + paperID
	l.attempts[key]++
	return l.attempts[key] <= l.max, nil
}

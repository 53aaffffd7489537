package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DeadlineRegistry is an in-memory implementation of app.DeadlineRegistry.
type DeadlineRegistry struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
}

func NewDeadlineRegistry() *DeadlineRegistry {
	return &DeadlineRegistry{deadlines: make(map[string]time.Time)}
}

func (r *DeadlineRegistry) Register(_ context.Context, submissionID string, deadline time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadlines[submissionID] = deadline
	return nil
}

// Due returns up to limit submission ids whose deadline is not after now,
// earliest deadline first.
func (r *DeadlineRegistry) Due(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type entry struct {
		id       string
		deadline time.Time
	}
	due := make([]entry, 0)
	for id, deadline := range r.deadlines {
		if !deadline.After(now) {
			due = append(due, entry{id: id, deadline: deadline})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].deadline.Equal(due[j].deadline) {
			return due[i].deadline.Before(due[j].deadline)
		}
		return due[i].id < due[j].id
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]string, len(due))
	for i, e := range due {
		ids[i] = e.id
	}
	return ids, nil
}

func (r *DeadlineRegistry) Remove(_ context.Context, submissionIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range submissionIDs {
		delete(r.deadlines, id)
	}
	return nil
}

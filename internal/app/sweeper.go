package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"jee-exam-service/internal/domain"
)

// ExpirySweeper finalizes submissions whose paper time limit has elapsed.
// It runs outside the engine, driven by a scheduler or the CLI.
type ExpirySweeper struct {
	service   *ExamService
	deadlines DeadlineRegistry
	batch     int
	now       func() time.Time
	logger    *zap.Logger
}

func NewExpirySweeper(service *ExamService, deadlines DeadlineRegistry, batch int, logger *zap.Logger) *ExpirySweeper {
	if batch <= 0 {
		batch = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweeper{
		service:   service,
		deadlines: deadlines,
		batch:     batch,
		now:       time.Now,
		logger:    logger.Named("sweeper"),
	}
}

// WithClock is test-only for deterministic deadlines.
func (s *ExpirySweeper) WithClock(now func() time.Time) *ExpirySweeper {
	s.now = now
	return s
}

// Sweep finalizes one batch of due submissions and returns how many were finalized.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	due, err := s.deadlines.Due(ctx, s.now(), s.batch)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, id := range due {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		if _, err := s.service.FinalizeSubmission(ctx, id); err != nil {
			if errors.Is(err, domain.ErrSubmissionNotFound) {
				_ = s.deadlines.Remove(ctx, id)
				continue
			}
			s.logger.Warn("finalize expired submission failed", zap.String("submission_id", id), zap.Error(err))
			continue
		}
		finalized++
	}
	return finalized, nil
}

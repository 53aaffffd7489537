package postgres

import (
	"context"

	"github.com/uptrace/bun"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// SubmissionStore persists submissions and answers with bun. Answer writes
// hold a share lock on the submission row and finalization holds an update
// lock, so no answer lands after submitted_at is set.
type SubmissionStore struct {
	db *bun.DB
}

func NewSubmissionStore(db *bun.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub domain.Submission) error {
	row := submissionRowFrom(sub)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return mapError(err, domain.ErrPaperNotFound)
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	var row submissionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", submissionID).Scan(ctx)
	if err != nil {
		return domain.Submission{}, mapError(err, domain.ErrSubmissionNotFound)
	}
	return row.toDomain(), nil
}

func (s *SubmissionStore) UpsertAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	row := answerRowFrom(answer)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var sub submissionRow
		err := tx.NewSelect().
			Model(&sub).
			Column("id", "submitted_at").
			Where("id = ?", answer.SubmissionID).
			For("SHARE").
			Scan(ctx)
		if err != nil {
			return mapError(err, domain.ErrSubmissionNotFound)
		}
		if sub.SubmittedAt != nil {
			return domain.ErrSubmissionFinalized
		}

		_, err = tx.NewInsert().
			Model(&row).
			On("CONFLICT (submission_id, question_id) DO UPDATE").
			Set("selected_option_id = EXCLUDED.selected_option_id").
			Set("is_correct = EXCLUDED.is_correct").
			Set("answered_at = EXCLUDED.answered_at").
			Exec(ctx)
		return mapError(err, domain.ErrSubmissionNotFound)
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return row.toDomain(), nil
}

func (s *SubmissionStore) ListAnswers(ctx context.Context, submissionID string) ([]domain.Answer, error) {
	return listAnswers(ctx, s.db, submissionID)
}

func (s *SubmissionStore) FinalizeSubmission(ctx context.Context, submissionID string, fn app.FinalizeFunc) (domain.Submission, error) {
	var result domain.Submission
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row submissionRow
		err := tx.NewSelect().
			Model(&row).
			Where("id = ?", submissionID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return mapError(err, domain.ErrSubmissionNotFound)
		}

		answers, err := listAnswers(ctx, tx, submissionID)
		if err != nil {
			return err
		}

		updated, write, err := fn(row.toDomain(), answers)
		if err != nil {
			return err
		}
		if !write {
			result = row.toDomain()
			return nil
		}

		row.SubmittedAt = updated.SubmittedAt
		row.CorrectCount = updated.CorrectCount
		row.ScorePercent = updated.ScorePercent
		_, err = tx.NewUpdate().
			Model(&row).
			Column("submitted_at", "correct_count", "score_percent").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		result = row.toDomain()
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return result, nil
}

func listAnswers(ctx context.Context, db bun.IDB, submissionID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := db.NewSelect().
		Model(&rows).
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return answersToDomain(rows), nil
}

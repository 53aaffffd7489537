package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// SubmissionStore is an in-memory implementation of app.SubmissionRepository.
// A single lock serializes answer writes and finalization, which gives the
// same lock-after-finalize guarantee as the row lock in Postgres.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
	answers     map[string]map[string]domain.Answer
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		submissions: make(map[string]domain.Submission),
		answers:     make(map[string]map[string]domain.Answer),
	}
}

func (s *SubmissionStore) CreateSubmission(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.QuestionIDs = cloneIDs(sub.QuestionIDs)
	s.submissions[sub.ID] = sub
	s.answers[sub.ID] = make(map[string]domain.Answer)
	return nil
}

func (s *SubmissionStore) GetSubmission(_ context.Context, submissionID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (s *SubmissionStore) UpsertAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[answer.SubmissionID]
	if !ok {
		return domain.Answer{}, domain.ErrSubmissionNotFound
	}
	if sub.IsFinalized() {
		return domain.Answer{}, domain.ErrSubmissionFinalized
	}
	s.answers[answer.SubmissionID][answer.QuestionID] = answer
	return answer, nil
}

func (s *SubmissionStore) ListAnswers(_ context.Context, submissionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAnswersLocked(submissionID), nil
}

func (s *SubmissionStore) FinalizeSubmission(_ context.Context, submissionID string, fn app.FinalizeFunc) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}

	updated, write, err := fn(cloneSubmission(sub), s.listAnswersLocked(submissionID))
	if err != nil {
		return domain.Submission{}, err
	}
	if !write {
		return cloneSubmission(sub), nil
	}
	sub.SubmittedAt = updated.SubmittedAt
	sub.CorrectCount = updated.CorrectCount
	sub.ScorePercent = updated.ScorePercent
	s.submissions[submissionID] = sub
	return cloneSubmission(sub), nil
}

// AnswersByUser returns every answer of the user's submissions, optionally
// restricted to finalized ones.
func (s *SubmissionStore) AnswersByUser(_ context.Context, userID string, completedOnly bool) []domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for id, sub := range s.submissions {
		if sub.UserID != userID {
			continue
		}
		if completedOnly && !sub.IsFinalized() {
			continue
		}
		out = append(out, s.listAnswersLocked(id)...)
	}
	return out
}

func (s *SubmissionStore) listAnswersLocked(submissionID string) []domain.Answer {
	byQuestion := s.answers[submissionID]
	out := make([]domain.Answer, 0, len(byQuestion))
	for _, answer := range byQuestion {
		out = append(out, answer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	sub.QuestionIDs = cloneIDs(sub.QuestionIDs)
	return sub
}

// Analytics folds answers from a SubmissionStore joined to a question catalog,
// mirroring the inner join of the Postgres analytics query.
type Analytics struct {
	submissions *SubmissionStore
	catalog     app.QuestionCatalog
}

func NewAnalytics(submissions *SubmissionStore, catalog app.QuestionCatalog) *Analytics {
	return &Analytics{submissions: submissions, catalog: catalog}
}

func (a *Analytics) AggregateBy(ctx context.Context, userID string, dim domain.Dimension, completedOnly bool) ([]domain.DimensionTotal, error) {
	answers := a.submissions.AnswersByUser(ctx, userID, completedOnly)
	joined := make([]app.AnsweredQuestion, 0, len(answers))
	for _, answer := range answers {
		q, err := a.catalog.GetQuestion(ctx, answer.QuestionID)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			// answers to questions since removed from the catalog are not grouped
			continue
		}
		if err != nil {
			return nil, err
		}
		joined = append(joined, app.AnsweredQuestion{Question: q, IsCorrect: answer.IsCorrect})
	}
	return app.TallyByDimension(dim, joined), nil
}

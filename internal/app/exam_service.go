package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"jee-exam-service/internal/domain"
)

// PaperRepository persists exam paper definitions.
type PaperRepository interface {
	CreatePaper(ctx context.Context, paper domain.Paper) error
	GetPaper(ctx context.Context, paperID string) (domain.Paper, error)
}

// FinalizeFunc derives the finalized submission from the locked row and its
// answers. Returning false leaves the stored row untouched.
type FinalizeFunc func(sub domain.Submission, answers []domain.Answer) (domain.Submission, bool, error)

// SubmissionRepository stores submissions and their answers. UpsertAnswer
// and FinalizeSubmission must be atomic per submission: an answer is never
// written once submittedAt is set.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub domain.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error)
	UpsertAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	ListAnswers(ctx context.Context, submissionID string) ([]domain.Answer, error)
	FinalizeSubmission(ctx context.Context, submissionID string, fn FinalizeFunc) (domain.Submission, error)
}

// AnalyticsRepository groups a user's answers by a question dimension.
type AnalyticsRepository interface {
	AggregateBy(ctx context.Context, userID string, dim domain.Dimension, completedOnly bool) ([]domain.DimensionTotal, error)
}

// QuestionCatalog reads the externally owned question bank.
type QuestionCatalog interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	FindQuestionIDs(ctx context.Context, filter domain.QuestionFilter, limit int) ([]string, error)
}

// AttemptGate is the entitlement check consulted before an attempt starts.
type AttemptGate interface {
	MayAttempt(ctx context.Context, userID, paperID string) (bool, error)
}

// DeadlineRegistry tracks when timed submissions should be finalized by an
// external sweeper. The engine only records deadlines; it never acts on them.
type DeadlineRegistry interface {
	Register(ctx context.Context, submissionID string, deadline time.Time) error
	Due(ctx context.Context, now time.Time, limit int) ([]string, error)
	Remove(ctx context.Context, submissionIDs ...string) error
}

// Recorder receives engine events for metrics.
type Recorder interface {
	SubmissionStarted()
	AnswerRecorded(correct bool)
	SubmissionFinalized(scorePercent float64)
}

type nopRecorder struct{}

func (nopRecorder) SubmissionStarted()          {}
func (nopRecorder) AnswerRecorded(bool)         {}
func (nopRecorder) SubmissionFinalized(float64) {}

// ExamService contains the paper, submission and analytics use cases.
type ExamService struct {
	papers      PaperRepository
	submissions SubmissionRepository
	analytics   AnalyticsRepository
	catalog     QuestionCatalog
	policy      Policy
	logger      *zap.Logger

	gate      AttemptGate
	deadlines DeadlineRegistry
	recorder  Recorder
	now       func() time.Time
	newID     func() string
}

func NewExamService(papers PaperRepository, submissions SubmissionRepository, analytics AnalyticsRepository, catalog QuestionCatalog, policy Policy, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		papers:      papers,
		submissions: submissions,
		analytics:   analytics,
		catalog:     catalog,
		policy:      policy,
		logger:      logger.Named("exam"),
		recorder:    nopRecorder{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithGate installs an entitlement check for StartSubmission.
func (s *ExamService) WithGate(gate AttemptGate) *ExamService {
	s.gate = gate
	return s
}

// WithDeadlines records deadlines of timed papers in registry.
func (s *ExamService) WithDeadlines(registry DeadlineRegistry) *ExamService {
	s.deadlines = registry
	return s
}

// WithRecorder reports engine events to r.
func (s *ExamService) WithRecorder(r Recorder) *ExamService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *ExamService) WithClock(now func() time.Time) *ExamService {
	s.now = now
	return s
}

// Policy returns the active engine policy.
func (s *ExamService) Policy() Policy {
	return s.policy
}

// CreatePaper validates and stores a paper definition.
func (s *ExamService) CreatePaper(ctx context.Context, paper domain.Paper) (domain.Paper, error) {
	paper.Title = strings.TrimSpace(paper.Title)
	if paper.Title == "" {
		return domain.Paper{}, fmt.Errorf("%w: title is required", domain.ErrInvalidPaper)
	}
	if paper.TimeLimitMin != nil && *paper.TimeLimitMin <= 0 {
		return domain.Paper{}, fmt.Errorf("%w: time limit must be positive", domain.ErrInvalidPaper)
	}
	if dup := firstDuplicate(paper.QuestionIDs); dup != "" {
		return domain.Paper{}, fmt.Errorf("%w: duplicate question %s", domain.ErrInvalidPaper, dup)
	}

	paper.ID = s.newID()
	paper.CreatedAt = s.now().UTC()
	paper.SubjectIDs = orEmpty(paper.SubjectIDs)
	paper.TopicIDs = orEmpty(paper.TopicIDs)
	paper.SubtopicIDs = orEmpty(paper.SubtopicIDs)
	paper.QuestionIDs = orEmpty(paper.QuestionIDs)

	if err := s.papers.CreatePaper(ctx, paper); err != nil {
		return domain.Paper{}, err
	}
	return paper, nil
}

// GetPaper loads a paper definition.
func (s *ExamService) GetPaper(ctx context.Context, paperID string) (domain.Paper, error) {
	return s.papers.GetPaper(ctx, paperID)
}

// StartSubmission opens an attempt for userID on paperID and returns the
// ordered question list the caller should render.
func (s *ExamService) StartSubmission(ctx context.Context, userID, paperID string) (domain.StartedSubmission, error) {
	if userID == "" {
		return domain.StartedSubmission{}, domain.ErrMissingUser
	}
	if s.gate != nil {
		ok, err := s.gate.MayAttempt(ctx, userID, paperID)
		if err != nil {
			return domain.StartedSubmission{}, fmt.Errorf("check attempt gate: %w", err)
		}
		if !ok {
			return domain.StartedSubmission{}, domain.ErrAttemptNotAllowed
		}
	}

	paper, err := s.papers.GetPaper(ctx, paperID)
	if err != nil {
		return domain.StartedSubmission{}, err
	}

	questionIDs, err := ResolveQuestionIDs(ctx, s.catalog, paper, s.policy.DefaultLimit)
	if err != nil {
		return domain.StartedSubmission{}, err
	}

	now := s.now().UTC()
	sub := domain.Submission{
		ID:             s.newID(),
		UserID:         userID,
		PaperID:        paper.ID,
		StartedAt:      now,
		TotalQuestions: len(questionIDs),
		QuestionIDs:    questionIDs,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return domain.StartedSubmission{}, err
	}
	s.recorder.SubmissionStarted()

	if paper.TimeLimitMin != nil && s.deadlines != nil {
		deadline := now.Add(time.Duration(*paper.TimeLimitMin) * time.Minute)
		if err := s.deadlines.Register(ctx, sub.ID, deadline); err != nil {
			// time limits are advisory; the attempt stays valid without a deadline
			s.logger.Warn("register deadline failed", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}

	s.logger.Debug("submission started",
		zap.String("submission_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("paper_id", paper.ID),
		zap.Int("total_questions", sub.TotalQuestions))

	return domain.StartedSubmission{SubmissionID: sub.ID, QuestionIDs: questionIDs}, nil
}

// SubmitAnswer judges and stores the answer for one question of a submission.
// Calling it again for the same question replaces the earlier answer.
func (s *ExamService) SubmitAnswer(ctx context.Context, submissionID, questionID string, selectedOptionID *string) (domain.Answer, error) {
	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if sub.IsFinalized() {
		return domain.Answer{}, domain.ErrSubmissionFinalized
	}
	if s.policy.AnswerScope == AnswerScopePaper && !sub.Includes(questionID) {
		return domain.Answer{}, domain.ErrQuestionNotInPaper
	}

	question, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if selectedOptionID != nil && !question.HasOption(*selectedOptionID) {
		return domain.Answer{}, domain.ErrOptionNotFound
	}

	answer := domain.Answer{
		SubmissionID:     submissionID,
		QuestionID:       questionID,
		SelectedOptionID: selectedOptionID,
		IsCorrect:        s.judge(question, selectedOptionID),
		AnsweredAt:       s.now().UTC(),
	}
	stored, err := s.submissions.UpsertAnswer(ctx, answer)
	if err != nil {
		return domain.Answer{}, err
	}
	s.recorder.AnswerRecorded(stored.IsCorrect)
	return stored, nil
}

// FinalizeSubmission freezes the score of a submission. Under the idempotent
// policy a second call returns the stored result unchanged.
func (s *ExamService) FinalizeSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	now := s.now().UTC()
	recompute := s.policy.Finalize == FinalizeRecompute
	scored := false

	sub, err := s.submissions.FinalizeSubmission(ctx, submissionID, func(sub domain.Submission, answers []domain.Answer) (domain.Submission, bool, error) {
		if sub.IsFinalized() && !recompute {
			return sub, false, nil
		}
		correct, percent := Score(sub, answers)
		sub.CorrectCount = correct
		sub.ScorePercent = &percent
		sub.SubmittedAt = &now
		scored = true
		return sub, true, nil
	})
	if err != nil {
		return domain.Submission{}, err
	}

	if scored {
		s.recorder.SubmissionFinalized(*sub.ScorePercent)
		s.logger.Debug("submission finalized",
			zap.String("submission_id", sub.ID),
			zap.Int("correct", sub.CorrectCount),
			zap.Int("total_questions", sub.TotalQuestions))
	}
	if s.deadlines != nil {
		if err := s.deadlines.Remove(ctx, sub.ID); err != nil {
			s.logger.Warn("remove deadline failed", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
	return sub, nil
}

// GetSubmission returns a submission. Callers compare UserID with the
// requester before exposing it.
func (s *ExamService) GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	return s.submissions.GetSubmission(ctx, submissionID)
}

// ListAnswers returns the stored answers of a submission in question id order.
func (s *ExamService) ListAnswers(ctx context.Context, submissionID string) ([]domain.Answer, error) {
	if _, err := s.submissions.GetSubmission(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.submissions.ListAnswers(ctx, submissionID)
}

// judge wraps Judge and reports catalog entries without exactly one correct option.
func (s *ExamService) judge(q domain.Question, selected *string) bool {
	if _, count := CorrectOption(q); count != 1 {
		s.logger.Warn("question has ambiguous answer key",
			zap.String("question_id", q.ID),
			zap.Int("correct_options", count))
	}
	return Judge(q, selected)
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

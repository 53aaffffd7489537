package postgres

import (
	"time"

	"github.com/uptrace/bun"
	"jee-exam-service/internal/domain"
)

type paperRow struct {
	bun.BaseModel `bun:"table:exam_papers,alias:p"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title,notnull"`
	Description  *string   `bun:"description"`
	SubjectIDs   []string  `bun:"subject_ids,array"`
	TopicIDs     []string  `bun:"topic_ids,array"`
	SubtopicIDs  []string  `bun:"subtopic_ids,array"`
	QuestionIDs  []string  `bun:"question_ids,array"`
	TimeLimitMin *int      `bun:"time_limit_min"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func paperRowFrom(p domain.Paper) paperRow {
	return paperRow{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		SubjectIDs:   orEmpty(p.SubjectIDs),
		TopicIDs:     orEmpty(p.TopicIDs),
		SubtopicIDs:  orEmpty(p.SubtopicIDs),
		QuestionIDs:  orEmpty(p.QuestionIDs),
		TimeLimitMin: p.TimeLimitMin,
		CreatedAt:    p.CreatedAt,
	}
}

func (r paperRow) toDomain() domain.Paper {
	return domain.Paper{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		SubjectIDs:   orEmpty(r.SubjectIDs),
		TopicIDs:     orEmpty(r.TopicIDs),
		SubtopicIDs:  orEmpty(r.SubtopicIDs),
		QuestionIDs:  orEmpty(r.QuestionIDs),
		TimeLimitMin: r.TimeLimitMin,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type submissionRow struct {
	bun.BaseModel `bun:"table:exam_submissions,alias:s"`

	ID             string     `bun:"id,pk"`
	UserID         string     `bun:"user_id,notnull"`
	PaperID        string     `bun:"exam_paper_id,notnull"`
	StartedAt      time.Time  `bun:"started_at,notnull"`
	SubmittedAt    *time.Time `bun:"submitted_at"`
	TotalQuestions int        `bun:"total_questions,notnull"`
	CorrectCount   int        `bun:"correct_count,notnull"`
	ScorePercent   *float64   `bun:"score_percent"`
	QuestionIDs    []string   `bun:"question_ids,array"`
}

func submissionRowFrom(s domain.Submission) submissionRow {
	return submissionRow{
		ID:             s.ID,
		UserID:         s.UserID,
		PaperID:        s.PaperID,
		StartedAt:      s.StartedAt,
		SubmittedAt:    s.SubmittedAt,
		TotalQuestions: s.TotalQuestions,
		CorrectCount:   s.CorrectCount,
		ScorePercent:   s.ScorePercent,
		QuestionIDs:    orEmpty(s.QuestionIDs),
	}
}

func (r submissionRow) toDomain() domain.Submission {
	sub := domain.Submission{
		ID:             r.ID,
		UserID:         r.UserID,
		PaperID:        r.PaperID,
		StartedAt:      r.StartedAt.UTC(),
		TotalQuestions: r.TotalQuestions,
		CorrectCount:   r.CorrectCount,
		ScorePercent:   r.ScorePercent,
		QuestionIDs:    orEmpty(r.QuestionIDs),
	}
	if r.SubmittedAt != nil {
		at := r.SubmittedAt.UTC()
		sub.SubmittedAt = &at
	}
	return sub
}

type answerRow struct {
	bun.BaseModel `bun:"table:exam_answers,alias:a"`

	SubmissionID     string    `bun:"submission_id,pk"`
	QuestionID       string    `bun:"question_id,pk"`
	SelectedOptionID *string   `bun:"selected_option_id"`
	IsCorrect        bool      `bun:"is_correct,notnull"`
	AnsweredAt       time.Time `bun:"answered_at,notnull"`
}

func answerRowFrom(a domain.Answer) answerRow {
	return answerRow{
		SubmissionID:     a.SubmissionID,
		QuestionID:       a.QuestionID,
		SelectedOptionID: a.SelectedOptionID,
		IsCorrect:        a.IsCorrect,
		AnsweredAt:       a.AnsweredAt,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		SubmissionID:     r.SubmissionID,
		QuestionID:       r.QuestionID,
		SelectedOptionID: r.SelectedOptionID,
		IsCorrect:        r.IsCorrect,
		AnsweredAt:       r.AnsweredAt.UTC(),
	}
}

func answersToDomain(rows []answerRow) []domain.Answer {
	out := make([]domain.Answer, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

// dimensionRow is one group of the analytics query. A NULL id is the
// unclassified group.
type dimensionRow struct {
	DimensionID *string `bun:"dimension_id"`
	Total       int     `bun:"total"`
	Correct     int     `bun:"correct"`
}

func (r dimensionRow) toDomain() domain.DimensionTotal {
	total := domain.DimensionTotal{Total: r.Total, Correct: r.Correct}
	if r.DimensionID == nil || *r.DimensionID == "" {
		total.Unclassified = true
		return total
	}
	total.DimensionID = *r.DimensionID
	return total
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

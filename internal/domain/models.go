package domain

import "time"

// Option is one selectable answer of a catalog question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text,omitempty"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a read-only catalog entry. Dimension ids are empty when the
// question is not tagged on that level of the taxonomy.
type Question struct {
	ID         string   `json:"id"`
	SubjectID  string   `json:"subjectId,omitempty"`
	TopicID    string   `json:"topicId,omitempty"`
	SubtopicID string   `json:"subtopicId,omitempty"`
	Options    []Option `json:"options"`
}

// HasOption reports whether optionID belongs to the question.
func (q Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// QuestionFilter selects catalog questions by dimension. An empty set places
// no restriction on that dimension; present sets are combined with AND.
type QuestionFilter struct {
	SubjectIDs  []string
	TopicIDs    []string
	SubtopicIDs []string
}

// IsEmpty reports whether no dimension is filtered.
func (f QuestionFilter) IsEmpty() bool {
	return len(f.SubjectIDs) == 0 && len(f.TopicIDs) == 0 && len(f.SubtopicIDs) == 0
}

// Matches applies the filter to a single question.
func (f QuestionFilter) Matches(q Question) bool {
	return matchesSet(f.SubjectIDs, q.SubjectID) &&
		matchesSet(f.TopicIDs, q.TopicID) &&
		matchesSet(f.SubtopicIDs, q.SubtopicID)
}

func matchesSet(set []string, id string) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == id {
			return true
		}
	}
	return false
}

// Paper defines which questions make up an exam: either an explicit list or
// filter criteria resolved when an attempt starts.
type Paper struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	SubjectIDs   []string  `json:"subjectIds"`
	TopicIDs     []string  `json:"topicIds"`
	SubtopicIDs  []string  `json:"subtopicIds"`
	QuestionIDs  []string  `json:"questionIds"`
	TimeLimitMin *int      `json:"timeLimitMin,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Filter returns the paper's dimension criteria.
func (p Paper) Filter() QuestionFilter {
	return QuestionFilter{
		SubjectIDs:  p.SubjectIDs,
		TopicIDs:    p.TopicIDs,
		SubtopicIDs: p.SubtopicIDs,
	}
}

// SubmissionStatus is derived from SubmittedAt.
type SubmissionStatus string

const (
	SubmissionOpen      SubmissionStatus = "open"
	SubmissionFinalized SubmissionStatus = "finalized"
)

// Submission is one user's attempt at a paper. TotalQuestions and
// QuestionIDs are a snapshot taken at start and never recomputed.
type Submission struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	PaperID        string     `json:"examPaperId"`
	StartedAt      time.Time  `json:"startedAt"`
	SubmittedAt    *time.Time `json:"submittedAt"`
	TotalQuestions int        `json:"totalQuestions"`
	CorrectCount   int        `json:"correctCount"`
	ScorePercent   *float64   `json:"scorePercent"`
	QuestionIDs    []string   `json:"questionIds"`
}

// IsFinalized reports whether the submission reached its terminal state.
func (s Submission) IsFinalized() bool {
	return s.SubmittedAt != nil
}

// Status returns the lifecycle state.
func (s Submission) Status() SubmissionStatus {
	if s.IsFinalized() {
		return SubmissionFinalized
	}
	return SubmissionOpen
}

// Includes reports whether questionID is part of the start snapshot.
func (s Submission) Includes(questionID string) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// StartedSubmission is what a caller needs to render a fresh attempt.
type StartedSubmission struct {
	SubmissionID string   `json:"submissionId"`
	QuestionIDs  []string `json:"questionIds"`
}

// Answer is the single stored answer for (SubmissionID, QuestionID).
// A nil SelectedOptionID means the question was skipped.
type Answer struct {
	SubmissionID     string    `json:"submissionId"`
	QuestionID       string    `json:"questionId"`
	SelectedOptionID *string   `json:"selectedOptionId"`
	IsCorrect        bool      `json:"isCorrect"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

// DimensionTotal is one analytics group. Unclassified groups collect answers
// to questions without an id on the requested dimension.
type DimensionTotal struct {
	DimensionID  string `json:"dimensionId"`
	Unclassified bool   `json:"unclassified,omitempty"`
	Total        int    `json:"total"`
	Correct      int    `json:"correct"`
}

// Profile bundles a user's totals on every dimension.
type Profile struct {
	UserID    string           `json:"userId"`
	Subjects  []DimensionTotal `json:"subjects"`
	Topics    []DimensionTotal `json:"topics"`
	Subtopics []DimensionTotal `json:"subtopics"`
}

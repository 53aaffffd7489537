package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"jee-exam-service/internal/domain"
)

// QuestionReader reads the question catalog from Postgres. The catalog is
// owned by another service; this reader never writes to it.
type QuestionReader struct {
	pool *pgxpool.Pool
}

func NewQuestionReader(pool *pgxpool.Pool) *QuestionReader {
	return &QuestionReader{pool: pool}
}

func (r *QuestionReader) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var (
		subject, topic, subtopic *string
		raw                      []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT subject_id, topic_id, subtopic_id, options FROM questions WHERE id=$1`,
		questionID,
	).Scan(&subject, &topic, &subtopic, &raw)
	if err != nil {
		return domain.Question{}, mapError(err, domain.ErrQuestionNotFound)
	}

	q := domain.Question{
		ID:         questionID,
		SubjectID:  deref(subject),
		TopicID:    deref(topic),
		SubtopicID: deref(subtopic),
	}
	if err := json.Unmarshal(raw, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options of %s: %w", questionID, err)
	}
	return q, nil
}

func (r *QuestionReader) FindQuestionIDs(ctx context.Context, filter domain.QuestionFilter, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM questions
		WHERE (cardinality($1::text[]) = 0 OR subject_id = ANY($1))
		  AND (cardinality($2::text[]) = 0 OR topic_id = ANY($2))
		  AND (cardinality($3::text[]) = 0 OR subtopic_id = ANY($3))
		ORDER BY id
		LIMIT $4`,
		orEmpty(filter.SubjectIDs), orEmpty(filter.TopicIDs), orEmpty(filter.SubtopicIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

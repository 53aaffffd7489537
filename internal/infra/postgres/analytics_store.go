package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// AnalyticsStore groups answers by joining them to the questions table.
type AnalyticsStore struct {
	db *bun.DB
}

func NewAnalyticsStore(db *bun.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

func (s *AnalyticsStore) AggregateBy(ctx context.Context, userID string, dim domain.Dimension, completedOnly bool) ([]domain.DimensionTotal, error) {
	col, err := dimensionColumn(dim)
	if err != nil {
		return nil, err
	}

	q := s.db.NewSelect().
		TableExpr("exam_answers AS a").
		Join("JOIN exam_submissions AS s ON s.id = a.submission_id").
		Join("JOIN questions AS q ON q.id = a.question_id").
		ColumnExpr("NULLIF(q.?, '') AS dimension_id", bun.Ident(col)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COUNT(*) FILTER (WHERE a.is_correct) AS correct").
		Where("s.user_id = ?", userID).
		GroupExpr("1")
	if completedOnly {
		q = q.Where("s.submitted_at IS NOT NULL")
	}

	var rows []dimensionRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	totals := make([]domain.DimensionTotal, len(rows))
	for i, row := range rows {
		totals[i] = row.toDomain()
	}
	app.SortDimensionTotals(totals)
	return totals, nil
}

func dimensionColumn(dim domain.Dimension) (string, error) {
	switch dim {
	case domain.DimensionSubject:
		return "subject_id", nil
	case domain.DimensionTopic:
		return "topic_id", nil
	case domain.DimensionSubtopic:
		return "subtopic_id", nil
	}
	return "", fmt.Errorf("%w: %d", domain.ErrInvalidDimension, int(dim))
}

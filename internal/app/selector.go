package app

import (
	"context"
	"fmt"

	"jee-exam-service/internal/domain"
)

// ResolveQuestionIDs materializes the ordered question list of a paper.
// Explicit lists are returned as stored. Filter papers are resolved against
// the catalog and capped at limit; a paper with neither yields no questions.
func ResolveQuestionIDs(ctx context.Context, catalog QuestionCatalog, paper domain.Paper, limit int) ([]string, error) {
	if len(paper.QuestionIDs) > 0 {
		ids := make([]string, len(paper.QuestionIDs))
		copy(ids, paper.QuestionIDs)
		return ids, nil
	}

	filter := paper.Filter()
	if filter.IsEmpty() {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultQuestionLimit
	}

	ids, err := catalog.FindQuestionIDs(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("resolve paper %s: %w", paper.ID, err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

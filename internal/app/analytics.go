package app

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"jee-exam-service/internal/domain"
)

// AnsweredQuestion pairs a stored answer outcome with the question it refers to.
type AnsweredQuestion struct {
	Question  domain.Question
	IsCorrect bool
}

// TallyByDimension folds answers into per-dimension totals. Questions with no
// id on the dimension land in a single unclassified group. Groups are returned
// in dimension id order with the unclassified group last.
func TallyByDimension(dim domain.Dimension, answers []AnsweredQuestion) []domain.DimensionTotal {
	groups := make(map[string]*domain.DimensionTotal)
	for _, answer := range answers {
		key := dim.KeyOf(answer.Question)
		group, ok := groups[key]
		if !ok {
			group = &domain.DimensionTotal{DimensionID: key, Unclassified: key == ""}
			groups[key] = group
		}
		group.Total++
		if answer.IsCorrect {
			group.Correct++
		}
	}

	totals := make([]domain.DimensionTotal, 0, len(groups))
	for _, group := range groups {
		totals = append(totals, *group)
	}
	SortDimensionTotals(totals)
	return totals
}

// SortDimensionTotals orders groups by dimension id with the unclassified group last.
func SortDimensionTotals(totals []domain.DimensionTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Unclassified != totals[j].Unclassified {
			return !totals[i].Unclassified
		}
		return totals[i].DimensionID < totals[j].DimensionID
	})
}

// AggregateBy returns the user's answer totals grouped by dim.
func (s *ExamService) AggregateBy(ctx context.Context, userID string, dim domain.Dimension) ([]domain.DimensionTotal, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	if !dim.Valid() {
		return nil, domain.ErrInvalidDimension
	}
	totals, err := s.analytics.AggregateBy(ctx, userID, dim, s.policy.CompletedOnly)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []domain.DimensionTotal{}
	}
	return totals, nil
}

func (s *ExamService) AggregateBySubject(ctx context.Context, userID string) ([]domain.DimensionTotal, error) {
	return s.AggregateBy(ctx, userID, domain.DimensionSubject)
}

func (s *ExamService) AggregateByTopic(ctx context.Context, userID string) ([]domain.DimensionTotal, error) {
	return s.AggregateBy(ctx, userID, domain.DimensionTopic)
}

func (s *ExamService) AggregateBySubtopic(ctx context.Context, userID string) ([]domain.DimensionTotal, error) {
	return s.AggregateBy(ctx, userID, domain.DimensionSubtopic)
}

// Profile aggregates every dimension concurrently.
func (s *ExamService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	profile := domain.Profile{UserID: userID}
	targets := map[domain.Dimension]*[]domain.DimensionTotal{
		domain.DimensionSubject:  &profile.Subjects,
		domain.DimensionTopic:    &profile.Topics,
		domain.DimensionSubtopic: &profile.Subtopics,
	}

	g, gctx := errgroup.WithContext(ctx)
	for dim, dst := range targets {
		dim, dst := dim, dst
		g.Go(func() error {
			totals, err := s.AggregateBy(gctx, userID, dim)
			if err != nil {
				return err
			}
			*dst = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

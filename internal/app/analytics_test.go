package app_test

import (
	"context"
	"testing"

	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

func TestAggregateBySubjectAcrossSubmissions(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.DefaultPolicy())

	first := startExplicit(t, service, "u1", "q1", "q2")
	submit(t, service, first, "q1", "o2") // phy correct
	submit(t, service, first, "q2", "o2") // phy wrong
	second := startExplicit(t, service, "u1", "m1")
	submit(t, service, second, "m1", "o1") // math correct

	other := startExplicit(t, service, "u2", "m2")
	submit(t, service, other, "m2", "o1")

	totals, err := service.AggregateBySubject(ctx, "u1")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := []domain.DimensionTotal{
		{DimensionID: "math", Total: 1, Correct: 1},
		{DimensionID: "phy", Total: 2, Correct: 1},
	}
	if len(totals) != len(want) {
		t.Fatalf("expected %d groups, got %+v", len(want), totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("group %d: expected %+v, got %+v", i, want[i], totals[i])
		}
	}
}

func TestAggregateUnclassifiedAndTotals(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.DefaultPolicy())

	subID := startExplicit(t, service, "u1", "q1", "q2", "c1")
	submit(t, service, subID, "q1", "o2")
	submit(t, service, subID, "q2", "o1")
	submit(t, service, subID, "c1", "o2")

	answered := 3
	for _, dim := range domain.Dimensions() {
		totals, err := service.AggregateBy(ctx, "u1", dim)
		if err != nil {
			t.Fatalf("%s: %v", dim, err)
		}
		sum := 0
		for _, g := range totals {
			if g.Correct > g.Total {
				t.Fatalf("%s: correct exceeds total in %+v", dim, g)
			}
			sum += g.Total
		}
		if sum != answered {
			t.Fatalf("%s: expected totals to sum to %d, got %d", dim, answered, sum)
		}
	}

	topics, _ := service.AggregateByTopic(ctx, "u1")
	last := topics[len(topics)-1]
	if !last.Unclassified || last.DimensionID != "" || last.Total != 1 {
		t.Fatalf("expected trailing unclassified topic group, got %+v", topics)
	}

	subtopics, _ := service.AggregateBySubtopic(ctx, "u1")
	if len(subtopics) != 2 || subtopics[0].DimensionID != "friction" || subtopics[1].Total != 2 {
		t.Fatalf("unexpected subtopic groups %+v", subtopics)
	}
}

func TestAggregateCompletedOnly(t *testing.T) {
	ctx := context.Background()
	policy := app.DefaultPolicy()
	policy.CompletedOnly = true
	service := newTestService(policy)

	open := startExplicit(t, service, "u1", "q1")
	submit(t, service, open, "q1", "o2")
	done := startExplicit(t, service, "u1", "m1")
	submit(t, service, done, "m1", "o1")
	if _, err := service.FinalizeSubmission(ctx, done); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	totals, _ := service.AggregateBySubject(ctx, "u1")
	if len(totals) != 1 || totals[0].DimensionID != "math" {
		t.Fatalf("expected only finalized math answers, got %+v", totals)
	}
}

func TestAggregateEdgeCases(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.DefaultPolicy())

	totals, err := service.AggregateBySubject(ctx, "nobody")
	if err != nil || totals == nil || len(totals) != 0 {
		t.Fatalf("expected empty non-nil totals, got %#v %v", totals, err)
	}
	if _, err := service.AggregateBy(ctx, "u1", domain.Dimension(42)); err != domain.ErrInvalidDimension {
		t.Fatalf("expected invalid dimension, got %v", err)
	}
	if _, err := service.AggregateBy(ctx, "", domain.DimensionSubject); err != domain.ErrMissingUser {
		t.Fatalf("expected missing user, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.DefaultPolicy())
	subID := startExplicit(t, service, "u1", "q1", "m1")
	submit(t, service, subID, "q1", "o2")
	submit(t, service, subID, "m1", "o2")

	profile, err := service.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.UserID != "u1" || len(profile.Subjects) != 2 || len(profile.Topics) != 2 || len(profile.Subtopics) != 2 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestTallyByDimension(t *testing.T) {
	answers := []app.AnsweredQuestion{
		{Question: domain.Question{ID: "1", SubjectID: "b"}, IsCorrect: true},
		{Question: domain.Question{ID: "2"}, IsCorrect: true},
		{Question: domain.Question{ID: "3", SubjectID: "a"}},
		{Question: domain.Question{ID: "4", SubjectID: "b"}},
	}
	totals := app.TallyByDimension(domain.DimensionSubject, answers)
	if len(totals) != 3 {
		t.Fatalf("expected 3 groups, got %+v", totals)
	}
	if totals[0].DimensionID != "a" || totals[1].DimensionID != "b" || !totals[2].Unclassified {
		t.Fatalf("unexpected order %+v", totals)
	}
	if totals[1].Total != 2 || totals[1].Correct != 1 {
		t.Fatalf("unexpected b group %+v", totals[1])
	}
}

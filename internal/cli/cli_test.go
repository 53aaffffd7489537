package cli

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"jee-exam-service/internal/config"
	"jee-exam-service/internal/domain"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"start", "migrate", "finalize-expired"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("expected %s command, got %v %v", name, cmd, err)
		}
	}
}

func TestBuildComponentsInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{}
	cfg.Exam.MaxAttempts = 1
	cfg.Exam.AnswerScope = "paper"

	deps, err := buildComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer deps.Close()

	paper, err := deps.service.CreatePaper(ctx, domain.Paper{Title: "Science", SubjectIDs: []string{"physics", "chemistry"}})
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	started, err := deps.service.StartSubmission(ctx, "u1", paper.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(started.QuestionIDs) != 2 {
		t.Fatalf("expected two sample questions, got %v", started.QuestionIDs)
	}
	if _, err := deps.service.StartSubmission(ctx, "u1", paper.ID); err != domain.ErrAttemptNotAllowed {
		t.Fatalf("expected attempt limit, got %v", err)
	}

	choice := "a"
	if _, err := deps.service.SubmitAnswer(ctx, started.SubmissionID, "math-001", &choice); err != domain.ErrQuestionNotInPaper {
		t.Fatalf("expected paper scope to apply, got %v", err)
	}
}

func TestBuildComponentsRejectsPolicy(t *testing.T) {
	cfg := config.Config{}
	cfg.Exam.FinalizePolicy = "twice"
	if _, err := buildComponents(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected policy error")
	}
}

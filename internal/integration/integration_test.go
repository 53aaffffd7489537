package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
	"jee-exam-service/internal/infra/postgres"
	pgmigrations "jee-exam-service/internal/infra/postgres/migrations"
	infraredis "jee-exam-service/internal/infra/redis"
)

type stack struct {
	service   *app.ExamService
	deadlines *infraredis.DeadlineRegistry
}

func TestExamFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	paper, err := s.service.CreatePaper(ctx, domain.Paper{Title: "Physics drill", SubjectIDs: []string{"phy"}})
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	started, err := s.service.StartSubmission(ctx, "u1", paper.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(started.QuestionIDs) != 2 || started.QuestionIDs[0] != "q1" || started.QuestionIDs[1] != "q2" {
		t.Fatalf("expected [q1 q2], got %v", started.QuestionIDs)
	}

	correct, wrong := "o2", "o1"
	if _, err := s.service.SubmitAnswer(ctx, started.SubmissionID, "q1", &wrong); err != nil {
		t.Fatalf("answer q1: %v", err)
	}
	if _, err := s.service.SubmitAnswer(ctx, started.SubmissionID, "q1", &correct); err != nil {
		t.Fatalf("re-answer q1: %v", err)
	}
	if _, err := s.service.SubmitAnswer(ctx, started.SubmissionID, "q2", &correct); err != nil {
		t.Fatalf("answer q2: %v", err)
	}

	sub, err := s.service.FinalizeSubmission(ctx, started.SubmissionID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if sub.CorrectCount != 1 || sub.ScorePercent == nil || *sub.ScorePercent != 50 {
		t.Fatalf("expected 1 correct and 50%%, got %+v", sub)
	}

	if _, err := s.service.SubmitAnswer(ctx, started.SubmissionID, "q2", &wrong); err != domain.ErrSubmissionFinalized {
		t.Fatalf("expected finalized error, got %v", err)
	}

	again, err := s.service.FinalizeSubmission(ctx, started.SubmissionID)
	if err != nil {
		t.Fatalf("finalize again: %v", err)
	}
	if !again.SubmittedAt.Equal(*sub.SubmittedAt) {
		t.Fatalf("expected idempotent finalize, submittedAt moved from %v to %v", sub.SubmittedAt, again.SubmittedAt)
	}

	totals, err := s.service.AggregateByTopic(ctx, "u1")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(totals) != 2 || totals[0].DimensionID != "mechanics" || totals[0].Correct != 1 || !totals[1].Unclassified {
		t.Fatalf("unexpected topic totals %+v", totals)
	}
}

func TestConcurrentAnswersAndFinalize(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	paper, err := s.service.CreatePaper(ctx, domain.Paper{Title: "Race", QuestionIDs: []string{"q1", "q2", "q3"}})
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	started, err := s.service.StartSubmission(ctx, "u1", paper.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := fmt.Sprintf("o%d", i%2+1)
			_, _ = s.service.SubmitAnswer(ctx, started.SubmissionID, "q1", &option)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.service.FinalizeSubmission(ctx, started.SubmissionID)
	}()
	wg.Wait()

	sub, err := s.service.FinalizeSubmission(ctx, started.SubmissionID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	answers, err := s.service.ListAnswers(ctx, started.SubmissionID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) > 1 {
		t.Fatalf("expected at most one answer row for q1, got %d", len(answers))
	}
	// the frozen score must match the stored answers: nothing landed after finalize
	stored := 0
	for _, a := range answers {
		if a.IsCorrect {
			stored++
		}
	}
	if sub.CorrectCount != stored {
		t.Fatalf("score %d does not match stored answers %d", sub.CorrectCount, stored)
	}
}

func TestExpiredSubmissionsAreSwept(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	limit := 30
	paper, err := s.service.CreatePaper(ctx, domain.Paper{Title: "Timed", QuestionIDs: []string{"q1"}, TimeLimitMin: &limit})
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	started, err := s.service.StartSubmission(ctx, "u1", paper.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	sweeper := app.NewExpirySweeper(s.service, s.deadlines, 10, nil).
		WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	n, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one expired submission, got %d", n)
	}
	sub, err := s.service.GetSubmission(ctx, started.SubmissionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !sub.IsFinalized() || *sub.ScorePercent != 0 {
		t.Fatalf("expected finalized with 0%%, got %+v", sub)
	}
	if due, _ := s.deadlines.Due(ctx, time.Now().Add(time.Hour), 10); len(due) != 0 {
		t.Fatalf("expected deadline removed, got %v", due)
	}
}

func newStack(t *testing.T, ctx context.Context) stack {
	t.Helper()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db := migrateAndSeed(t, ctx, pgURL, sampleQuestions())
	t.Cleanup(func() { _ = db.Close() })

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	catalog := infraredis.NewQuestionCache(redisClient, postgres.NewQuestionReader(pool), 5*time.Minute)
	deadlines := infraredis.NewDeadlineRegistry(redisClient)
	service := app.NewExamService(
		postgres.NewPaperStore(db),
		postgres.NewSubmissionStore(db),
		postgres.NewAnalyticsStore(db),
		catalog,
		app.DefaultPolicy(),
		nil,
	).WithDeadlines(deadlines)

	return stack{service: service, deadlines: deadlines}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "exam", "POSTGRES_PASSWORD": "exampass", "POSTGRES_DB": "examdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://exam:exampass@%s:%s/examdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// migrateAndSeed applies migrations and fills the externally owned questions table.
func migrateAndSeed(t *testing.T, ctx context.Context, dsn string, questions []domain.Question) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			t.Fatalf("marshal options: %v", err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO questions (id, subject_id, topic_id, subtopic_id, options)
			 VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?::jsonb)
			 ON CONFLICT (id) DO UPDATE SET options = EXCLUDED.options`,
			q.ID, q.SubjectID, q.TopicID, q.SubtopicID, string(options))
		if err != nil {
			t.Fatalf("insert question %s: %v", q.ID, err)
		}
	}
	return db
}

func sampleQuestions() []domain.Question {
	options := []domain.Option{
		{ID: "o1", Text: "wrong", IsCorrect: false},
		{ID: "o2", Text: "right", IsCorrect: true},
	}
	return []domain.Question{
		{ID: "q1", SubjectID: "phy", TopicID: "mechanics", Options: options},
		{ID: "q2", SubjectID: "phy", Options: []domain.Option{
			{ID: "o1", Text: "right", IsCorrect: true},
			{ID: "o2", Text: "wrong", IsCorrect: false},
		}},
		{ID: "q3", SubjectID: "chem", TopicID: "organic", Options: options},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/config"
	"jee-exam-service/internal/domain"
	"jee-exam-service/internal/infra/memory"
	"jee-exam-service/internal/infra/postgres"
	infraredis "jee-exam-service/internal/infra/redis"
	"jee-exam-service/internal/logging"
	"jee-exam-service/internal/metrics"
)

// components is the wired engine plus the resources to release on exit.
type components struct {
	service   *app.ExamService
	deadlines app.DeadlineRegistry
	metrics   *metrics.Registry
	closers   []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func loadConfigAndLogger(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func openBunDB(url string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// buildComponents picks Postgres/Redis adapters when configured and
// in-memory ones otherwise.
func buildComponents(ctx context.Context, cfg config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	policy, err := app.ParsePolicy(cfg.Exam.DefaultLimit, cfg.Exam.AnswerScope, cfg.Exam.FinalizePolicy, cfg.Exam.AnalyticsCompletedOnly)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = redisClient.Close() })
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	var (
		papers      app.PaperRepository
		submissions app.SubmissionRepository
		analytics   app.AnalyticsRepository
		loader      app.QuestionCatalog
		catalog     app.QuestionCatalog
	)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect question catalog: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		db := openBunDB(cfg.Postgres.URL)
		c.closers = append(c.closers, func() { _ = db.Close() })

		loader = postgres.NewQuestionReader(pool)
		papers = postgres.NewPaperStore(db)
		submissions = postgres.NewSubmissionStore(db)
		analytics = postgres.NewAnalyticsStore(db)
	} else {
		logger.Warn("postgres not configured, using in-memory stores and sample questions")
		loader = memory.NewStaticCatalog(sampleQuestions()...)
	}

	if redisClient != nil {
		catalog = infraredis.NewQuestionCache(redisClient, loader, catalogTTL)
		c.deadlines = infraredis.NewDeadlineRegistry(redisClient)
	} else {
		catalog = memory.NewCachedCatalog(loader, catalogTTL)
		c.deadlines = memory.NewDeadlineRegistry()
	}

	if submissions == nil {
		store := memory.NewSubmissionStore()
		papers = memory.NewPaperStore()
		submissions = store
		analytics = memory.NewAnalytics(store, catalog)
	}

	if cfg.Server.Metrics {
		c.metrics = metrics.New()
	}

	c.service = app.NewExamService(papers, submissions, analytics, catalog, policy, logger).
		WithDeadlines(c.deadlines).
		WithRecorder(c.metrics)
	if cfg.Exam.MaxAttempts > 0 {
		if redisClient != nil {
			window := config.TTLDuration(cfg.Exam.AttemptWindow, 0)
			c.service.WithGate(infraredis.NewAttemptLimiter(redisClient, cfg.Exam.MaxAttempts, window))
		} else {
			c.service.WithGate(memory.NewAttemptLimiter(cfg.Exam.MaxAttempts))
		}
	}
	return c, nil
}

// sampleQuestions seeds the in-memory catalog; production reads the questions table.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:        "phy-001",
			SubjectID: "physics",
			TopicID:   "kinematics",
			Options: []domain.Option{
				{ID: "a", Text: "2 m/s", IsCorrect: false},
				{ID: "b", Text: "4 m/s", IsCorrect: true},
				{ID: "c", Text: "8 m/s", IsCorrect: false},
			},
		},
		{
			ID:         "chem-001",
			SubjectID:  "chemistry",
			TopicID:    "organic",
			SubtopicID: "alkanes",
			Options: []domain.Option{
				{ID: "a", Text: "CH4", IsCorrect: true},
				{ID: "b", Text: "C2H4", IsCorrect: false},
			},
		},
		{
			ID:        "math-001",
			SubjectID: "mathematics",
			Options: []domain.Option{
				{ID: "a", Text: "1", IsCorrect: false},
				{ID: "b", Text: "0", IsCorrect: true},
			},
		},
	}
}

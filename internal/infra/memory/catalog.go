package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// StaticCatalog is a question catalog backed by an in-memory map (useful for tests/demos).
// Question ids are listed in ascending id order.
type StaticCatalog struct {
	questions map[string]domain.Question
	order     []string
}

func NewStaticCatalog(questions ...domain.Question) *StaticCatalog {
	c := &StaticCatalog{questions: make(map[string]domain.Question, len(questions))}
	for _, q := range questions {
		c.questions[q.ID] = q
	}
	c.order = make([]string, 0, len(c.questions))
	for id := range c.questions {
		c.order = append(c.order, id)
	}
	sort.Strings(c.order)
	return c
}

func (c *StaticCatalog) GetQuestion(_ context.Context, questionID string) (domain.Question, error) {
	if q, ok := c.questions[questionID]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (c *StaticCatalog) FindQuestionIDs(_ context.Context, filter domain.QuestionFilter, limit int) ([]string, error) {
	ids := make([]string, 0)
	for _, id := range c.order {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if filter.Matches(c.questions[id]) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CachedCatalog caches questions with TTL to avoid repeated catalog hits.
// Filter lookups always go to the underlying catalog.
type CachedCatalog struct {
	loader app.QuestionCatalog
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

func NewCachedCatalog(loader app.QuestionCatalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (c *CachedCatalog) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if q, ok := c.lookup(questionID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		if q, ok := c.lookup(questionID); ok {
			return q, nil
		}

		q, err := c.loader.GetQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		c.mu.Lock()
		c.cache[questionID] = cachedQuestion{
			question:  q,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *CachedCatalog) FindQuestionIDs(ctx context.Context, filter domain.QuestionFilter, limit int) ([]string, error) {
	return c.loader.FindQuestionIDs(ctx, filter, limit)
}

func (c *CachedCatalog) lookup(questionID string) (domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[questionID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

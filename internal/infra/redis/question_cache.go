package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// QuestionCache caches catalog questions in Redis (hash per question) and falls back to a loader on cache miss.
// Questions are stored as: HSET exam:question:{questionID} subject {id} topic {id} subtopic {id} options {json}
type QuestionCache struct {
	client *redis.Client
	loader app.QuestionCatalog
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionCache(client *redis.Client, loader app.QuestionCatalog, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	key := questionKey(questionID)
	if q, ok := c.lookup(ctx, key, questionID); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.lookup(ctx, key, questionID); ok {
			return q, nil
		}

		q, err := c.loader.GetQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}

		options, err := json.Marshal(q.Options)
		if err != nil {
			return domain.Question{}, fmt.Errorf("encode options: %w", err)
		}
		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"subject", q.SubjectID,
			"topic", q.TopicID,
			"subtopic", q.SubtopicID,
			"options", string(options))
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// FindQuestionIDs is not cached; filter results depend on the whole catalog.
func (c *QuestionCache) FindQuestionIDs(ctx context.Context, filter domain.QuestionFilter, limit int) ([]string, error) {
	return c.loader.FindQuestionIDs(ctx, filter, limit)
}

func (c *QuestionCache) lookup(ctx context.Context, key, questionID string) (domain.Question, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return domain.Question{}, false
	}
	return buildQuestionFromCache(questionID, fields)
}

func buildQuestionFromCache(questionID string, fields map[string]string) (domain.Question, bool) {
	raw, ok := fields["options"]
	if !ok {
		return domain.Question{}, false
	}
	var options []domain.Option
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return domain.Question{}, false
	}
	return domain.Question{
		ID:         questionID,
		SubjectID:  fields["subject"],
		TopicID:    fields["topic"],
		SubtopicID: fields["subtopic"],
		Options:    options,
	}, true
}

func questionKey(questionID string) string {
	return "exam:question:" + questionID
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

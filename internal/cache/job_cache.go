package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doersapp/doers-backend/internal/models"
)

const (
	jobKeyPrefix     = "jobs:"
	jobListKeyPrefix = "jobs:list:"
	defaultTTL       = 2 * time.Minute
)

// JobCache хранит задания и страницы ленты в Redis.
// Промах и недоступность Redis возвращаются одинаково как ErrCacheMiss:
// вызывающий код в обоих случаях идёт в базу.
type JobCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// ErrCacheMiss возвращается, когда ключа нет или Redis недоступен.
var ErrCacheMiss = errors.New("cache miss")

// NewJobCache создаёт кэш поверх существующего клиента Redis.
func NewJobCache(rdb *redis.Client) *JobCache {
	return &JobCache{rdb: rdb, ttl: defaultTTL}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func listKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", jobListKeyPrefix, limit, offset)
}

// GetJob читает задание из кэша.
func (c *JobCache) GetJob(ctx context.Context, id string) (*models.Job, error) {
	raw, err := c.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, ErrCacheMiss
	}
	return &job, nil
}

// SetJob кладёт задание в кэш с настроенным TTL.
func (c *JobCache) SetJob(ctx context.Context, job *models.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("job cache: marshal %w", err)
	}
	return c.rdb.Set(ctx, jobKey(job.ID.String()), raw, c.ttl).Err()
}

// GetOpenList читает страницу открытых заданий из кэша.
func (c *JobCache) GetOpenList(ctx context.Context, limit, offset int) ([]models.Job, error) {
	raw, err := c.rdb.Get(ctx, listKey(limit, offset)).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var jobs []models.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, ErrCacheMiss
	}
	return jobs, nil
}

// SetOpenList кладёт страницу открытых заданий в кэш.
func (c *JobCache) SetOpenList(ctx context.Context, limit, offset int, jobs []models.Job) error {
	raw, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("job cache: marshal list %w", err)
	}
	return c.rdb.Set(ctx, listKey(limit, offset), raw, c.ttl).Err()
}

// InvalidateJob сбрасывает задание и все закэшированные страницы ленты.
// Страницы ищутся через SCAN: размер страницы у клиентов разный,
// перечислить ключи заранее нельзя.
func (c *JobCache) InvalidateJob(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, jobKey(id)).Err(); err != nil {
		return fmt.Errorf("job cache: invalidate %w", err)
	}
	return c.invalidatePattern(ctx, jobListKeyPrefix+"*")
}

func (c *JobCache) invalidatePattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("job cache: scan %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("job cache: del %w", err)
	}
	return nil
}

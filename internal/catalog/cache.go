// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"school-match-workers/internal/common/database"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/models"
)

const (
	KeyPrefix       = "catalog:"
	DefaultCacheTTL = 24 * time.Hour
)

// CachedProvider serves catalog reads from Redis and falls through to the
// wrapped provider on a miss. Redis failures never fail a read.
type CachedProvider struct {
	inner  Provider
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func schoolsKey(countries []string) string {
	norm := make([]string, 0, len(countries))
	for _, c := range countries {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			norm = append(norm, c)
		}
	}
	if len(norm) == 0 {
		return KeyPrefix + "schools:*"
	}
	sort.Strings(norm)
	return KeyPrefix + "schools:" + strings.Join(norm, "|")
}

func programsKey(schoolID string) string { return KeyPrefix + "programs:" + schoolID }
func schoolKey(id string) string         { return KeyPrefix + "school:" + id }
func programKey(id string) string        { return KeyPrefix + "program:" + id }

func (c *CachedProvider) Schools(ctx context.Context, countries []string) ([]models.School, error) {
	key := schoolsKey(countries)

	var cached []models.School
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	schools, err := c.inner.Schools(ctx, countries)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, schools)
	return schools, nil
}

// Programs looks up each school's program list individually so overlapping
// queries share cache entries.
func (c *CachedProvider) Programs(ctx context.Context, schoolIDs []string) ([]models.Program, error) {
	if len(schoolIDs) == 0 {
		return []models.Program{}, nil
	}

	keys := make([]string, len(schoolIDs))
	for i, id := range schoolIDs {
		keys[i] = programsKey(id)
	}

	bySchool := make(map[string][]models.Program, len(schoolIDs))
	var missing []string

	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{"op": "mget", "error": err.Error()})
		missing = schoolIDs
	} else {
		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				missing = append(missing, schoolIDs[i])
				continue
			}
			var programs []models.Program
			if err := json.Unmarshal([]byte(raw), &programs); err != nil {
				missing = append(missing, schoolIDs[i])
				continue
			}
			bySchool[schoolIDs[i]] = programs
		}
	}

	if len(missing) > 0 {
		fetched, err := c.inner.Programs(ctx, missing)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string][]models.Program, len(missing))
		for _, id := range missing {
			fresh[id] = []models.Program{}
		}
		for _, p := range fetched {
			fresh[p.SchoolID] = append(fresh[p.SchoolID], p)
		}

		pipe := c.redis.Pipeline()
		for id, programs := range fresh {
			bySchool[id] = programs
			if data, err := json.Marshal(programs); err == nil {
				pipe.Set(ctx, programsKey(id), data, c.ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{"op": "pipeline", "error": err.Error()})
		}
	}

	out := []models.Program{}
	for _, id := range schoolIDs {
		out = append(out, bySchool[id]...)
	}
	return out, nil
}

func (c *CachedProvider) School(ctx context.Context, id string) (*models.School, error) {
	var cached models.School
	if c.get(ctx, schoolKey(id), &cached) {
		return &cached, nil
	}
	school, err := c.inner.School(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, schoolKey(id), school)
	return school, nil
}

func (c *CachedProvider) Program(ctx context.Context, id string) (*models.Program, error) {
	var cached models.Program
	if c.get(ctx, programKey(id), &cached) {
		return &cached, nil
	}
	program, err := c.inner.Program(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, programKey(id), program)
	return program, nil
}

// Clear drops every catalog entry.
func (c *CachedProvider) Clear(ctx context.Context) (int64, error) {
	rc := &database.RedisClient{Client: c.redis}
	return rc.DeleteByPattern(ctx, KeyPrefix+"*")
}

func (c *CachedProvider) get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (c *CachedProvider) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// internal/plans/store.go

// Package plans persists quick-match plans in Redis so that results can be
// locked and shared after the matching job has completed.
package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/models"
)

const (
	KeyPrefix      = "plan:"
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultNameFmt = "智选方案 2006-01-02"

	maxTxRetries = 3
)

var (
	ErrNotFound        = errors.New("plan not found")
	ErrIndexOutOfRange = errors.New("plan result index out of range")
	ErrConflict        = errors.New("plan modified concurrently")
)

// IndexError reports a result index outside the plan. It matches
// ErrIndexOutOfRange.
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: %d of %d", ErrIndexOutOfRange, e.Index, e.Size)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// New assembles a plan with a fresh id. An empty name becomes the dated default.
func New(name string, strategy models.MatchStrategy, criteria models.UserCriteria, results []models.QuickMatchResult, now time.Time) *models.QuickMatchPlan {
	if name == "" {
		name = now.Format(DefaultNameFmt)
	}
	if results == nil {
		results = []models.QuickMatchResult{}
	}
	return &models.QuickMatchPlan{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		Strategy:  strategy,
		Criteria:  criteria,
		Results:   results,
	}
}

type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "plan-store"}),
	}
}

func key(id string) string { return KeyPrefix + id }

func (s *Store) Save(ctx context.Context, plan *models.QuickMatchPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := s.redis.Set(ctx, key(plan.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	s.logger.Debug("plan saved", map[string]interface{}{"planId": plan.ID, "results": len(plan.Results)})
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.QuickMatchPlan, error) {
	data, err := s.redis.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}

	var plan models.QuickMatchPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &plan, nil
}

// SetLocked sets the Locked flag of one result, or toggles it when locked is
// nil. The update runs under WATCH and keeps the plan's remaining TTL.
func (s *Store) SetLocked(ctx context.Context, id string, index int, locked *bool) (*models.QuickMatchResult, error) {
	k := key(id)
	var updated models.QuickMatchResult

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}

		var plan models.QuickMatchPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return fmt.Errorf("decode plan %s: %w", id, err)
		}
		if index < 0 || index >= len(plan.Results) {
			return &IndexError{Index: index, Size: len(plan.Results)}
		}

		r := &plan.Results[index]
		if locked == nil {
			r.Locked = !r.Locked
		} else {
			r.Locked = *locked
		}
		updated = *r

		out, err := json.Marshal(&plan)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("plan result lock updated", map[string]interface{}{
			"planId": id,
			"index":  index,
			"locked": updated.Locked,
		})
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrConflict, id)
}

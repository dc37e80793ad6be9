// internal/common/database/connections.go
package database

import (
	"context"
	"fmt"

	"school-match-workers/internal/common/config"
	"school-match-workers/internal/common/logger"
)

// Connections bundles the stores used by the workers.
type Connections struct {
	Postgres      *PostgresClient
	Redis         *RedisClient
	Elasticsearch *ElasticsearchClient
}

// Connect opens and pings every store. Redis and Elasticsearch are optional:
// a failure there is logged and the field is left nil.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Connections, error) {
	conns := &Connections{}

	pg, err := NewPostgres(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	conns.Postgres = pg
	log.Info("PostgreSQL connected", map[string]interface{}{"host": cfg.Postgres.Host})

	if rc, err := NewRedis(cfg.Redis); err != nil {
		log.Warn("Redis disabled", map[string]interface{}{"error": err.Error()})
	} else if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		log.Warn("Redis unavailable, catalog cache disabled", map[string]interface{}{"error": err.Error()})
	} else {
		conns.Redis = rc
		log.Info("Redis connected", map[string]interface{}{"address": cfg.Redis.Address})
	}

	if es, err := NewElasticsearch(cfg.Elasticsearch); err != nil {
		log.Warn("Elasticsearch disabled", map[string]interface{}{"error": err.Error()})
	} else if err := es.Ping(ctx); err != nil {
		log.Warn("Elasticsearch unavailable, program search disabled", map[string]interface{}{"error": err.Error()})
	} else {
		conns.Elasticsearch = es
		log.Info("Elasticsearch connected", map[string]interface{}{"addresses": cfg.Elasticsearch.Addresses})
	}

	return conns, nil
}

func (c *Connections) Close() error {
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close postgres: %w", err)
		}
	}
	return firstErr
}

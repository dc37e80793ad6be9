// internal/workers/matching/score-program/config.go
package scoreprogram

import (
	"time"

	"school-match-workers/internal/models"
)

type Config struct {
	Timeout         time.Duration
	DefaultStrategy models.MatchStrategy
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         5 * time.Second,
		DefaultStrategy: models.StrategyBalanced,
	}
}

// internal/workers/matching/quick-match/config.go
package quickmatch

import (
	"time"

	"school-match-workers/internal/models"
)

type Config struct {
	Timeout            time.Duration
	SlowMatchThreshold time.Duration
	DefaultStrategy    models.MatchStrategy
	SavePlans          bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            10 * time.Second,
		SlowMatchThreshold: 500 * time.Millisecond,
		DefaultStrategy:    models.StrategyBalanced,
		SavePlans:          true,
	}
}

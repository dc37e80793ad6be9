// internal/workers/catalog/search-programs/config.go
package searchprograms

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		DefaultSize: 20,
	}
}

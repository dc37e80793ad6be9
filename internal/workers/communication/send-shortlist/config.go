// internal/workers/communication/send-shortlist/config.go
package sendshortlist

import (
	"time"

	"school-match-workers/internal/report"
)

type Config struct {
	Timeout       time.Duration
	FromEmail     string
	EmailEnabled  bool
	SMSEnabled    bool
	DefaultReport report.Config
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		EmailEnabled:  true,
		DefaultReport: report.DefaultConfig(),
	}
}

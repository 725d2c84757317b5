package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL        string `env:"RABBITMQ_URL,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	ReminderWebhookURL string `env:"REMINDER_WEBHOOK_URL,required=true"`

	// BusinessTimezone is the single IANA zone all scheduling and
	// overdue decisions use, regardless of client locale.
	BusinessTimezone string `env:"BUSINESS_TZ,default=America/Halifax"`

	RateLimitPerSec         int    `env:"RATE_LIMIT_PER_SEC,default=25"`
	WorkerConcurrency       int    `env:"WORKER_CONCURRENCY,default=8"`
	ReminderScanIntervalSec int    `env:"REMINDER_SCAN_INTERVAL_SEC,default=300"`
	ReminderScanLimit       int    `env:"REMINDER_SCAN_LIMIT,default=100"`
	APIPort                 int    `env:"API_PORT,default=8080"`
	LogLevel                string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

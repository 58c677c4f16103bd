// Package config loads the application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DBConfig holds the database connection settings.
type DBConfig struct {
	Url string `envconfig:"URL"`
}

// RedisConfig holds the redis connection settings for the broadcast queue.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// WithdrawConfig tunes the withdrawal state machine.
type WithdrawConfig struct {
	// AutoApprove fires process immediately after accept for crypto
	// withdrawals, skipping the manual review window.
	AutoApprove   bool   `envconfig:"AUTO_APPROVE" default:"false"`
	DispatchQueue string `envconfig:"DISPATCH_QUEUE" default:"withdraw:coin"`
}

// RateLimitConfig tunes the HTTP rate limiter.
type RateLimitConfig struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Env       string          `envconfig:"APP_ENV" default:"development"`
	Host      string          `envconfig:"APP_HOST" default:"localhost"`
	Port      int             `envconfig:"APP_PORT" default:"3000"`
	DB        DBConfig        `envconfig:"DATABASE"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Withdraw  WithdrawConfig  `envconfig:"WITHDRAW"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
}

// LoadAppConfig reads the optional .env file and then the environment.
func LoadAppConfig(logger *slog.Logger, envFilePath ...string) (*AppConfig, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("no .env file found, using system environment variables")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	logger.Info("app config loaded",
		"env", cfg.Env,
		"port", cfg.Port,
		"withdraw_auto_approve", cfg.Withdraw.AutoApprove,
		"dispatch_queue", cfg.Withdraw.DispatchQueue,
	)
	return &cfg, nil
}

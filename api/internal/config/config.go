package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Port string `env:"PORT,default=8080"`

	AnalyzeBaseURL string        `env:"ANALYZE_BASE_URL,default=http://localhost:4000" validate:"required,url"`
	AnalyzeTimeout time.Duration `env:"ANALYZE_TIMEOUT,default=0s"`

	FormIdleTTL time.Duration `env:"FORM_IDLE_TTL,default=24h"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `env:"WEBHOOK_URL" validate:"omitempty,url"`

	LogLevel string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadBot is Load plus the settings only the Telegram bot needs.
func LoadBot() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := validate.Var(cfg.TelegramBotToken, "required"); err != nil {
		return nil, fmt.Errorf("missing required env TELEGRAM_BOT_TOKEN: %w", err)
	}
	return cfg, nil
}

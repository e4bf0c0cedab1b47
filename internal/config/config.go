package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const groqAPIKeyVar = "GROQ_API_KEY"

type Config struct {
	GroqAPIKey string `env:"GROQ_API_KEY,required,notEmpty"`
	LLMBaseURL string `env:"LLM_BASE_URL"   envDefault:"https://api.groq.com/openai/v1/"`
	LLMModel   string `env:"LLM_MODEL"      envDefault:"llama-3.1-8b-instant"`
	// LLMMaxTokens caps the completion length; 600 words fit comfortably.
	LLMMaxTokens int64 `env:"LLM_MAX_TOKENS" envDefault:"1024"`

	Addr         string        `env:"ADDR"          envDefault:":8501"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	YouTubeLanguages []string `env:"YOUTUBE_LANGUAGES"  envDefault:"en"`
	YouTubeVideoInfo bool     `env:"YOUTUBE_VIDEO_INFO" envDefault:"true"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	TelegramToken string  `env:"TELEGRAM_TOKEN"`
	AllowedUsers  []int64 `env:"ALLOWED_USERS"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.GroqAPIKey = strings.TrimSpace(cfg.GroqAPIKey)
	if cfg.GroqAPIKey == "" {
		return Config{}, fmt.Errorf("parse env: %w", env.EmptyVarError{Key: groqAPIKeyVar})
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	languages := cfg.YouTubeLanguages[:0]
	for _, lang := range cfg.YouTubeLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	cfg.YouTubeLanguages = languages

	return cfg, nil
}

// MissingVar returns the name of a required variable that is unset or empty.
func MissingVar(err error) (string, bool) {
	var notSet env.VarIsNotSetError
	if errors.As(err, &notSet) {
		return notSet.Key, true
	}

	var empty env.EmptyVarError
	if errors.As(err, &empty) {
		return empty.Key, true
	}

	return "", false
}

// TelegramEnabled reports whether the bot frontend should run.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

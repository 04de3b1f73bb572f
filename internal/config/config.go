package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
)

// Provider selection values for LLM_PROVIDER.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderGenAI  = "genai"
	ProviderMock   = "mock"
)

// Config keeps runtime settings for the bot and the planner.
type Config struct {
	TelegramToken string

	LLMProvider string
	LLMEndpoint string
	LLMAPIKey   string
	LLMModel    string
	GenAIAPIKey string
	GenAIModel  string
	LLMTimeout  time.Duration

	StarterLimit          int
	ProLimit              int
	DefaultPlan           model.PlanTier
	RecommendRoundMinutes int

	DigestTime string
	Location   *time.Location
	SessionTTL time.Duration
}

// Load reads configuration from the environment, after an optional .env
// file, with sane defaults.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: env("TELEGRAM_TOKEN", ""),
		LLMProvider:   strings.ToLower(env("LLM_PROVIDER", ProviderAuto)),
		LLMEndpoint:   env("LLM_ENDPOINT", "https://api.openai.com"),
		LLMAPIKey:     env("LLM_API_KEY", ""),
		LLMModel:      env("LLM_MODEL", "gpt-4o-mini"),
		GenAIAPIKey:   env("GENAI_API_KEY", ""),
		GenAIModel:    env("GENAI_MODEL", "gemini-2.0-flash"),
		DigestTime:    env("DIGEST_TIME", "09:00"),
	}

	var err error
	if cfg.LLMTimeout, err = seconds("LLM_TIMEOUT_SECONDS", 25); err != nil {
		return cfg, err
	}
	if cfg.StarterLimit, err = positiveInt("STARTER_DAILY_LIMIT", 5); err != nil {
		return cfg, err
	}
	if cfg.ProLimit, err = positiveInt("PRO_DAILY_LIMIT", 50); err != nil {
		return cfg, err
	}
	if cfg.ProLimit < 50 {
		return cfg, fmt.Errorf("PRO_DAILY_LIMIT must be at least 50, got %d", cfg.ProLimit)
	}
	if cfg.RecommendRoundMinutes, err = positiveInt("RECOMMEND_ROUND_MINUTES", 15); err != nil {
		return cfg, err
	}
	if cfg.DefaultPlan, err = model.ParsePlanTier(env("DEFAULT_PLAN", string(model.PlanStarter))); err != nil {
		return cfg, fmt.Errorf("DEFAULT_PLAN: %w", err)
	}

	ttlHours, err := positiveInt("SESSION_TTL_HOURS", 72)
	if err != nil {
		return cfg, err
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	if cfg.DigestTime != "" {
		if cfg.DigestTime, err = calendar.ParseClock(cfg.DigestTime); err != nil {
			return cfg, fmt.Errorf("DIGEST_TIME: %w", err)
		}
	}

	cfg.Location = time.Local
	if name := env("TZ_NAME", ""); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return cfg, fmt.Errorf("TZ_NAME: %w", err)
		}
		cfg.Location = loc
	}

	switch cfg.LLMProvider {
	case ProviderAuto, ProviderOpenAI, ProviderGenAI, ProviderMock:
	default:
		return cfg, fmt.Errorf("LLM_PROVIDER must be one of auto, openai, genai, mock; got %q", cfg.LLMProvider)
	}

	return cfg, nil
}

// ResolvedProvider picks the provider for "auto": OpenAI when a key is set,
// then GenAI, then the mock.
func (c Config) ResolvedProvider() string {
	if c.LLMProvider != ProviderAuto {
		return c.LLMProvider
	}
	switch {
	case c.LLMAPIKey != "":
		return ProviderOpenAI
	case c.GenAIAPIKey != "":
		return ProviderGenAI
	default:
		return ProviderMock
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func seconds(key string, def int) (time.Duration, error) {
	n, err := positiveInt(key, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

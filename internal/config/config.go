package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Generation modes.
const (
	ModeSections = "sections"
	ModeMessage  = "message"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// LogConfig controls the global zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects and addresses the document store backend.
type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	PostgresURL   string
	SQLitePath    string
}

// LLMConfig holds the generation provider and its fixed decoding parameters.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	TopP        float64
}

// SMTPConfig addresses the outbound mail relay. An empty Host disables SMTP.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port                  string
	Log                   LogConfig
	Store                 StoreConfig
	LLM                   LLMConfig
	SMTP                  SMTPConfig
	ReverseContactAPIKey  string
	ReverseContactBaseURL string
	GenerationMode        string
	PromptVersion         string
	AllowedOrigins        []string
	RateLimitPersonalize  RateLimitConfig
	OTPTTL                time.Duration
	HTTPTimeout           time.Duration
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			MongoURI:      os.Getenv("MONGODB_URI"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "myDB"),
			PostgresURL:   os.Getenv("DATABASE_URL"),
			SQLitePath:    os.Getenv("SQLITE_PATH"),
		},
		ReverseContactAPIKey:  os.Getenv("REVERSECONTACT_API_KEY"),
		ReverseContactBaseURL: getEnv("REVERSECONTACT_BASE_URL", "https://api.reversecontact.com"),
		GenerationMode:        strings.ToLower(getEnv("GENERATION_MODE", ModeSections)),
		PromptVersion:         strings.ToLower(getEnv("PROMPT_VERSION", "v2")),
		AllowedOrigins:        parseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		OTPTTL:                parseDuration(getEnv("OTP_TTL", "5m"), 5*time.Minute),
		HTTPTimeout:           parseDuration(getEnv("HTTP_TIMEOUT", "60s"), 60*time.Second),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "Chhuma <no-reply@chhuma.com>"),
		},
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("invalid SMTP_PORT value: %q", os.Getenv("SMTP_PORT"))
	}
	cfg.SMTP.Port = port

	if err := validateStore(cfg.Store); err != nil {
		return nil, err
	}

	llmCfg, err := loadLLM()
	if err != nil {
		return nil, err
	}
	cfg.LLM = llmCfg

	switch cfg.GenerationMode {
	case ModeSections, ModeMessage:
	default:
		return nil, fmt.Errorf("unsupported GENERATION_MODE: %s", cfg.GenerationMode)
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_PERSONALIZE", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PERSONALIZE value: %w", err)
	}
	cfg.RateLimitPersonalize = rl

	return cfg, nil
}

func validateStore(s StoreConfig) error {
	switch s.Driver {
	case DriverMongo:
		if s.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for store driver %q", s.Driver)
		}
	case DriverPostgres:
		if s.PostgresURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", s.Driver)
		}
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for store driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", s.Driver)
	}
	return nil
}

func loadLLM() (LLMConfig, error) {
	cfg := LLMConfig{
		Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}

	var keyEnv, model string
	switch cfg.Provider {
	case ProviderOpenAI:
		keyEnv, model = "OPENAI_API_KEY", "gpt-4o"
	case ProviderAnthropic:
		keyEnv, model = "ANTHROPIC_API_KEY", "claude-sonnet-4-5-20250929"
	case ProviderGemini:
		keyEnv, model = "GEMINI_API_KEY", "gemini-2.5-flash"
	default:
		return LLMConfig{}, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.Provider)
	}
	cfg.APIKey = getEnv("LLM_API_KEY", os.Getenv(keyEnv))
	cfg.Model = getEnv("LLM_MODEL", model)

	var err error
	if cfg.Temperature, err = parseFloat("LLM_TEMPERATURE", 1); err != nil {
		return LLMConfig{}, err
	}
	if cfg.TopP, err = parseFloat("LLM_TOP_P", 1); err != nil {
		return LLMConfig{}, err
	}
	maxTokens, err := strconv.ParseInt(getEnv("LLM_MAX_TOKENS", "2048"), 10, 64)
	if err != nil || maxTokens <= 0 {
		return LLMConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value: %q", os.Getenv("LLM_MAX_TOKENS"))
	}
	cfg.MaxTokens = maxTokens

	return cfg, nil
}

// InitLogger installs the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return v, nil
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

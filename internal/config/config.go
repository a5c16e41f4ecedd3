package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vilin97/TelegramAIbot/internal/chat"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage. Postgres when DatabaseURL is set, SQLite otherwise.
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// Completion service
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Models. SummaryModel must be materially cheaper than the default
	// conversational model; it runs on every turn with overflow.
	SummaryModel string
	RewordModel  string

	// Per-chat setting defaults
	DefaultModel    string
	DefaultHistory  int
	DefaultLanguage string

	// Bot identity recorded on assistant messages
	BotID   string
	BotName string

	// Transport
	PromptsDir     string
	AdminTokenHash string // bcrypt hash of the admin bearer token
	TurnRateLimit  int    // turns per chat per window, 0 disables
	TurnRateWindow time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/bot.db"),
		RedisURL:        os.Getenv("REDIS_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		SummaryModel:    getEnv("SUMMARY_MODEL", "gpt-4o-mini"), // ~30x cheaper than gpt-4o
		RewordModel:     getEnv("REWORD_MODEL", "gpt-4o"),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o"),
		DefaultHistory:  getEnvInt("DEFAULT_HISTORY", 30),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "Russian"),
		BotID:           getEnv("BOT_ID", "bot"),
		BotName:         getEnv("BOT_NAME", "Kompukter"),
		PromptsDir:      getEnv("PROMPTS_DIR", "prompts"),
		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		TurnRateLimit:   getEnvInt("TURN_RATE_LIMIT", 20),
		TurnRateWindow:  getEnvDuration("TURN_RATE_WINDOW", time.Minute),
	}

	// In production, require the completion key and admin token hash
	if cfg.Env == "production" {
		if cfg.OpenAIAPIKey == "" {
			panic("OPENAI_API_KEY is required in production")
		}
		if cfg.AdminTokenHash == "" {
			panic("ADMIN_TOKEN_HASH is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Defaults builds the process-wide per-chat setting defaults map. Every
// recognized setting name must have an entry here; absence of a default
// for a name handed to the settings store is a fatal programming error.
func (c *Config) Defaults() map[string]string {
	return map[string]string{
		chat.SettingHistory:  strconv.Itoa(c.DefaultHistory),
		chat.SettingModel:    c.DefaultModel,
		chat.SettingLanguage: c.DefaultLanguage,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

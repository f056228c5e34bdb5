// Package config loads the assistant configuration from the environment,
// with optional .env support for local development.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

// Config is the full assistant configuration.
type Config struct {
	// RequiredFields must be gathered before any query runs.
	RequiredFields []string

	// MaxFetchRetries bounds data source fetch attempts.
	MaxFetchRetries int

	// MaxProcessRetries bounds theme classification attempts.
	MaxProcessRetries int

	// ReportsURL is the analytics reports endpoint.
	ReportsURL string

	// ReportsToken authenticates against the reports endpoint.
	ReportsToken string

	// OpenAIKey enables the OpenAI embedder and refiner when set.
	OpenAIKey string

	// AnthropicKey enables the Claude classifier when set.
	AnthropicKey string

	// GeminiKey enables the Gemini classifier when set.
	GeminiKey string

	// EmbeddingModel is the embedding model used for the filter catalog.
	EmbeddingModel string

	// RefinerModel is the chat model used for query refinement.
	RefinerModel string

	// ClassifierModel is the model used for theme classification.
	ClassifierModel string

	Redis    RedisConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in first when present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		RequiredFields:    envList("INSIGHTS_REQUIRED_FIELDS", []string{state.FieldProducts, state.FieldChannels, state.FieldGoals, state.FieldTimePeriod}),
		MaxFetchRetries:   envInt("INSIGHTS_MAX_FETCH_RETRIES", 3),
		MaxProcessRetries: envInt("INSIGHTS_MAX_PROCESS_RETRIES", 2),
		ReportsURL:        envStr("INSIGHTS_REPORTS_URL", ""),
		ReportsToken:      envStr("INSIGHTS_REPORTS_TOKEN", ""),
		OpenAIKey:         envStr("OPENAI_API_KEY", ""),
		AnthropicKey:      envStr("ANTHROPIC_API_KEY", ""),
		GeminiKey:         envStr("GEMINI_API_KEY", ""),
		EmbeddingModel:    envStr("INSIGHTS_EMBEDDING_MODEL", "text-embedding-3-small"),
		RefinerModel:      envStr("INSIGHTS_REFINER_MODEL", "gpt-4o-mini"),
		ClassifierModel:   envStr("INSIGHTS_CLASSIFIER_MODEL", "gemini-2.0-flash"),
		Redis: RedisConfig{
			Addr:     envStr("INSIGHTS_REDIS_ADDR", "localhost:6379"),
			Password: envStr("INSIGHTS_REDIS_PASSWORD", ""),
			DB:       envInt("INSIGHTS_REDIS_DB", 0),
		},
		Mongo: MongoConfig{
			URI:        envStr("INSIGHTS_MONGO_URI", "mongodb://localhost:27017"),
			Database:   envStr("INSIGHTS_MONGO_DATABASE", "insights"),
			Collection: envStr("INSIGHTS_MONGO_COLLECTION", "conversations"),
		},
		Postgres: PostgresConfig{
			Host:     envStr("INSIGHTS_PG_HOST", "localhost"),
			Port:     envInt("INSIGHTS_PG_PORT", 5432),
			User:     envStr("INSIGHTS_PG_USER", "postgres"),
			Password: envStr("INSIGHTS_PG_PASSWORD", ""),
			DBName:   envStr("INSIGHTS_PG_DBNAME", "insights"),
			SSLMode:  envStr("INSIGHTS_PG_SSLMODE", "disable"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. Connection
// settings for backends the deployment does not use are not validated here;
// the backend constructors fail on their own.
func (c *Config) Validate() error {
	v := NewValidator()
	v.RequirePositive("maxFetchRetries", c.MaxFetchRetries)
	v.RequirePositive("maxProcessRetries", c.MaxProcessRetries)
	if len(c.RequiredFields) == 0 {
		v.RequireNonEmpty("requiredFields", "")
	}
	for _, f := range c.RequiredFields {
		v.ValidateOneOf("requiredFields", f, state.AllFields...)
	}
	if c.ReportsURL != "" {
		v.RequireURL("reportsURL", c.ReportsURL)
	}
	v.ValidateDBNumber("redis.db", c.Redis.DB)
	return v.Error()
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Conversation ConversationConfig
	Ai           AIConfig
	Schema       SchemaConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event publishing
	RedisURL           string
	HistoryTopic       string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Kind       string // "mysql", "postgresql" or "sqlite"
	Connection string // DSN, or a file path for sqlite
	HistoryDSN string // postgres DSN for the audit table; empty keeps it in memory
}

type ConversationConfig struct {
	HistoryCapacity int
	SessionTimeout  time.Duration
	SnapshotBackend string // "file", "redis" or "none"
	SnapshotPath    string
	SnapshotKey     string
	SnapshotTTL     time.Duration
}

type AIConfig struct {
	LLMProvider   string // "ollama", "openai" or "deepseek"
	LLMModel      string
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	Temperature   float64
	Timeout       time.Duration
}

type SchemaConfig struct {
	FilePath       string
	CanonicalTable string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			HistoryTopic:       getEnv("HISTORY_TOPIC_NAME", "QUERY_HISTORY"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Kind:       getEnv("DB_KIND", "mysql"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			HistoryDSN: getEnv("HISTORY_DB_CONNECTION_STRING", ""),
		},
		Conversation: ConversationConfig{
			HistoryCapacity: getEnvAsInt("CONVERSATION_HISTORY_CAPACITY", 5),
			SessionTimeout:  getEnvAsDuration("CONVERSATION_SESSION_TIMEOUT", 30*time.Minute),
			SnapshotBackend: getEnv("CONVERSATION_SNAPSHOT_BACKEND", "file"),
			SnapshotPath:    getEnv("CONVERSATION_SNAPSHOT_PATH", "data/conversations.json"),
			SnapshotKey:     getEnv("CONVERSATION_SNAPSHOT_KEY", "text2sql:conversations"),
			SnapshotTTL:     getEnvAsDuration("CONVERSATION_SNAPSHOT_TTL", 24*time.Hour),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "deepseek"),
			LLMModel:      getEnv("MODEL_NAME", "deepseek-chat"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_API_BASE", "https://api.deepseek.com"),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.1),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Schema: SchemaConfig{
			FilePath:       getEnv("SCHEMA_FILE_PATH", "data/schema.sql"),
			CanonicalTable: getEnv("CANONICAL_TABLE", "medical_checkup"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("1800").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

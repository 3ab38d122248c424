package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Google OAuth credentials, shared by the mail and calendar platforms
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Chat platform (Slack-compatible) credentials
	ChatClientID     string
	ChatClientSecret string
	ChatRedirectURI  string
	ChatAPIBaseURL   string

	// AI provider
	AIProvider    string
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Scheduler cadences
	MailSyncInterval     time.Duration
	ChatSyncInterval     time.Duration
	CalendarSyncInterval time.Duration
	EnrichInterval       time.Duration
	EnrichBatchSize      int
	BriefingHourUTC      int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=flowstate port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/connections/callback"),

		ChatClientID:     getEnv("CHAT_CLIENT_ID", ""),
		ChatClientSecret: getEnv("CHAT_CLIENT_SECRET", ""),
		ChatRedirectURI:  getEnv("CHAT_REDIRECT_URI", "http://localhost:8080/api/connections/callback"),
		ChatAPIBaseURL:   getEnv("CHAT_API_BASE_URL", "https://slack.com/api"),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		MailSyncInterval:     getDuration("MAIL_SYNC_INTERVAL", 5*time.Minute),
		ChatSyncInterval:     getDuration("CHAT_SYNC_INTERVAL", 2*time.Minute),
		CalendarSyncInterval: getDuration("CALENDAR_SYNC_INTERVAL", 15*time.Minute),
		EnrichInterval:       getDuration("ENRICH_INTERVAL", 1*time.Minute),
		EnrichBatchSize:      getInt("ENRICH_BATCH_SIZE", 20),
		BriefingHourUTC:      getInt("BRIEFING_HOUR_UTC", 7),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

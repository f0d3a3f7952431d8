package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	AdminJWTSecret string

	// LINE messaging channel
	LineChannelSecret      string
	LineChannelAccessToken string
	LineAPIBaseURL         string

	// Google Calendar (shared salon calendar)
	GoogleCredentialsFile string
	CalendarID            string
	Timezone              string
	BusinessOpenHour      int
	BusinessCloseHour     int
	SlotMinutes           int

	// Gemini fallback assistant
	GeminiAPIKey  string
	GeminiModelID string

	// Profile store (DynamoDB)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ProfilesTable       string

	// Turn dispatch
	UseMemoryQueue bool
	TurnQueueURL   string
	WorkerCount    int

	// Turn ordering lock
	RedisAddr     string
	RedisPassword string
	UserLockTTL   time.Duration

	// Booking history (Postgres)
	DatabaseURL string

	// Conversation behavior
	SessionGap time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),

		GoogleCredentialsFile: getEnv("GOOGLE_CALENDAR_CREDENTIALS", ""),
		CalendarID:            getEnv("CALENDAR_ID", "primary"),
		Timezone:              getEnv("TIMEZONE", "Asia/Taipei"),
		BusinessOpenHour:      getEnvAsInt("BUSINESS_OPEN_HOUR", 10),
		BusinessCloseHour:     getEnvAsInt("BUSINESS_CLOSE_HOUR", 20),
		SlotMinutes:           getEnvAsInt("SLOT_MINUTES", 30),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		AWSRegion:           getEnv("AWS_REGION", "ap-northeast-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ProfilesTable:       getEnv("PROFILES_TABLE", "user_profiles"),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		TurnQueueURL:   getEnv("TURN_QUEUE_URL", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		UserLockTTL:   getEnvAsDuration("USER_LOCK_TTL", 30*time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SessionGap: getEnvAsDuration("SESSION_GAP", 30*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

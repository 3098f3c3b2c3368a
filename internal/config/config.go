package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config collects all runtime settings loaded from environment variables.
type Config struct {
	Port      string
	Provider  string
	JWTSecret string

	PostgresDSN string
	RedisAddr   string

	QuotaDailyLimit int

	QueueKey           string
	QueueWorkers       int
	QueueMaxAttempts   int
	QueueJobsPerMinute int

	SweeperSchedule string
	SweeperGrace    time.Duration

	AudioDir     string
	AudioBaseURL string

	VoiceServiceURL string

	CORSOrigins []string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Provider:           getEnv("AI_PROVIDER", "gemini"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		PostgresDSN:        buildPostgresDSN(),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		QuotaDailyLimit:    getEnvInt("INTERVIEW_QUOTA_DAILY", 10),
		QueueKey:           getEnv("EVALUATION_QUEUE_KEY", "intervai:evaluation:queue"),
		QueueWorkers:       getEnvInt("EVALUATION_QUEUE_WORKERS", 2),
		QueueMaxAttempts:   getEnvInt("EVALUATION_QUEUE_MAX_ATTEMPTS", 3),
		QueueJobsPerMinute: getEnvInt("EVALUATION_QUEUE_JOBS_PER_MINUTE", 30),
		SweeperSchedule:    getEnv("EVALUATION_SWEEP_SCHEDULE", "*/10 * * * *"),
		SweeperGrace:       getEnvDuration("EVALUATION_SWEEP_GRACE", 15*time.Minute),
		AudioDir:           getEnv("AUDIO_STORAGE_DIR", "./audio"),
		AudioBaseURL:       getEnv("AUDIO_BASE_URL", "/audio"),
		VoiceServiceURL:    getEnv("VOICE_SERVICE_URL", "http://localhost:8090"),
		CORSOrigins:        []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if cfg.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + cfg.Provider + ". Currently supported: gemini")
	}
	if cfg.QueueWorkers < 1 {
		return errors.New("EVALUATION_QUEUE_WORKERS must be at least 1")
	}
	return nil
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "postgres")
	dbname := getEnv("POSTGRES_DB", "intervai")
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)
}

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

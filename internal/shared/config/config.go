package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	// Bridge settings for delegating discovery/generation to the external worker.
	BridgeURL      string
	BridgeSecret   string
	CallbackSecret string
	ClassifyURL    string

	// Queue processor tuning.
	PollInterval     time.Duration
	StuckThreshold   time.Duration
	CleanupRetention time.Duration
	MaxRetries       int

	// Outbound notification handoff (SQS) and resume storage (S3).
	AWSRegion          string
	NotifyQueueURL     string
	ResumeBucket       string
	ResumePresignTTL   time.Duration
	LocalResumeBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:        dbURL,
		Env:                env,
		BridgeURL:          getEnv("BRIDGE_URL", ""),
		BridgeSecret:       getEnv("BRIDGE_SECRET", ""),
		CallbackSecret:     getEnv("CALLBACK_SECRET", ""),
		ClassifyURL:        getEnv("CLASSIFY_URL", ""),
		PollInterval:       getDuration("QUEUE_POLL_INTERVAL_SECONDS", 30*time.Second),
		StuckThreshold:     getDuration("QUEUE_STUCK_THRESHOLD_SECONDS", 10*time.Minute),
		CleanupRetention:   getDuration("QUEUE_RETENTION_SECONDS", 7*24*time.Hour),
		MaxRetries:         getInt("APPLICATION_MAX_RETRIES", 3),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		NotifyQueueURL:     getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		ResumeBucket:       getEnv("RESUME_S3_BUCKET", ""),
		ResumePresignTTL:   getDuration("RESUME_PRESIGN_TTL_SECONDS", 15*time.Minute),
		LocalResumeBaseURL: getEnv("LOCAL_RESUME_BASE_URL", "http://localhost:8080/resumes"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return time.Duration(parsed) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

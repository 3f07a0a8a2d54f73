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
	Port                  string
	Env                   string
	DatabaseURL           string
	CORSAllowOrigin       []string
	APIToken              string
	LocalStoreDir         string
	ExportPrefix          string
	RulesConfigPath       string
	PromptsDir            string
	LLMProvider           string
	LLMModel              string
	LLMTimeoutSeconds     int
	LLMDailyLimit         int
	MaxConcurrentAnalyses int
	MaxUploadMB           int
	JobRetention          time.Duration
	JanitorSchedule       string
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
		Port:                  getEnv("PORT", "8080"),
		Env:                   env,
		DatabaseURL:           dbURL,
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		APIToken:              os.Getenv("API_TOKEN"),
		LocalStoreDir:         getEnv("LOCAL_STORE_DIR", "./data"),
		ExportPrefix:          getEnv("EXPORT_DIR", "exports"),
		RulesConfigPath:       os.Getenv("RULES_CONFIG"),
		PromptsDir:            os.Getenv("PROMPTS_DIR"),
		LLMProvider:           normalizeProvider(getEnv("LLM_PROVIDER", "placeholder")),
		LLMModel:              getEnv("LLM_MODEL", ""),
		LLMTimeoutSeconds:     getEnvInt("LLM_TIMEOUT_SECONDS", 60),
		LLMDailyLimit:         getEnvInt("LLM_DAILY_LIMIT", 50),
		MaxConcurrentAnalyses: getEnvInt("MAX_CONCURRENT_ANALYSES", 4),
		MaxUploadMB:           getEnvInt("MAX_UPLOAD_MB", 10),
		JobRetention:          getEnvDuration("JOB_RETENTION", 24*time.Hour),
		JanitorSchedule:       getEnv("JANITOR_SCHEDULE", "@hourly"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return d
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

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "anthropic", "claude":
		return "anthropic"
	case "gemini", "google":
		return "gemini"
	default:
		return "placeholder"
	}
}

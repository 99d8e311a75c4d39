package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // Empty runs on the in-memory conversation tree
	JWKSURL     string // Empty disables authentication on /api
	CORSOrigins string
	TablePrefix string
	// Request configuration
	DefaultModel string
	APIFamily    string
	// StreamingEnabled is the dedicated streaming toggle of the API family.
	// nil when STREAMING_ENABLED is unset.
	StreamingEnabled     *bool
	ThoughtOverlapWindow int
	PromptsFile          string
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool // Enables DEBUG features like SSE event IDs
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          env,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWKSURL:              getEnv("JWKS_URL", ""),
		CORSOrigins:          getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:          getTablePrefix(env),
		DefaultModel:         getEnv("DEFAULT_MODEL", "claude-haiku-4-5"),
		APIFamily:            getEnv("API_FAMILY", "openai-compatible"),
		StreamingEnabled:     getOptionalBool("STREAMING_ENABLED"),
		ThoughtOverlapWindow: getInt("THOUGHT_OVERLAP_WINDOW", DefaultThoughtOverlapWindow),
		PromptsFile:          getEnv("PROMPTS_FILE", ""),
		LogDir:               getEnv("LOG_DIR", ""),
		LogMaxFiles:          getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// CORSOriginList splits CORSOrigins on commas.
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return n
}

// getOptionalBool returns nil for an unset or unparseable value.
func getOptionalBool(key string) *bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &b
}

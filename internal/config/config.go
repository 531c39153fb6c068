// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string
	DatabasePath  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	SystemPrompt  string
	// UpstreamTimeout bounds a single completion call, including the full
	// lifetime of a streamed response.
	UpstreamTimeout time.Duration
	Environment     string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "travel_threads.db"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		SystemPrompt:    getEnv("SYSTEM_PROMPT", ""),
		UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 2*time.Minute),
		Environment:     env,
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("Missing required production environment variable: OPENAI_API_KEY")
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsDuration gets an env var as a duration, with a fallback.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}

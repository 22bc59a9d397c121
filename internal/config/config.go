package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// DataDir is the root for exam definitions and the audio cache.
	DataDir string

	// LLM endpoint (OpenAI-compatible). The same omni model grades answers
	// and synthesizes speech.
	APIKey     string
	APIBaseURL string
	OmniModel  string

	// InstructionVoice speaks section instructions, ResponseVoice speaks
	// question prompts.
	InstructionVoice string
	ResponseVoice    string

	GradingTimeout   time.Duration
	SynthesisTimeout time.Duration

	// SessionTTL evicts idle sessions from the registry. Zero keeps them
	// for the process lifetime.
	SessionTTL time.Duration

	// SessionStartRate limits session creation per IP per minute.
	SessionStartRate int

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error, .env is optional

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8000"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "pretty"),

		DataDir: getEnv("DATA_DIR", "./data"),

		APIKey:     getEnv("DASHSCOPE_API_KEY", ""),
		APIBaseURL: getEnv("API_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		OmniModel:  getEnv("OMNI_MODEL", "qwen3-omni-flash"),

		InstructionVoice: getEnv("INSTRUCTION_VOICE", "Cherry"),
		ResponseVoice:    getEnv("RESPONSE_VOICE", "Cherry"),

		GradingTimeout:   time.Duration(getEnvInt("GRADING_TIMEOUT_SECONDS", 90)) * time.Second,
		SynthesisTimeout: time.Duration(getEnvInt("SYNTHESIS_TIMEOUT_SECONDS", 60)) * time.Second,

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 0)) * time.Minute,

		SessionStartRate: getEnvInt("SESSION_START_RATE", 10),

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations the LLM endpoint would refuse anyway,
// so misconfiguration surfaces at startup instead of mid-exam.
func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DASHSCOPE_API_KEY is required")
	}
	if !strings.HasPrefix(c.APIKey, "sk-") {
		return fmt.Errorf("DASHSCOPE_API_KEY must start with \"sk-\"")
	}
	if c.OmniModel == "" {
		return fmt.Errorf("OMNI_MODEL must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string
	Env     string // "production" enables Secure cookies

	// Identity provider (Supabase)
	SupabaseURL     string
	SupabaseAnonKey string

	// Site
	SiteURL     string
	FrontendURL string // CORS origin

	// AI backend selection: "gemini" or "ollama"
	AIProvider string

	// Gemini
	GoogleAPIKey string
	GeminiModel  string

	// Ollama
	OllamaBaseURL   string
	OllamaChatModel string
	OllamaChatToken string // Bearer token for Ollama Cloud (empty = local)

	// Persistence: DATABASE_URL selects Postgres; empty falls back to a
	// local SQLite file at ChatDBPath.
	DatabaseURL string
	ChatDBPath  string

	// Session cookies
	SessionMaxAge int // seconds
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3000"),
		AppName: envOrDefault("APP_NAME", "Gemini Chat"),
		Env:     envOrDefault("ENV", "development"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_ANON_KEY"),

		SiteURL:     envOrDefault("SITE_URL", "http://localhost:3000"),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),

		AIProvider: envOrDefault("AI_PROVIDER", "gemini"),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:  envOrDefault("GEMINI_MODEL", "gemini-pro"),

		OllamaBaseURL:   envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaChatModel: envOrDefault("OLLAMA_CHAT_MODEL", "qwen3"),
		OllamaChatToken: os.Getenv("OLLAMA_CHAT_TOKEN"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		ChatDBPath:  envOrDefault("CHAT_DB_PATH", "./chat.db"),

		SessionMaxAge: envOrDefaultInt("SESSION_MAX_AGE", 60*60*24*7), // 7 days
	}
}

// Production reports whether the app runs with production cookie settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

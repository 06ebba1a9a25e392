package config

import (
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Slack
	SlackBotToken       string
	SlackAppToken       string
	SlackDefaultChannel string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// JWT
	JWTSecretKey         string
	JWTExpirationMinutes int

	// Frontend
	FrontendURL string
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	return &Config{
		// Server
		Port: getEnvInt("PORT", 8000),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// MongoDB
		MongoURI:      getEnv("MONGODB_CONNECTION_STRING", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "relai"),

		// OpenAI
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Slack
		SlackBotToken:       getEnv("SLACK_BOT_TOKEN", ""),
		SlackAppToken:       getEnv("SLACK_APP_TOKEN", ""),
		SlackDefaultChannel: getEnv("SLACK_DEFAULT_CHANNEL", "general"),

		// Google OAuth
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		// JWT
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", ""),
		JWTExpirationMinutes: getEnvInt("JWT_EXPIRATION_MINUTES", 30),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

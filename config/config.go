package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all process configuration, loaded once at startup from
// environment variables (a .env file is read by main before Load runs).
type Config struct {
	// HTTP server
	ListenAddr string
	APIPrefix  string

	// Redis (vector index and response cache share one server)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Vector index
	IndexName      string
	VectorDim      int
	EFConstruction int
	M              int
	TopK           int

	// Response cache
	CacheTTL time.Duration

	// LLM providers
	Provider        string // "openai" (any OpenAI-compatible endpoint) or "gemini"
	APIKey          string
	BaseURL         string
	Model           string
	SummaryAPIKey   string
	SummaryBaseURL  string
	SummaryModel    string
	EmbeddingAPIKey string
	EmbeddingURL    string
	EmbeddingModel  string

	// Gemini provider
	GeminiAPIKey string
	GeminiModel  string
}

// Load builds a Config from environment variables with defaults.
func Load() Config {
	return Config{
		ListenAddr: getEnvString("LISTEN_ADDR", ":8080"),
		APIPrefix:  getEnvString("API_PREFIX", "/api/v1"),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),

		IndexName:      getEnvString("VECTOR_INDEX_NAME", "leetmentor-docs"),
		VectorDim:      getEnvInt("VECTOR_DIM", 1024),
		EFConstruction: getEnvInt("HNSW_EF_CONSTRUCTION", 200),
		M:              getEnvInt("HNSW_M", 16),
		TopK:           getEnvInt("RETRIEVAL_TOP_K", 4),

		CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		Provider:        getEnvString("LLM_PROVIDER", "openai"),
		APIKey:          getEnvString("API_KEY", ""),
		BaseURL:         getEnvString("BASE_URL", ""),
		Model:           getEnvString("MODEL", ""),
		SummaryAPIKey:   getEnvString("SUMMARY_MODEL_API_KEY", ""),
		SummaryBaseURL:  getEnvString("SUMMARY_MODEL_BASE_URL", ""),
		SummaryModel:    getEnvString("SUMMARY_MODEL", ""),
		EmbeddingAPIKey: getEnvString("EMBEDDING_MODEL_API_KEY", ""),
		EmbeddingURL:    getEnvString("EMBEDDING_MODEL_BASE_URL", ""),
		EmbeddingModel:  getEnvString("EMBEDDING_MODEL", ""),

		GeminiAPIKey: getEnvString("GEMINI_API_KEY", ""),
		GeminiModel:  getEnvString("GEMINI_MODEL", ""),
	}
}

// getEnvString reads a string from environment variable
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return defaultVal
}

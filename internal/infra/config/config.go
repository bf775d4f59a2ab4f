package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	EmbedModel    string

	ModelMaxRetries        int
	ModelRequestsPerSecond int

	RetrievalTopK       int
	IndexMaxConcurrency int
	EmbeddingCacheSize  int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "docs-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "docs_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "docs_password"),
		DBName:     getEnv("DB_NAME", "docs_db"),

		OpenAIAPIKey:  getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		ModelMaxRetries:        getEnvInt("MODEL_MAX_RETRIES", 2),
		ModelRequestsPerSecond: getEnvInt("MODEL_REQUESTS_PER_SECOND", 10),

		RetrievalTopK:       getEnvInt("RETRIEVAL_TOP_K", 10),
		IndexMaxConcurrency: getEnvInt("INDEX_MAX_CONCURRENCY", 5),
		EmbeddingCacheSize:  getEnvInt("EMBEDDING_CACHE_SIZE", 512),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

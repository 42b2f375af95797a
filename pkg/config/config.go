package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	LogLevel      string
	GinMode       string
	DefaultUserID string

	// Google OAuth / Gmail
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleProjectID    string
	GoogleCredentials  string
	GooglePubSubTopic  string
	GooglePubSubSub    string

	// Mail provider: gmail or imap
	MailProvider string
	IMAPAddr        string
	IMAPUsername    string
	IMAPPassword    string
	IMAPDialTimeout time.Duration

	// Document store: firestore, postgres or memory
	StoreBackend       string
	DatabaseURL        string
	TokenEncryptionKey string

	// Vector index
	VectorBackend      string
	VectorIndexName    string
	VectorDimension    int
	VectorReadyTimeout time.Duration
	VectorUpsertBatch  int
	ChromaURL          string
	ChromaAPIKey       string
	ChromaTenant       string
	ChromaDatabase     string
	PineconeAPIKey     string
	PineconeCloud      string
	PineconeRegion     string
	PineconeNamespace  string

	// Embeddings
	EmbeddingBackend   string
	EmbeddingModel     string
	EmbeddingCacheSize int
	EmbeddingCacheTTL  time.Duration

	// Language model
	AIProvider    string
	GeminiApiKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string

	AITimeout    time.Duration
	EmbedTimeout time.Duration
	IndexTimeout time.Duration

	// Sync
	SyncBatchSize  int
	SyncPacing     time.Duration
	SyncRateLimit  float64
	SyncDefaultMax int
	SyncCron       string
	SyncUsers      string

	SearchTopK int

	RedisAddr     string
	RedisPassword string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		GinMode:       getEnv("GIN_MODE", "release"),
		DefaultUserID: getEnv("DEFAULT_USER_ID", "dev_user"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/callback"),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:  getEnv("GOOGLE_CREDENTIALS", ""),
		GooglePubSubTopic:  getEnv("GOOGLE_PUBSUB_TOPIC", ""),
		GooglePubSubSub:    getEnv("GOOGLE_PUBSUB_SUBSCRIPTION", ""),

		MailProvider: strings.ToLower(getEnv("MAIL_PROVIDER", "gmail")),
		IMAPAddr:        getEnv("IMAP_ADDR", "imap.gmail.com:993"),
		IMAPUsername:    getEnv("IMAP_USERNAME", ""),
		IMAPPassword:    getEnv("IMAP_PASSWORD", ""),
		IMAPDialTimeout: getEnvDuration("IMAP_DIAL_TIMEOUT", 30*time.Second),

		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", "firestore")),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),

		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", "chroma")),
		VectorIndexName:    getEnv("VECTOR_INDEX_NAME", "email-embeddings"),
		VectorDimension:    getEnvInt("VECTOR_DIMENSION", 768),
		VectorReadyTimeout: getEnvDuration("VECTOR_READY_TIMEOUT", 10*time.Second),
		VectorUpsertBatch:  getEnvInt("VECTOR_UPSERT_BATCH", 100),
		ChromaURL:          getEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaAPIKey:       getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:       getEnv("CHROMA_TENANT", ""),
		ChromaDatabase:     getEnv("CHROMA_DATABASE", ""),
		PineconeAPIKey:     getEnv("PINECONE_API_KEY", ""),
		PineconeCloud:      getEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     getEnv("PINECONE_REGION", "us-east-1"),
		PineconeNamespace:  getEnv("PINECONE_NAMESPACE", ""),

		EmbeddingBackend:   strings.ToLower(getEnv("EMBEDDING_BACKEND", "auto")),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
		EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 1024),
		EmbeddingCacheTTL:  getEnvDuration("EMBEDDING_CACHE_TTL", time.Hour),

		AIProvider:    strings.ToLower(getEnv("AI_PROVIDER", "auto")),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		AITimeout:    getEnvDuration("AI_TIMEOUT", 60*time.Second),
		EmbedTimeout: getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		IndexTimeout: getEnvDuration("INDEX_TIMEOUT", 30*time.Second),

		SyncBatchSize:  getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncPacing:     getEnvDuration("SYNC_PACING", 100*time.Millisecond),
		SyncRateLimit:  getEnvFloat("SYNC_RATE_LIMIT", 0),
		SyncDefaultMax: getEnvInt("SYNC_DEFAULT_MAX", 10),
		SyncCron:       getEnv("SYNC_CRON", ""),
		SyncUsers:      getEnv("SYNC_USERS", ""),

		SearchTopK: getEnvInt("SEARCH_TOP_K", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the pipeline, grouped
// loosely by the component that consumes it.
type Config struct {
	Port    string
	GinMode string

	MongoURI string
	DBName   string

	PostgresDSN string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	GenerationModel       string
	EmbeddingsProvider    string
	VectorDimensions      int
	GeminiTier            string

	OCRServiceURL         string
	OCRTimeout            int // seconds
	EnableHandwritingOCR  bool

	LocalVerifierEndpoint string
	LocalVerifierModel    string
	LocalVerifierTimeout  int // seconds

	// C6 PII anonymizer.
	PIIMappingTTL          int // seconds
	PIIConfidenceThreshold float64

	// C5 hierarchical parser.
	MaxChunkSize int
	ChunkOverlap int

	// C8 / C12 retrieval + cache.
	DefaultTopK            int
	OCRConfidenceThreshold float64
	SentenceThreshold      float64
	CacheQueryResultsTTL   int // seconds
	CacheDocumentsTTL      int // seconds
	CacheQueryLogsTTL      int // seconds

	// Quotas, per month.
	QuotaTokensPerMonth    int64
	QuotaQueriesPerMonth   int64
	QuotaDocumentsPerMonth int64

	// Downstream call deadlines, seconds.
	GenerationTimeout int
	VerifierTimeout   int
	KVTimeout         int
	VectorTimeout     int

	MaxFileSize    int64
	FileStorageDir string

	UsageRetentionMonths int
	ChunksRetentionDays  int
	LogsRetentionDays    int

	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow int
}

func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/legaldoc"),
		DBName:   getEnv("DB_NAME", "legaldoc"),

		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/legaldoc?sslmode=disable"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GenerationModel:       getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),

		OCRServiceURL:        getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRTimeout:           getEnvInt("OCR_TIMEOUT", 300),
		EnableHandwritingOCR: getEnvBool("ENABLE_HANDWRITING_OCR", true),

		LocalVerifierEndpoint: getEnv("LOCAL_VERIFIER_ENDPOINT", "http://localhost:11434"),
		LocalVerifierModel:    getEnv("LOCAL_VERIFIER_MODEL", "mistral:7b"),
		LocalVerifierTimeout:  getEnvInt("LOCAL_VERIFIER_TIMEOUT", 30),

		PIIMappingTTL:          getEnvInt("PII_MAPPING_TTL", 300),
		PIIConfidenceThreshold: getEnvFloat64("PII_CONFIDENCE_THRESHOLD", 0.7),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		DefaultTopK:            getEnvInt("DEFAULT_TOP_K", 5),
		OCRConfidenceThreshold: getEnvFloat64("OCR_CONFIDENCE_THRESHOLD", 0.75),
		SentenceThreshold:      getEnvFloat64("SENTENCE_THRESHOLD", 0.4),
		CacheQueryResultsTTL:   getEnvInt("CACHE_QUERY_RESULTS_TTL", 3600),
		CacheDocumentsTTL:      getEnvInt("CACHE_DOCUMENTS_TTL", 7200),
		CacheQueryLogsTTL:      getEnvInt("CACHE_QUERY_LOGS_TTL", 300),

		QuotaTokensPerMonth:    getEnvInt64("QUOTA_TOKENS_PER_MONTH", 1_000_000),
		QuotaQueriesPerMonth:   getEnvInt64("QUOTA_QUERIES_PER_MONTH", 2000),
		QuotaDocumentsPerMonth: getEnvInt64("QUOTA_DOCUMENTS_PER_MONTH", 500),

		GenerationTimeout: getEnvInt("GENERATION_TIMEOUT", 60),
		VerifierTimeout:   getEnvInt("VERIFIER_TIMEOUT", 30),
		KVTimeout:         getEnvInt("KV_TIMEOUT", 5),
		VectorTimeout:     getEnvInt("VECTOR_TIMEOUT", 5),

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 104857600),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),

		UsageRetentionMonths: getEnvInt("USAGE_RETENTION_MONTHS", 13),
		ChunksRetentionDays:  getEnvInt("CHUNKS_RETENTION_DAYS", 730),
		LogsRetentionDays:    getEnvInt("LOGS_RETENTION_DAYS", 90),

		CORSOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

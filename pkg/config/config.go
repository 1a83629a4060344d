package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	RAG      RAGConfig
	Ingest   IngestConfig
	Suggest  SuggestConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig covers both the embedding model and the chat model. Any
// OpenAI-compatible endpoint works (BaseURL is configurable).
type OpenAIConfig struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

type RAGConfig struct {
	TopK            int
	MinSimilarity   float64
	DocShare        float64
	MaxAnswerTokens int
	Temperature     float64
}

type IngestConfig struct {
	UploadDir   string
	Workers     int
	QueueSize   int
	BatchSize   int
	MaxAttempts int
}

type SuggestConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

type LoggerConfig struct {
	Level string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	openAITimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT", "60"))
	topK, _ := strconv.Atoi(getEnv("RAG_TOP_K", "8"))
	minSimilarity, _ := strconv.ParseFloat(getEnv("RAG_MIN_SIMILARITY", "0.35"), 64)
	docShare, _ := strconv.ParseFloat(getEnv("RAG_DOC_SHARE", "0.7"), 64)
	maxAnswerTokens, _ := strconv.Atoi(getEnv("RAG_MAX_ANSWER_TOKENS", "1200"))
	temperature, _ := strconv.ParseFloat(getEnv("RAG_TEMPERATURE", "0.2"), 64)
	workers, _ := strconv.Atoi(getEnv("INGEST_WORKERS", "4"))
	queueSize, _ := strconv.Atoi(getEnv("INGEST_QUEUE_SIZE", "64"))
	batchSize, _ := strconv.Atoi(getEnv("INGEST_BATCH_SIZE", "100"))
	maxAttempts, _ := strconv.Atoi(getEnv("INGEST_MAX_ATTEMPTS", "3"))
	cacheSize, _ := strconv.Atoi(getEnv("SUGGEST_CACHE_SIZE", "512"))
	cacheTTL, _ := strconv.Atoi(getEnv("SUGGEST_CACHE_TTL_SECONDS", "300"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "mostashar"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			Timeout:        time.Duration(openAITimeout) * time.Second,
		},
		RAG: RAGConfig{
			TopK:            topK,
			MinSimilarity:   minSimilarity,
			DocShare:        docShare,
			MaxAnswerTokens: maxAnswerTokens,
			Temperature:     temperature,
		},
		Ingest: IngestConfig{
			UploadDir:   getEnv("INGEST_UPLOAD_DIR", "uploads"),
			Workers:     workers,
			QueueSize:   queueSize,
			BatchSize:   batchSize,
			MaxAttempts: maxAttempts,
		},
		Suggest: SuggestConfig{
			CacheSize: cacheSize,
			CacheTTL:  time.Duration(cacheTTL) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

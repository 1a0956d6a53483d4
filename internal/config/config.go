package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel  string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDim    int    `envconfig:"EMBEDDING_DIM" default:"1536"`
	GenerationModel string `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`

	// Hybrid retrieval tuning.
	BM25K1            float64 `envconfig:"BM25_K1" default:"1.5"`
	BM25B             float64 `envconfig:"BM25_B" default:"0.75"`
	RRFK              int     `envconfig:"RRF_K" default:"60"`
	SparseCorpusLimit int     `envconfig:"SPARSE_CORPUS_LIMIT" default:"5000"`

	EvalTopK int `envconfig:"EVAL_TOP_K" default:"8"`

	// Re-embedding of chunks ingested while no embedding model was configured.
	BackfillInterval  time.Duration `envconfig:"BACKFILL_INTERVAL" default:"30s"`
	BackfillBatchSize int           `envconfig:"BACKFILL_BATCH_SIZE" default:"64"`

	// Optional raw-document archival to S3-compatible object storage.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"reglens-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("REGLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

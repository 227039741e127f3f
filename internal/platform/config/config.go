// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	APIPort     int    `env:"API_PORT" envDefault:"8000"`

	// Render service used for generic page scraping (HeadlessX-compatible).
	RenderServiceURL   string        `env:"RENDER_SERVICE_URL" envDefault:"http://localhost:3001"`
	RenderServiceToken string        `env:"RENDER_SERVICE_TOKEN"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" envDefault:"25s"`
	FetchRPS           float64       `env:"FETCH_RPS" envDefault:"2"`

	// Structured business lookup (Google Places). Optional: when the key is
	// absent the google platform falls back to generic scraping.
	GooglePlacesAPIKey  string        `env:"GOOGLE_PLACES_API_KEY"`
	GooglePlacesTimeout time.Duration `env:"GOOGLE_PLACES_TIMEOUT" envDefault:"20s"`

	MaxReviewsPerPlatform int `env:"MAX_REVIEWS_PER_PLATFORM" envDefault:"25"`

	// Model providers. An empty or "mock" key selects the deterministic
	// in-process providers.
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	SentimentModel      string `env:"SENTIMENT_MODEL" envDefault:"gpt-4o-mini"`
	SummaryModel        string `env:"SUMMARY_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"384"`
	ModelRateLimitRPS   int    `env:"MODEL_RATE_LIMIT_RPS" envDefault:"1"`

	// Summarizer bounds.
	SummaryMinInputChars int `env:"SUMMARY_MIN_INPUT_CHARS" envDefault:"150"`
	SummaryMinChars      int `env:"SUMMARY_MIN_CHARS" envDefault:"30"`
	SummaryMaxChars      int `env:"SUMMARY_MAX_CHARS" envDefault:"300"`

	// Semantic search.
	SearchScoreThreshold float64 `env:"SEARCH_SCORE_THRESHOLD" envDefault:"0.5"`
	SearchLimit          int     `env:"SEARCH_LIMIT" envDefault:"5"`

	// Worker loop.
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	JobStuckThreshold  time.Duration `env:"JOB_STUCK_THRESHOLD" envDefault:"30m"`

	// Connection pool.
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

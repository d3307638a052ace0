package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	KeywordsBaseURL string `env:"KEYWORDS_BASE_URL" envDefault:"http://localhost:8000"`
	MatcherBaseURL  string `env:"MATCHER_BASE_URL" envDefault:"http://localhost:8001"`
	PeopleBaseURL   string `env:"PEOPLE_BASE_URL" envDefault:"http://localhost:8002"`
	JobsBaseURL     string `env:"JOBS_BASE_URL" envDefault:"http://localhost:8003"`
	ScraperBaseURL  string `env:"SCRAPER_BASE_URL" envDefault:"http://localhost:8002"`
	OCRBaseURL      string `env:"OCR_BASE_URL" envDefault:"http://localhost:8000"`

	PrimaryCap         int           `env:"PRIMARY_CAP" envDefault:"20"`
	SecondaryCap       int           `env:"SECONDARY_CAP" envDefault:"10"`
	SettleDelay        time.Duration `env:"SETTLE_DELAY" envDefault:"1500ms"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	SecondaryTimeout   time.Duration `env:"SECONDARY_TIMEOUT" envDefault:"30s"`
	OutboundRPS        float64       `env:"OUTBOUND_RPS" envDefault:"10"`
	DefaultJobLocation string        `env:"DEFAULT_JOB_LOCATION" envDefault:"Global"`
	MaxJobs            int           `env:"MAX_JOBS" envDefault:"10"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"none"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL"`
	LLMModel    string `env:"LLM_MODEL"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisChannel  string        `env:"REDIS_CHANNEL" envDefault:"matchmaker:sessions"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	JWTSecret       string        `env:"JWT_SECRET"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"2h"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

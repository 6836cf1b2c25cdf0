package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the base-data adapter.
type Config struct {
	ServiceName string
	Env         string // "dev", "uat", "prod"
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Provider fetch settings
	ProviderBaseURL string
	UserAgent       string
	FetchTimeout    time.Duration
	FetchRetryMax   int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	RateLimitRPS    int
	RateLimitBurst  int

	// Record cache: Redis when RedisAddr is set, in-process otherwise.
	// A zero CacheTTL disables caching.
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	CleanupFreq time.Duration
}

// Load reads configuration from the environment, after loading .env if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:      GetEnv("SERVICE_NAME", "basedata-adapter"),
		Env:              GetEnv("ENV", "dev"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnvInt("BASEDATA_PORT", 9040),
		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ProviderBaseURL:  GetEnv("COMDIRECT_BASE_URL", "https://www.comdirect.de"),
		UserAgent:        GetEnv("COMDIRECT_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) basedata-adapter/1.0"),
		FetchTimeout:     GetEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchRetryMax:    GetEnvInt("FETCH_RETRY_MAX", 3),
		BackoffBase:      GetEnvDuration("FETCH_BACKOFF_BASE", 200*time.Millisecond),
		BackoffMax:       GetEnvDuration("FETCH_BACKOFF_MAX", 5*time.Second),
		RateLimitRPS:     GetEnvInt("FETCH_RATE_LIMIT_RPS", 5),
		RateLimitBurst:   GetEnvInt("FETCH_RATE_LIMIT_BURST", 10),
		RedisAddr:        GetEnv("REDIS_ADDR", ""),
		RedisDB:          GetEnvInt("REDIS_DB", 0),
		RedisPass:        GetEnv("REDIS_PASS", ""),
		CacheTTL:         GetEnvDuration("RECORD_CACHE_TTL", 6*time.Hour),
		CleanupFreq:      GetEnvDuration("RECORD_CACHE_CLEANUP", 10*time.Minute),
	}
}

// Validate rejects configurations the adapter cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	u, err := url.Parse(c.ProviderBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid provider base url %q", c.ProviderBaseURL)
	}
	if c.FetchRetryMax < 0 {
		return errors.New("fetch retry max must be >= 0")
	}
	if c.BackoffBase <= 0 || c.BackoffMax < c.BackoffBase {
		return fmt.Errorf("backoff base %s must be > 0 and <= max %s", c.BackoffBase, c.BackoffMax)
	}
	if c.RateLimitRPS < 1 || c.RateLimitBurst < 1 {
		return errors.New("rate limit rps and burst must be >= 1")
	}
	if c.CacheTTL > 0 && c.RedisAddr == "" && c.CleanupFreq <= 0 {
		return errors.New("record cache cleanup interval must be > 0")
	}
	return nil
}

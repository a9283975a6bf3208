package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (선택, 없으면 파일 입력만 가능)
	Database DatabaseConfig

	// Redis (최신 결과 캐시)
	Redis RedisConfig

	// API
	API APIConfig

	// Portfolio construction
	Portfolio PortfolioConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	Enabled   bool
	ResultTTL time.Duration
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit      float64 // construct 요청/초
	RateBurst      int
	RequestTimeout time.Duration
	MaxStocks      int // construct 요청당 서로 다른 종목 수 상한 (상관 행렬 n²)
}

// PortfolioConfig holds construction defaults and the scheduled job settings
type PortfolioConfig struct {
	StrategyProfile  string // YAML 프로필 경로 (비어 있으면 기본값)
	Schedule         string // cron (초 단위 포함)
	SchedulerEnabled bool
	Workers          int // 상관계수 병렬 워커 (0 = GOMAXPROCS)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit .env file (CLI --config)
// 빈 경로면 기본 위치 탐색, 이미 설정된 환경변수가 우선
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		loadEnvFile()
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			ResultTTL: getEnvAsDuration("REDIS_RESULT_TTL", "24h"),
		},

		// API
		API: APIConfig{
			RateLimit:      getEnvAsFloat("API_RATE_LIMIT", 5),
			RateBurst:      getEnvAsInt("API_RATE_BURST", 10),
			RequestTimeout: getEnvAsDuration("API_REQUEST_TIMEOUT", "30s"),
			MaxStocks:      getEnvAsInt("API_MAX_STOCKS", 2000),
		},

		// Portfolio
		Portfolio: PortfolioConfig{
			StrategyProfile:  getEnv("STRATEGY_PROFILE", ""),
			Schedule:         getEnv("PORTFOLIO_SCHEDULE", "0 30 18 * * 1-5"),
			SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", false),
			Workers:          getEnvAsInt("CORRELATION_WORKERS", 0),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values that have no safe fallback
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.API.RateLimit <= 0 {
		return fmt.Errorf("API_RATE_LIMIT must be positive, got %v", c.API.RateLimit)
	}
	if c.API.RateBurst < 1 {
		return fmt.Errorf("API_RATE_BURST must be at least 1, got %d", c.API.RateBurst)
	}

	if c.API.MaxStocks < 1 {
		return fmt.Errorf("API_MAX_STOCKS must be at least 1, got %d", c.API.MaxStocks)
	}

	// 스케줄 작업은 DB 패널이 있어야 동작
	if c.Portfolio.SchedulerEnabled && !c.Database.Enabled() {
		return fmt.Errorf("SCHEDULER_ENABLED requires DATABASE_URL")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// Package config provides configuration for the performance engine, loaded
// from environment variables and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all engine configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	MarketData MarketDataConfig
	Scheduler  SchedulerConfig
	Ranking    RankingConfig
	Logging    LoggingConfig
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig groups storage backends.
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds the quote-cache connection settings.
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// MarketDataConfig holds the historical price provider settings.
type MarketDataConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	BenchmarkSymbol   string
}

// SchedulerConfig holds the batch run cadence.
type SchedulerConfig struct {
	Enabled         bool
	RankingInterval time.Duration
}

// RankingConfig holds leaderboard policy knobs.
type RankingConfig struct {
	// PerPortfolioBaseline scales the session starting cash by each user's
	// portfolio count when computing return percent. Kept configurable
	// pending product clarification on multi-portfolio allocations.
	PerPortfolioBaseline bool
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from a .env file (optional) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "portfolio_engine"),
				User:           getEnv("POSTGRES_USER", "engine"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		MarketData: MarketDataConfig{
			BaseURL:           getEnv("MARKET_DATA_BASE_URL", "https://data.example.com"),
			APIKey:            getEnv("MARKET_DATA_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("MARKET_DATA_RPS", 5),
			Burst:             getEnvAsInt("MARKET_DATA_BURST", 10),
			Timeout:           getEnvAsDuration("MARKET_DATA_TIMEOUT", 15*time.Second),
			BenchmarkSymbol:   getEnv("BENCHMARK_SYMBOL", "^GSPC"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getEnvAsBool("SCHEDULER_ENABLED", true),
			RankingInterval: getEnvAsDuration("RANKING_INTERVAL", 15*time.Minute),
		},
		Ranking: RankingConfig{
			PerPortfolioBaseline: getEnvAsBool("RANKING_PER_PORTFOLIO_BASELINE", true),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive")
	}
	if c.MarketData.RequestsPerSecond <= 0 {
		return fmt.Errorf("MARKET_DATA_RPS must be positive")
	}
	if c.MarketData.BenchmarkSymbol == "" {
		return fmt.Errorf("BENCHMARK_SYMBOL must not be empty")
	}
	if c.Scheduler.RankingInterval < time.Minute {
		return fmt.Errorf("RANKING_INTERVAL must be at least one minute")
	}
	return nil
}

// PostgresURL builds the connection URL used by migrations.
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

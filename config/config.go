package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment
// variables or a .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=mtmengine
//	REDIS_URL=redis://localhost:6379/0
//	REDIS_TTL=10m
//	HORIZON_MONTHS=13
//	BIODIESEL_MARKER=Argus
//	PRODUCTS_FILE=./config/products.yaml
//	PRORATE_PRICING_PERIODS=false
//	EFP_INSTRUMENT=ICE GASOIL FUTURES
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Redis    RedisConfig    // price cache
	Engine   EngineConfig   // exposure and valuation tuning
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // TCP port the HTTP server listens on (e.g. "8080")
	RequestTimeout time.Duration // per-request context deadline
	RateLimit      int           // requests per minute per client IP, 0 disables
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// RedisConfig configures the price cache. An empty URL disables caching.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// EngineConfig tunes the exposure and MTM engines.
//
// Fields:
//   - HorizonMonths: months in the exposure table.
//   - BiodieselMarker: overrides the vocabulary's biodiesel marker when set.
//   - ProductsFile: YAML product vocabulary; empty uses the built-in one.
//   - ProratePricingPeriods: spread pricing exposures over the pricing
//     period's working days instead of a single month.
//   - EFPInstrument: futures contract EFP legs are priced against.
type EngineConfig struct {
	HorizonMonths         int
	BiodieselMarker       string
	ProductsFile          string
	ProratePricingPeriods bool
	EFPInstrument         string
}

// AppConfig is the globally accessible configuration instance, populated
// once by LoadConfig.
var AppConfig Config

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Missing required values terminate the process through validateConfig.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "mtmengine")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_TTL", "10m")

	viper.SetDefault("HORIZON_MONTHS", 13)
	viper.SetDefault("BIODIESEL_MARKER", "")
	viper.SetDefault("PRODUCTS_FILE", "")
	viper.SetDefault("PRORATE_PRICING_PERIODS", false)
	viper.SetDefault("EFP_INSTRUMENT", "ICE GASOIL FUTURES")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
			RateLimit:      viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
			TTL: viper.GetDuration("REDIS_TTL"),
		},
		Engine: EngineConfig{
			HorizonMonths:         viper.GetInt("HORIZON_MONTHS"),
			BiodieselMarker:       viper.GetString("BIODIESEL_MARKER"),
			ProductsFile:          viper.GetString("PRODUCTS_FILE"),
			ProratePricingPeriods: viper.GetBool("PRORATE_PRICING_PERIODS"),
			EFPInstrument:         viper.GetString("EFP_INSTRUMENT"),
		},
	}

	AppConfig.Postgres.URL = postgresURL(AppConfig.Postgres)

	validateConfig()
}

func postgresURL(p PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// validateConfig terminates the process with log.Fatalf when a required
// value is missing or out of range.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Engine.HorizonMonths <= 0 {
		missing = append(missing, "HORIZON_MONTHS")
	}
	if AppConfig.Redis.URL != "" && AppConfig.Redis.TTL <= 0 {
		missing = append(missing, "REDIS_TTL")
	}

	if len(missing) > 0 {
		log.Fatalf("missing or invalid environment variables: %v\n", missing)
	}
}

// Package config loads runtime settings from the environment, with an optional .env file.
package config

import (
	"fmt"
	"time"

	"backoffice_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every knob the server reads at startup.
type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	LogPretty       bool
	ShutdownTimeout time.Duration

	DB DBConfig

	CORSAllowedOrigins []string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ReportCacheTTL time.Duration

	AMQPURL      string
	AMQPExchange string
}

// DBConfig describes the PostgreSQL connection and pool.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ApplySchema     bool
}

// DSN returns the lib/pq key/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment only")
	}

	return Config{
		Port:            utils.Getenv("PORT", "8080"),
		GinMode:         utils.Getenv("GIN_MODE", "release"),
		LogLevel:        utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:       utils.GetenvBool("LOG_PRETTY", false),
		ShutdownTimeout: time.Duration(utils.GetenvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		DB: DBConfig{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "backoffice"),
			Password:        utils.Getenv("DB_PASSWORD", "backoffice"),
			Name:            utils.Getenv("DB_NAME", "backoffice"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(utils.GetenvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			ApplySchema:     utils.GetenvBool("DB_APPLY_SCHEMA", false),
		},
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		RedisAddr:          utils.Getenv("REDIS_ADDR", ""),
		RedisPassword:      utils.Getenv("REDIS_PASSWORD", ""),
		RedisDB:            utils.GetenvInt("REDIS_DB", 0),
		ReportCacheTTL:     time.Duration(utils.GetenvInt("REPORT_CACHE_TTL_SECONDS", 300)) * time.Second,
		AMQPURL:            utils.Getenv("AMQP_URL", ""),
		AMQPExchange:       utils.Getenv("AMQP_EXCHANGE", "backoffice.events"),
	}
}

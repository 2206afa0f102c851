// Package config loads console and service settings with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Configuration keys. Each is also read from the environment under the same name.
const (
	KeyConsoleBaseURL     = "CONSOLE_BASE_URL"
	KeyConsoleTimeout     = "CONSOLE_TIMEOUT"
	KeyConsoleItemDetails = "CONSOLE_ITEM_DETAILS"
	KeyLogLevel           = "LOG_LEVEL"
	KeyAppPort            = "APP_PORT"
	KeyDatabaseDriver     = "DATABASE_DRIVER"
	KeyDatabaseDSN        = "DATABASE_DSN"
	KeyRabbitMQURL        = "RABBITMQ_URL"
)

// Storage drivers understood by the order service.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ConsoleConfig holds the orderctl settings.
type ConsoleConfig struct {
	BaseURL     string
	Timeout     time.Duration
	ItemDetails bool
	LogLevel    string
}

// ServerConfig holds the order service settings.
type ServerConfig struct {
	Port           string
	DatabaseDriver string
	DatabaseDSN    string
	RabbitMQURL    string
	LogLevel       string
}

// New returns a viper instance with defaults and environment binding. When
// file is not empty it is read as well; a missing file is an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyConsoleBaseURL, "http://localhost:8080")
	v.SetDefault(KeyConsoleTimeout, "0s")
	v.SetDefault(KeyConsoleItemDetails, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAppPort, ":8080")
	v.SetDefault(KeyDatabaseDriver, DriverSQLite)
	v.SetDefault(KeyDatabaseDSN, "orders.db")
	v.SetDefault(KeyRabbitMQURL, "")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return v, nil
}

// Console extracts the console settings from v.
func Console(v *viper.Viper) (ConsoleConfig, error) {
	cfg := ConsoleConfig{
		BaseURL:     strings.TrimSpace(v.GetString(KeyConsoleBaseURL)),
		Timeout:     v.GetDuration(KeyConsoleTimeout),
		ItemDetails: v.GetBool(KeyConsoleItemDetails),
		LogLevel:    v.GetString(KeyLogLevel),
	}
	if cfg.BaseURL == "" {
		return ConsoleConfig{}, errors.New("config: CONSOLE_BASE_URL must not be empty")
	}
	if cfg.Timeout < 0 {
		return ConsoleConfig{}, fmt.Errorf("config: CONSOLE_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	return cfg, nil
}

// Server extracts the order service settings from v.
func Server(v *viper.Viper) (ServerConfig, error) {
	cfg := ServerConfig{
		Port:           v.GetString(KeyAppPort),
		DatabaseDriver: strings.ToLower(strings.TrimSpace(v.GetString(KeyDatabaseDriver))),
		DatabaseDSN:    v.GetString(KeyDatabaseDSN),
		RabbitMQURL:    strings.TrimSpace(v.GetString(KeyRabbitMQURL)),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return ServerConfig{}, fmt.Errorf("config: unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver != DriverMemory && cfg.DatabaseDSN == "" {
		return ServerConfig{}, errors.New("config: DATABASE_DSN must not be empty")
	}
	return cfg, nil
}

// NewLogger builds a text logger at level.
func NewLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

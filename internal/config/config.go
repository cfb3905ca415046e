// Package config loads the portal runtime configuration from the process
// environment, optionally seeded from a local .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Booking write modes.
const (
	BookingOverwrite      = "overwrite"
	BookingInsertIfAbsent = "insert_if_absent"
)

// Config captures environment driven configuration values for the portal service.
type Config struct {
	HTTPPort          int           `env:"PORTAL_HTTP_PORT" envDefault:"8080"`
	SQLitePath        string        `env:"PORTAL_SQLITE_PATH" envDefault:"portal.db"`
	SessionSecret     string        `env:"PORTAL_SESSION_SECRET,required,notEmpty"`
	SessionTTL        time.Duration `env:"PORTAL_SESSION_TTL" envDefault:"24h"`
	LogLevel          string        `env:"PORTAL_LOG_LEVEL" envDefault:"info"`
	Timezone          string        `env:"PORTAL_TIMEZONE" envDefault:"America/Sao_Paulo"`
	BookingWriteMode  string        `env:"PORTAL_BOOKING_WRITE_MODE" envDefault:"overwrite"`
	PostalCodeURL     string        `env:"PORTAL_POSTAL_CODE_URL" envDefault:"https://viacep.com.br/ws"`
	PostalCodeTimeout time.Duration `env:"PORTAL_POSTAL_CODE_TIMEOUT" envDefault:"3s"`
	TracingEnabled    bool          `env:"PORTAL_TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string        `env:"PORTAL_TRACING_ENDPOINT" envDefault:"http://localhost:4318"`

	location *time.Location
	level    slog.Level
}

// Location returns the loaded portal timezone.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level {
	return c.level
}

// Load reads an optional .env file and parses the environment.
//
// Missing required variables and unparsable values are collected and
// reported together in a localized error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (Config, error) {
	var cfg Config
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if err := env.Parse(&cfg); err != nil {
		var aggregate env.AggregateError
		if !errors.As(err, &aggregate) {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
		for _, item := range aggregate.Errors {
			switch e := item.(type) {
			case env.EnvVarIsNotSetError:
				missing = append(missing, e.Key)
			case env.EmptyEnvVarError:
				missing = append(missing, e.Key)
			case env.ParseError:
				invalid = append(invalid, envKey(e.Name))
			default:
				return Config{}, fmt.Errorf("parse env: %w", err)
			}
		}
	}

	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	if cfg.SessionSecret == "" && !contains(missing, "PORTAL_SESSION_SECRET") {
		missing = append(missing, "PORTAL_SESSION_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias não definidas: %s", strings.Join(missing, ", "))
	}

	if cfg.HTTPPort <= 0 && !contains(invalid, "PORTAL_HTTP_PORT") {
		invalid = append(invalid, "PORTAL_HTTP_PORT")
	}
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		invalid = append(invalid, "PORTAL_SQLITE_PATH")
	}
	if cfg.SessionTTL <= 0 && !contains(invalid, "PORTAL_SESSION_TTL") {
		invalid = append(invalid, "PORTAL_SESSION_TTL")
	}
	if err := cfg.level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		invalid = append(invalid, "PORTAL_LOG_LEVEL")
	}
	if loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone)); err != nil {
		invalid = append(invalid, "PORTAL_TIMEZONE")
	} else {
		cfg.location = loc
	}
	switch cfg.BookingWriteMode {
	case BookingOverwrite, BookingInsertIfAbsent:
	default:
		invalid = append(invalid, "PORTAL_BOOKING_WRITE_MODE")
	}
	if cfg.PostalCodeTimeout <= 0 && !contains(invalid, "PORTAL_POSTAL_CODE_TIMEOUT") {
		invalid = append(invalid, "PORTAL_POSTAL_CODE_TIMEOUT")
	}
	if cfg.TracingEnabled && strings.TrimSpace(cfg.TracingEndpoint) == "" {
		invalid = append(invalid, "PORTAL_TRACING_ENDPOINT")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// envKey maps a struct field name back to its environment variable.
func envKey(field string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return field
	}
	key, _, _ := strings.Cut(f.Tag.Get("env"), ",")
	return key
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

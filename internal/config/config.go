// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinJWTSecretLength is the shortest accepted HS256 signing secret.
const MinJWTSecretLength = 32

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Database
	DBBackend   string
	DBPath      string
	DatabaseURL string

	// Auth
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// AI extraction service
	AIServiceURL string
	AITimeout    time.Duration

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel  string
	LogFormat string

	// parseErrors holds environment values Load could not parse.
	// The defaults are used in their place and Validate reports them.
	parseErrors []string
}

// Load reads the configuration from the environment. Unparsable numeric
// or duration values fall back to their defaults and are reported by
// Validate.
func Load() *Config {
	var parseErrors []string
	c := &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		DBBackend:   getEnv("DB_BACKEND", "sqlite"),
		DBPath:      getEnv("DB_PATH", "./data/centsai.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour, &parseErrors),
		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost, &parseErrors),

		AIServiceURL: getEnv("AI_SERVICE_URL", ""),
		AITimeout:    getEnvDuration("AI_TIMEOUT", 30*time.Second, &parseErrors),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "centsai.events"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
	c.parseErrors = parseErrors
	return c
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBBackend {
	case "sqlite":
		if c.DBPath == "" {
			errors = append(errors, "DB_PATH cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database backend '%s': must be one of [sqlite postgres]", c.DBBackend))
	}

	if len(c.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.JWTTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.AIServiceURL == "" {
		errors = append(errors, "AI_SERVICE_URL is required")
	} else if parsedURL, err := url.Parse(c.AIServiceURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AI service URL '%s': %v", c.AIServiceURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid AI service URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.AITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid AI timeout %v: must be positive", c.AITimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid %s '%s': must be a duration such as 30s or 24h", key, value))
		return defaultValue
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

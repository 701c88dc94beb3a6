// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Ingest   IngestConfig
	CORS     CORSConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. PORT is honoured for hosting platforms.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3001"`

	// ReadTimeout is the maximum duration for reading the request, body included
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including in-flight conversions
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds multipart upload settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted file in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// FormField is the multipart field carrying the file
	FormField string `env:"UPLOAD_FORM_FIELD" default:"csvFile"`

	// FallbackFields are tried, in order, when FormField is absent
	FallbackFields []string `env:"UPLOAD_FALLBACK_FIELDS" default:"file"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a conversion slot
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// IngestConfig controls how uploaded files are read.
type IngestConfig struct {
	// Encodings are tried in order until one yields rows
	Encodings []string `env:"INGEST_ENCODINGS" default:"utf-8,windows-1252"`

	// Delimiter is "auto", "comma", "semicolon", "tab" or "pipe"
	Delimiter string `env:"INGEST_DELIMITER" default:"auto"`

	// EmptyPolicy is "reject" (400) or "allow" (200 with [])
	EmptyPolicy string `env:"INGEST_EMPTY_POLICY" default:"reject"`

	// NationalIDMode is "digits" or "strip"
	NationalIDMode string `env:"INGEST_NATIONAL_ID_MODE" default:"digits"`

	// AliasesFile optionally adds header aliases (YAML or TOML)
	AliasesFile string `env:"INGEST_ALIASES_FILE"`
}

// CORSConfig holds the browser origin allow-list.
type CORSConfig struct {
	// AllowedOrigins lists frontend origins; "*" allows any
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envAlt:"FRONTEND_URL" default:"http://localhost:3000"`

	// AllowedMethods lists permitted request methods
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" default:"GET,POST"`

	// AllowedHeaders lists permitted request headers
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" default:"Content-Type"`

	// MaxAge is how long browsers may cache a preflight response
	MaxAge time.Duration `env:"CORS_MAX_AGE" default:"10m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the upload endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UploadFields returns the multipart field names to look for, in order.
func (c *UploadConfig) UploadFields() []string {
	fields := make([]string, 0, 1+len(c.FallbackFields))
	fields = append(fields, c.FormField)
	for _, f := range c.FallbackFields {
		if f != c.FormField {
			fields = append(fields, f)
		}
	}
	return fields
}

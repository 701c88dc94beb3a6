package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if strings.TrimSpace(c.Upload.FormField) == "" {
		errs = append(errs, "UPLOAD_FORM_FIELD must not be empty")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}

	// Ingest validation
	errs = append(errs, c.Ingest.problems()...)

	// CORS validation
	if len(c.CORS.AllowedOrigins) == 0 {
		errs = append(errs, "CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	if c.CORS.MaxAge < 0 {
		errs = append(errs, "CORS_MAX_AGE must be non-negative")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Security validation
	for _, cidr := range c.Security.TrustedProxies {
		_, prefixErr := netip.ParsePrefix(cidr)
		_, addrErr := netip.ParseAddr(cidr)
		if prefixErr != nil && addrErr != nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is neither a CIDR nor an IP address", cidr))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Validate checks the ingest settings alone, for callers that never read
// the server sections.
func (c *IngestConfig) Validate() error {
	if errs := c.problems(); len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *IngestConfig) problems() []string {
	var errs []string
	if _, err := c.PipelineOptions(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.NationalID(); err != nil {
		errs = append(errs, fmt.Sprintf("INGEST_NATIONAL_ID_MODE: %v", err))
	}
	return errs
}

// PipelineOptions resolves the ingest settings into conversion options.
func (c *IngestConfig) PipelineOptions() (core.Options, error) {
	encodings, err := core.ParseEncodings(c.Encodings)
	if err != nil {
		return core.Options{}, fmt.Errorf("INGEST_ENCODINGS: %w", err)
	}

	delim, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return core.Options{}, fmt.Errorf("INGEST_DELIMITER: %w", err)
	}

	policy, err := core.ParseEmptyPolicy(strings.ToLower(c.EmptyPolicy))
	if err != nil {
		return core.Options{}, fmt.Errorf("INGEST_EMPTY_POLICY: %w", err)
	}

	return core.Options{
		Encodings:   encodings,
		Delimiter:   delim,
		EmptyPolicy: policy,
	}, nil
}

// NationalID resolves the CNPJ / CPF cleanup mode.
func (c *IngestConfig) NationalID() (schema.NationalIDMode, error) {
	return schema.ParseNationalIDMode(c.NationalIDMode)
}

// ParseDelimiter maps a configured delimiter name to a rune.
// "auto" and "" return 0, meaning detect per file.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q (want auto, comma, semicolon, tab or pipe)", s)
	}
}

// String returns a safe string representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, Fields: %v, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.UploadFields(), c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Ingest: {Encodings: %v, Delimiter: %q, EmptyPolicy: %q, NationalIDMode: %q, AliasesFile: %q}, ",
		c.Ingest.Encodings, c.Ingest.Delimiter, c.Ingest.EmptyPolicy, c.Ingest.NationalIDMode, c.Ingest.AliasesFile)
	fmt.Fprintf(&b, "CORS: {AllowedOrigins: %v}, ", c.CORS.AllowedOrigins)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, UploadLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.UploadLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

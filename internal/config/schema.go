package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds pdf-o-matico configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Uploads   UploadsCfg   `mapstructure:"uploads" yaml:"uploads"`
	Rasterize RasterizeCfg `mapstructure:"rasterize" yaml:"rasterize"`
	PDF       PDFCfg       `mapstructure:"pdf" yaml:"pdf"`
	RateLimit RateLimitCfg `mapstructure:"rate_limit" yaml:"rate_limit"`
	Log       LogCfg       `mapstructure:"log" yaml:"log"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"` // Per request, all files together
}

// UploadsCfg configures the transient upload store.
type UploadsCfg struct {
	// Dir is the store root (default: {home}/uploads). Supports ${ENV_VAR} syntax.
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// RasterizeCfg configures page rendering.
type RasterizeCfg struct {
	Binary  string `mapstructure:"binary" yaml:"binary"`   // pdftoppm path or name on PATH
	DPI     int    `mapstructure:"dpi" yaml:"dpi"`
	Workers int    `mapstructure:"workers" yaml:"workers"` // 0 = one per CPU
	Retries int    `mapstructure:"retries" yaml:"retries"` // Attempts per page
}

// PDFCfg configures document validation.
type PDFCfg struct {
	Validation string `mapstructure:"validation" yaml:"validation"` // "relaxed" or "strict"
}

// Strict reports whether strict validation is configured.
func (c PDFCfg) Strict() bool {
	return strings.EqualFold(c.Validation, "strict")
}

// RateLimitCfg configures per-client request limiting.
type RateLimitCfg struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"` // 0 disables
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// SlogLevel parses Level, falling back to info.
func (c LogCfg) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:            "127.0.0.1",
			Port:            "8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadMB:     100,
		},
		Uploads: UploadsCfg{
			SessionTTL:    time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Rasterize: RasterizeCfg{
			Binary:  "pdftoppm",
			DPI:     150,
			Workers: 0,
			Retries: 2,
		},
		PDF: PDFCfg{
			Validation: "relaxed",
		},
		RateLimit: RateLimitCfg{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Log: LogCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	switch strings.ToLower(c.PDF.Validation) {
	case "relaxed", "strict":
	default:
		return fmt.Errorf("pdf.validation must be relaxed or strict, got %q", c.PDF.Validation)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Rasterize.DPI <= 0 {
		return fmt.Errorf("rasterize.dpi must be positive, got %d", c.Rasterize.DPI)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second cannot be negative")
	}
	return nil
}

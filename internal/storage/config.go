package storage

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/StoRi/internal/errs"
	"github.com/koustreak/StoRi/internal/rest"
)

// Config holds all settings needed to talk to a storage endpoint.
type Config struct {
	// BaseURL is the root of the storage API, e.g.
	// "https://project.example.com/storage/v1".
	BaseURL string

	// APIKey is the bearer credential sent with every request.
	APIKey string

	// Timeout is the per-request deadline applied by the default
	// transport. Ignored when a custom transport is injected.
	Timeout time.Duration

	// ChunkSize is the read size for streamed downloads.
	ChunkSize int

	// LogLevel / LogFormat configure the client logger when the caller
	// does not inject one. Empty leaves the client silent.
	LogLevel  string
	LogFormat string
}

// DefaultConfig returns production-ready defaults for the given endpoint.
func DefaultConfig(baseURL, apiKey string) *Config {
	return &Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Timeout:   30 * time.Second,
		ChunkSize: rest.DefaultChunkSize,
	}
}

// configFile is the YAML shape of a config file. Timeout is a duration
// string ("30s", "2m").
type configFile struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Timeout   string `yaml:"timeout"`
	ChunkSize int    `yaml:"chunk_size"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// LoadConfig reads a YAML config file and fills unset fields with the
// defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to read config file", err)
	}

	var file configFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to parse config file", err)
	}
	if file.BaseURL == "" {
		return nil, errs.New(errs.ErrKindValidation, "base_url is required")
	}

	cfg := DefaultConfig(file.BaseURL, file.APIKey)
	cfg.LogLevel = file.LogLevel
	cfg.LogFormat = file.LogFormat
	if file.ChunkSize > 0 {
		cfg.ChunkSize = file.ChunkSize
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindValidation, "invalid timeout", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

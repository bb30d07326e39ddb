// Package config loads landreg settings from LANDREG_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Environments. Anything other than development talks to the public network.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Transports.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

type Config struct {
	Env        string        // LANDREG_ENV (default "development")
	Host       string        // LANDREG_HOST (default depends on Env and Transport)
	Transport  string        // LANDREG_TRANSPORT (default "http")
	CanisterID string        // LANDREG_REGISTRY_CANISTER_ID (required, see Validate)
	Principal  string        // LANDREG_PRINCIPAL (identity to call as)
	Token      string        // LANDREG_TOKEN (bearer credential)
	HMACKeyID  string        // LANDREG_HMAC_KEY_ID (signs calls with HMAC when set with a secret)
	HMACSecret string        // LANDREG_HMAC_SECRET
	Timeout    time.Duration // LANDREG_TIMEOUT (default 30s)
	NATSURL    string        // LANDREG_NATS_URL (optional, empty = no events)

	MetricsAddr string // LANDREG_METRICS_ADDR (optional, empty = no /metrics listener)

	// Export settings
	ExportInterval    time.Duration // LANDREG_EXPORT_INTERVAL (default 0 = one-shot)
	ExportS3Bucket    string        // LANDREG_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint  string        // LANDREG_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region    string        // LANDREG_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key       string        // LANDREG_EXPORT_S3_KEY (default "landreg/portfolio.jsonl")
	ExportGitRepo     string        // LANDREG_EXPORT_GIT_REPO (enables git when set; path to clone)
	ExportGitFile     string        // LANDREG_EXPORT_GIT_FILE (default "portfolio.jsonl")
	ExportGitBranch   string        // LANDREG_EXPORT_GIT_BRANCH (default "main")
	ExportDatabaseURL string        // LANDREG_EXPORT_DATABASE_URL (enables Postgres snapshots when set)
}

// Load reads the environment. It fails only on malformed values; required
// settings are checked by Validate once flags and profiles have been applied.
func Load() (*Config, error) {
	c := &Config{
		Env:               envOrDefault("LANDREG_ENV", EnvDevelopment),
		Transport:         envOrDefault("LANDREG_TRANSPORT", TransportHTTP),
		CanisterID:        os.Getenv("LANDREG_REGISTRY_CANISTER_ID"),
		Principal:         os.Getenv("LANDREG_PRINCIPAL"),
		Token:             os.Getenv("LANDREG_TOKEN"),
		HMACKeyID:         os.Getenv("LANDREG_HMAC_KEY_ID"),
		HMACSecret:        os.Getenv("LANDREG_HMAC_SECRET"),
		NATSURL:           os.Getenv("LANDREG_NATS_URL"),
		MetricsAddr:       os.Getenv("LANDREG_METRICS_ADDR"),
		ExportS3Bucket:    os.Getenv("LANDREG_EXPORT_S3_BUCKET"),
		ExportS3Endpoint:  os.Getenv("LANDREG_EXPORT_S3_ENDPOINT"),
		ExportS3Region:    envOrDefault("LANDREG_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:       envOrDefault("LANDREG_EXPORT_S3_KEY", "landreg/portfolio.jsonl"),
		ExportGitRepo:     os.Getenv("LANDREG_EXPORT_GIT_REPO"),
		ExportGitFile:     envOrDefault("LANDREG_EXPORT_GIT_FILE", "portfolio.jsonl"),
		ExportGitBranch:   envOrDefault("LANDREG_EXPORT_GIT_BRANCH", "main"),
		ExportDatabaseURL: os.Getenv("LANDREG_EXPORT_DATABASE_URL"),
	}
	c.Host = envOrDefault("LANDREG_HOST", DefaultHost(c.Env, c.Transport))

	var err error
	if c.Timeout, err = envDuration("LANDREG_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = envDuration("LANDREG_EXPORT_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultHost returns the ledger endpoint used when LANDREG_HOST is unset.
func DefaultHost(env, transport string) string {
	if transport == TransportGRPC {
		return "localhost:9090"
	}
	if env == EnvDevelopment {
		return "http://localhost:8000"
	}
	return "https://ic0.app"
}

// Validate checks the settings every ledger call needs.
func (c *Config) Validate() error {
	if c.CanisterID == "" {
		return fmt.Errorf("LANDREG_REGISTRY_CANISTER_ID is required")
	}
	switch c.Transport {
	case TransportHTTP, TransportGRPC:
	default:
		return fmt.Errorf("LANDREG_TRANSPORT: unknown transport %q (must be http or grpc)", c.Transport)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("LANDREG_TIMEOUT: must not be negative")
	}
	return nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

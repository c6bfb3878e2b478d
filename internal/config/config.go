// Package config defines the top-level configuration for the exchange
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARCX_* environment variables.
type Config struct {
	Exchange Exchange       `toml:"exchange"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Archive  ArchiveConfig  `toml:"archive"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// Exchange holds the exchange's signing-domain identity and settlement
// parameters.
type Exchange struct {
	// ChainID and ContractAddress parameterize the EIP-712 signing domain.
	ChainID         int64  `toml:"chain_id"`
	ContractAddress string `toml:"contract_address"`

	WrappedNative        string `toml:"wrapped_native"`
	ProtocolFeeRecipient string `toml:"protocol_fee_recipient"`

	// ProtocolFeeBps applies to the fixed-price strategies; PrivateSaleFeeBps
	// to private sales (historically zero).
	ProtocolFeeBps    int `toml:"protocol_fee_bps"`
	PrivateSaleFeeBps int `toml:"private_sale_fee_bps"`

	RoyaltyFeeCeilingBps int `toml:"royalty_fee_ceiling_bps"`

	// Relays may submit taker orders on behalf of other takers.
	Relays []string `toml:"relays"`

	// Currencies whitelisted at startup, wrapped_native included.
	Currencies []string `toml:"currencies"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	AdminAPIKey string   `toml:"admin_api_key"`
	CORSOrigins []string `toml:"cors_origins"`

	// RateLimit requests per window per client; zero disables limiting.
	RateLimit       int `toml:"rate_limit"`
	RateLimitWindow int `toml:"rate_limit_window_sec"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Exchange: Exchange{
			ChainID:              1,
			ProtocolFeeBps:       200,
			PrivateSaleFeeBps:    0,
			RoyaltyFeeCeilingBps: 9500,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arcx",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arcx-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: 1,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
		},
		Mode:     "local",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode. "local" runs
// against the in-memory ledger with no external infrastructure; "server"
// wires PostgreSQL, Redis, and S3.
var validModes = map[string]bool{
	"local":  true,
	"server": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: local, server)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Exchange
	if c.Exchange.ChainID <= 0 {
		errs = append(errs, "exchange: chain_id must be positive")
	}
	if !isAddress(c.Exchange.ContractAddress) {
		errs = append(errs, "exchange: contract_address must be a hex address")
	}
	if !isAddress(c.Exchange.WrappedNative) {
		errs = append(errs, "exchange: wrapped_native must be a hex address")
	}
	if !isAddress(c.Exchange.ProtocolFeeRecipient) {
		errs = append(errs, "exchange: protocol_fee_recipient must be a hex address")
	}
	if c.Exchange.ProtocolFeeBps < 0 || c.Exchange.ProtocolFeeBps > 10000 {
		errs = append(errs, fmt.Sprintf("exchange: protocol_fee_bps must be 0-10000, got %d", c.Exchange.ProtocolFeeBps))
	}
	if c.Exchange.PrivateSaleFeeBps < 0 || c.Exchange.PrivateSaleFeeBps > 10000 {
		errs = append(errs, fmt.Sprintf("exchange: private_sale_fee_bps must be 0-10000, got %d", c.Exchange.PrivateSaleFeeBps))
	}
	if c.Exchange.RoyaltyFeeCeilingBps < 0 || c.Exchange.RoyaltyFeeCeilingBps > 10000 {
		errs = append(errs, fmt.Sprintf("exchange: royalty_fee_ceiling_bps must be 0-10000, got %d", c.Exchange.RoyaltyFeeCeilingBps))
	}
	for _, r := range c.Exchange.Relays {
		if !isAddress(r) {
			errs = append(errs, fmt.Sprintf("exchange: relay %q is not a hex address", r))
		}
	}
	for _, cur := range c.Exchange.Currencies {
		if !isAddress(cur) {
			errs = append(errs, fmt.Sprintf("exchange: currency %q is not a hex address", cur))
		}
	}

	// Server-mode infrastructure.
	if strings.ToLower(c.Mode) == "server" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Archive.Enabled {
			if c.S3.Endpoint == "" {
				errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
			}
			if c.S3.Bucket == "" {
				errs = append(errs, "s3: bucket must not be empty when archive is enabled")
			}
			if c.Archive.RetentionDays < 1 {
				errs = append(errs, "archive: retention_days must be >= 1")
			}
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow < 1 {
		errs = append(errs, "server: rate_limit_window_sec must be >= 1 when rate_limit is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isAddress reports whether s parses as a 20-byte hex address.
func isAddress(s string) bool {
	return common.IsHexAddress(s)
}

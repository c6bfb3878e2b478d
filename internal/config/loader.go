package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARCX_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARCX_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Exchange ──
	setInt64(&cfg.Exchange.ChainID, "ARCX_EXCHANGE_CHAIN_ID")
	setStr(&cfg.Exchange.ContractAddress, "ARCX_EXCHANGE_CONTRACT_ADDRESS")
	setStr(&cfg.Exchange.WrappedNative, "ARCX_EXCHANGE_WRAPPED_NATIVE")
	setStr(&cfg.Exchange.ProtocolFeeRecipient, "ARCX_EXCHANGE_PROTOCOL_FEE_RECIPIENT")
	setInt(&cfg.Exchange.ProtocolFeeBps, "ARCX_EXCHANGE_PROTOCOL_FEE_BPS")
	setInt(&cfg.Exchange.PrivateSaleFeeBps, "ARCX_EXCHANGE_PRIVATE_SALE_FEE_BPS")
	setInt(&cfg.Exchange.RoyaltyFeeCeilingBps, "ARCX_EXCHANGE_ROYALTY_FEE_CEILING_BPS")
	setStringSlice(&cfg.Exchange.Relays, "ARCX_EXCHANGE_RELAYS")
	setStringSlice(&cfg.Exchange.Currencies, "ARCX_EXCHANGE_CURRENCIES")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARCX_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARCX_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARCX_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARCX_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARCX_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARCX_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARCX_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARCX_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARCX_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARCX_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARCX_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARCX_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARCX_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARCX_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARCX_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARCX_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARCX_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARCX_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARCX_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARCX_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARCX_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARCX_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARCX_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "ARCX_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARCX_SERVER_API_KEY")
	setStr(&cfg.Server.AdminAPIKey, "ARCX_SERVER_ADMIN_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARCX_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ARCX_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.RateLimitWindow, "ARCX_SERVER_RATE_LIMIT_WINDOW_SEC")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ARCX_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "ARCX_ARCHIVE_RETENTION_DAYS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARCX_MODE")
	setStr(&cfg.LogLevel, "ARCX_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

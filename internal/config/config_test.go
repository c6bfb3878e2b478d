package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contractAddr  = "0x000000000000000000000000000000000000c0de"
	wrappedAddr   = "0x0000000000000000000000000000000000001111"
	recipientAddr = "0x0000000000000000000000000000000000002222"
)

func validLocal() Config {
	cfg := Defaults()
	cfg.Exchange.ContractAddress = contractAddr
	cfg.Exchange.WrappedNative = wrappedAddr
	cfg.Exchange.ProtocolFeeRecipient = recipientAddr
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "local", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1), cfg.Exchange.ChainID)
	assert.Equal(t, 200, cfg.Exchange.ProtocolFeeBps)
	assert.Equal(t, 0, cfg.Exchange.PrivateSaleFeeBps)
	assert.Equal(t, 9500, cfg.Exchange.RoyaltyFeeCeilingBps)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.False(t, cfg.Archive.Enabled)
}

func TestValidateAcceptsLocalConfig(t *testing.T) {
	cfg := validLocal()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown mode":          func(c *Config) { c.Mode = "cluster" },
		"unknown log level":     func(c *Config) { c.LogLevel = "verbose" },
		"zero chain id":         func(c *Config) { c.Exchange.ChainID = 0 },
		"bad contract address":  func(c *Config) { c.Exchange.ContractAddress = "not-an-address" },
		"bad wrapped native":    func(c *Config) { c.Exchange.WrappedNative = "" },
		"bad fee recipient":     func(c *Config) { c.Exchange.ProtocolFeeRecipient = "0x123" },
		"fee bps over 10000":    func(c *Config) { c.Exchange.ProtocolFeeBps = 10001 },
		"negative royalty cap":  func(c *Config) { c.Exchange.RoyaltyFeeCeilingBps = -1 },
		"bad relay":             func(c *Config) { c.Exchange.Relays = []string{"nope"} },
		"bad currency":          func(c *Config) { c.Exchange.Currencies = []string{"nope"} },
		"bad server port":       func(c *Config) { c.Server.Port = 0 },
		"negative rate limit":   func(c *Config) { c.Server.RateLimit = -1 },
		"rate limit w/o window": func(c *Config) { c.Server.RateLimit = 10; c.Server.RateLimitWindow = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validLocal()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServerModeInfra(t *testing.T) {
	cfg := validLocal()
	cfg.Mode = "server"
	require.NoError(t, cfg.Validate(), "defaults carry a usable postgres/redis config")

	cfg.Postgres.Host = ""
	require.Error(t, cfg.Validate())

	// A DSN replaces the discrete connection fields.
	cfg.Postgres.DSN = "postgres://u:p@db:5432/arcx"
	require.NoError(t, cfg.Validate())

	cfg.Redis.Addr = ""
	require.Error(t, cfg.Validate())
	cfg.Redis.Addr = "localhost:6379"

	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""
	require.Error(t, cfg.Validate())
	cfg.S3.Bucket = "arcx-data"
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "server"
log_level = "debug"

[exchange]
chain_id = 137
contract_address = "`+contractAddr+`"
wrapped_native = "`+wrappedAddr+`"
protocol_fee_recipient = "`+recipientAddr+`"

[server]
port = 9100
`), 0o644))

	t.Setenv("ARCX_SERVER_PORT", "9200")
	t.Setenv("ARCX_REDIS_ADDR", "redis:6379")
	t.Setenv("ARCX_EXCHANGE_RELAYS", recipientAddr+" , "+wrappedAddr)

	cfg, err := Load(path)
	require.NoError(t, err)

	// File values override defaults.
	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(137), cfg.Exchange.ChainID)

	// Environment overrides the file.
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{recipientAddr, wrappedAddr}, cfg.Exchange.Relays)

	// Untouched fields keep their defaults.
	assert.Equal(t, 200, cfg.Exchange.ProtocolFeeBps)
	assert.Equal(t, "arcx", cfg.Postgres.Database)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validLocal()
	cfg.Postgres.Password = "hunter2"
	cfg.Postgres.DSN = "postgres://u:hunter2@db/arcx"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.APIKey = "hunter2"
	cfg.Server.AdminAPIKey = "hunter2"

	red := RedactedConfig(&cfg)
	assert.NotContains(t, red.Postgres.Password, "hunter2")
	assert.NotContains(t, red.Postgres.DSN, "hunter2")
	assert.NotContains(t, red.Redis.Password, "hunter2")
	assert.NotContains(t, red.S3.SecretKey, "hunter2")
	assert.NotContains(t, red.Server.APIKey, "hunter2")
	assert.NotContains(t, red.Server.AdminAPIKey, "hunter2")

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}

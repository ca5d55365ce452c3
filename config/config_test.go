package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, int64(100), cfg.Marketplace.UnitPrice)
	assert.Equal(t, int64(10), cfg.Marketplace.ReorderThreshold)
	assert.Equal(t, 1000.0, cfg.Marketplace.SearchRadiusKm)
	assert.Equal(t, "store", cfg.Marketplace.ReconcileScope)
	assert.Equal(t, 20, cfg.Marketplace.RecentRequestsLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "9000"
storage:
  driver: "memory"
jwt:
  secret: "from-file"
  expiration: 2h
marketplace:
  unitPrice: 250
  reconcileScope: "role"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides file")
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(250), cfg.Marketplace.UnitPrice)
	assert.Equal(t, "role", cfg.Marketplace.ReconcileScope)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Storage:     StorageConfig{Driver: "memory"},
			JWT:         JWTConfig{Secret: "s", Expiration: time.Hour},
			Marketplace: MarketplaceConfig{UnitPrice: 100, ReorderThreshold: 10, SearchRadiusKm: 1000, ReconcileScope: "store"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "bad scope", mutate: func(c *Config) { c.Marketplace.ReconcileScope = "all" }, wantErr: true},
		{name: "zero radius", mutate: func(c *Config) { c.Marketplace.SearchRadiusKm = 0 }, wantErr: true},
		{name: "seed without path", mutate: func(c *Config) { c.Seed.OnStartup = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("PORT", "9090")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 4, cfg.OutboxMaxAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	assert.Equal(t, "linksphere.audit", cfg.AuditExchange)
	assert.False(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: StorePostgres, DBName: "linksphere", JWTSecret: "s", OutboxMaxAttempts: 10}
	require.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWTSecret = ""
	assert.ErrorContains(t, noSecret.Validate(), "JWT_SECRET")

	badDriver := base
	badDriver.StoreDriver = "sqlite"
	assert.ErrorContains(t, badDriver.Validate(), "STORE_DRIVER")

	noAttempts := base
	noAttempts.OutboxMaxAttempts = 0
	assert.ErrorContains(t, noAttempts.Validate(), "OUTBOX_MAX_ATTEMPTS")
}

func TestDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "5432", DBUser: "app", DBPassword: "pw", DBName: "links"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=links sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://app@db/links"
	assert.Equal(t, "postgres://app@db/links", cfg.DSN())
}

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverPostgres, cfg.App.StoreDriver)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.StockInterval)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.CatalogInterval)
	assert.Equal(t, "backups", cfg.Backup.Dir)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("RECONCILE_ENABLED", "false")
	t.Setenv("RECONCILE_STOCK_INTERVAL", "90s")
	t.Setenv("RECONCILE_CATALOG_INTERVAL", "10")
	t.Setenv("BACKUP_DIR", "/var/backups/ledger")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreDriverMemory, cfg.App.StoreDriver)
	assert.False(t, cfg.Reconcile.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Reconcile.StockInterval)
	assert.Equal(t, 10*time.Second, cfg.Reconcile.CatalogInterval)
	assert.Equal(t, "/var/backups/ledger", cfg.Backup.Dir)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw@db:5432/ledger?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

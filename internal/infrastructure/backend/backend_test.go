package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
	"github.com/jhoicas/pharma-ledger/pkg/config"
)

func TestOpen_Memoria(t *testing.T) {
	b, err := backend.Open(context.Background(), config.Config{App: config.AppConfig{StoreDriver: config.StoreDriverMemory}})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.StoreDriverMemory, b.Driver)
	require.NotNil(t, b.TxRunner)
	src := b.BackupSources()
	assert.NotNil(t, src.Products)
	assert.NotNil(t, src.LegacyCatalog)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := backend.Open(context.Background(), config.Config{App: config.AppConfig{StoreDriver: "sqlite"}})
	assert.Error(t, err)
}

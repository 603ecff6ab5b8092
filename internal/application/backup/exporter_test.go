package backup_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/backup"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "P1", Name: "Acetaminofén", StockQuantity: 10, InStock: true}))
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "P2", Name: "Loratadina"}))
	require.NoError(t, s.Batches().Create(ctx, &entity.Batch{
		ID: "B1", ProductID: "P1", BatchNumber: "L1", ReceivedQuantity: 10, RemainingQuantity: 10,
		ExpirationDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Origin: entity.OriginReceipt, ReceiptID: "R1",
	}))
	require.NoError(t, s.Receipts().Create(ctx, &entity.Receipt{ID: "R1", SupplierID: "S1", Status: entity.ReceiptStatusCompleted, Origin: entity.OriginReceipt}))
	require.NoError(t, s.Suppliers().Create(ctx, &entity.Supplier{ID: "S1", Code: "SUP-1", Name: "Droguería"}))
	s.LegacyCatalog().Put(&entity.LegacyCatalogItem{ID: "L1", Name: "Loratadina", Stock: 4})
	return s
}

func sources(s *memory.Store) backup.Sources {
	return backup.Sources{
		Products:      s.Products(),
		Batches:       s.Batches(),
		Receipts:      s.Receipts(),
		Suppliers:     s.Suppliers(),
		LegacyCatalog: s.LegacyCatalog(),
	}
}

func TestExporter_EscribeArchivosYManifiesto(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snap")
	exp, err := backup.NewExporter(sources(seed(t)), zerolog.Nop())
	require.NoError(t, err)

	m, err := exp.Export(context.Background(), dir)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, e := range m.Entities {
		counts[e.Name] = e.Records
		require.Len(t, e.Files, 2)
		for _, f := range e.Files {
			raw, err := os.ReadFile(filepath.Join(dir, f.Name))
			require.NoError(t, err)
			h := sha256.Sum256(raw)
			assert.Equal(t, hex.EncodeToString(h[:]), f.SHA256, f.Name)
			assert.Equal(t, len(raw), f.Bytes)
		}
	}
	assert.Equal(t, map[string]int{"products": 2, "batches": 1, "receipts": 1, "suppliers": 1, "legacy_catalog": 1}, counts)
	assert.Equal(t, 6, m.Records())
	assert.NotEmpty(t, m.Restore)

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	var onDisk backup.Manifest
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, backup.ToolVersion, onDisk.ToolVersion)
	assert.Len(t, onDisk.Entities, 5)
}

func TestExporter_CompactoDescomprimeAlMismoContenido(t *testing.T) {
	dir := t.TempDir()
	exp, err := backup.NewExporter(sources(seed(t)), zerolog.Nop())
	require.NoError(t, err)
	_, err = exp.Export(context.Background(), dir)
	require.NoError(t, err)

	pretty, err := os.ReadFile(filepath.Join(dir, "batches.json"))
	require.NoError(t, err)
	compressed, err := os.ReadFile(filepath.Join(dir, "batches.json.zst"))
	require.NoError(t, err)

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	compact, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)

	var a, b []map[string]any
	require.NoError(t, json.Unmarshal(pretty, &a))
	require.NoError(t, json.Unmarshal(compact, &b))
	assert.Equal(t, a, b)
	require.Len(t, a, 1)
	assert.Equal(t, "B1", a[0]["ID"])
}

func TestDefaultDir(t *testing.T) {
	at := time.Date(2024, 12, 1, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, filepath.Join("backups", "20241201-090503"), backup.DefaultDir("", at))
	assert.Equal(t, filepath.Join("/var/bk", "20241201-090503"), backup.DefaultDir("/var/bk", at))
}

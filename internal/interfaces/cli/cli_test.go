package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/backup"
	"github.com/jhoicas/pharma-ledger/internal/application/migration"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/internal/interfaces/cli"
)

func seededBackend(t *testing.T) (*backend.Backend, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{
		ID: "P1", Name: "Loratadina 10mg", StockQuantity: 50, InStock: true, Source: entity.ProductSourceCanonical,
	}))
	return backend.FromMemory(s), s
}

// ─── Flags ───

func TestParseFlags(t *testing.T) {
	mf, err := cli.ParseMigrateFlags([]string{"--dry-run", "--summary", "out.json"})
	require.NoError(t, err)
	assert.Equal(t, cli.MigrateFlags{DryRun: true, SummaryPath: "out.json"}, mf)

	rf, err := cli.ParseRollbackFlags([]string{"--keep-stock", "--delete-receipts"})
	require.NoError(t, err)
	assert.True(t, rf.KeepStock)
	assert.True(t, rf.DeleteReceipts)

	at := time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)
	bf, err := cli.ParseBackupFlags(nil, "respaldos", at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("respaldos", "20241201-103000"), bf.OutDir)

	_, err = cli.ParseMigrateFlags([]string{"--no-existe"})
	assert.Error(t, err)

	_, err = cli.ParseSeedFlags([]string{"--charset", "iso-8859-1"})
	assert.Error(t, err, "falta el CSV de entrada")
}

// ─── Migración y rollback ───

func TestRunMigrate_EscribeResumenYSaleCero(t *testing.T) {
	b, s := seededBackend(t)
	path := filepath.Join(t.TempDir(), "resumen", "migracion.json")
	var out bytes.Buffer

	code := cli.RunMigrate(context.Background(), b, cli.MigrateFlags{SummaryPath: path}, zerolog.Nop(), &out)
	require.Equal(t, cli.ExitOK, code)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var sum migration.MigrationSummary
	require.NoError(t, json.Unmarshal(raw, &sum))
	assert.Equal(t, 1, sum.Migrated)
	assert.JSONEq(t, string(raw), out.String())

	n, err := s.Batches().CountByProduct(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunMigrate_DryRunNoEscribe(t *testing.T) {
	b, s := seededBackend(t)
	code := cli.RunMigrate(context.Background(), b, cli.MigrateFlags{DryRun: true}, zerolog.Nop(), nil)
	require.Equal(t, cli.ExitOK, code)

	n, err := s.Batches().CountByProduct(context.Background(), "P1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunRollback_RestauraContador(t *testing.T) {
	b, s := seededBackend(t)
	ctx := context.Background()
	require.Equal(t, cli.ExitOK, cli.RunMigrate(ctx, b, cli.MigrateFlags{}, zerolog.Nop(), nil))

	var out bytes.Buffer
	code := cli.RunRollback(ctx, b, cli.RollbackFlags{DeleteReceipts: true}, zerolog.Nop(), &out)
	require.Equal(t, cli.ExitOK, code)

	var sum migration.RollbackSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, 1, sum.BatchesDeleted)
	assert.Zero(t, sum.Stragglers)

	p, err := s.Products().GetByID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.StockQuantity)
	receipts, err := s.Receipts().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestRunMigrate_AbortoEscribeResumenParcial(t *testing.T) {
	b, s := seededBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "migracion.json")
	var out bytes.Buffer

	code := cli.RunMigrate(ctx, b, cli.MigrateFlags{SummaryPath: path}, zerolog.Nop(), &out)
	require.Equal(t, cli.ExitFatal, code)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var sum migration.MigrationSummary
	require.NoError(t, json.Unmarshal(raw, &sum))
	assert.Contains(t, sum.Fatal, context.Canceled.Error())
	assert.Zero(t, sum.Migrated)
	assert.False(t, sum.FinishedAt.IsZero())
	assert.JSONEq(t, string(raw), out.String())

	n, err := s.Batches().CountByProduct(context.Background(), "P1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunRollback_AbortoEscribeResumenParcial(t *testing.T) {
	b, _ := seededBackend(t)
	require.Equal(t, cli.ExitOK, cli.RunMigrate(context.Background(), b, cli.MigrateFlags{}, zerolog.Nop(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	code := cli.RunRollback(ctx, b, cli.RollbackFlags{}, zerolog.Nop(), &out)
	require.Equal(t, cli.ExitFatal, code)

	var sum migration.RollbackSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Contains(t, sum.Fatal, context.Canceled.Error())
	assert.Equal(t, 1, sum.Products)
	assert.Zero(t, sum.RolledBack)
	assert.False(t, sum.OK())
}

// ─── Respaldo ───

func TestRunBackup_EscribeManifiesto(t *testing.T) {
	b, _ := seededBackend(t)
	dir := filepath.Join(t.TempDir(), "snap")
	var out bytes.Buffer

	code := cli.RunBackup(context.Background(), b, cli.BackupFlags{OutDir: dir}, zerolog.Nop(), &out)
	require.Equal(t, cli.ExitOK, code)

	var m backup.Manifest
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, 1, m.Records())
	assert.FileExists(t, filepath.Join(dir, "manifest.json"))
	assert.FileExists(t, filepath.Join(dir, "products.json.zst"))
}

// ─── Catálogo heredado ───

func TestRunSeed_GeneraYAplica(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalogo.csv")
	require.NoError(t, os.WriteFile(in, []byte("id,name,stock\nA1,Ibuprofeno 400mg,12\n"), 0o644))
	outPath := filepath.Join(dir, "seed.sql")

	var applied string
	exec := func(_ context.Context, sql string) error {
		applied = sql
		return nil
	}
	code := cli.RunSeed(context.Background(), cli.SeedFlags{Input: in, OutPath: outPath}, exec, zerolog.Nop(), nil)
	require.Equal(t, cli.ExitOK, code)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "'Ibuprofeno 400mg'")
	assert.Equal(t, string(raw), applied)

	code = cli.RunSeed(context.Background(), cli.SeedFlags{Input: filepath.Join(dir, "no.csv")}, nil, zerolog.Nop(), nil)
	assert.Equal(t, cli.ExitFatal, code)
}

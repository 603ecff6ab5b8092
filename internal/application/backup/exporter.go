// Package backup exporta una instantánea de los registros del ledger antes de migrar o revertir.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// ToolVersion versión del formato de respaldo escrita en el manifiesto.
const ToolVersion = "1.0.0"

// Sources repositorios de lectura que se exportan.
type Sources struct {
	Products      repository.ProductRepository
	Batches       repository.BatchRepository
	Receipts      repository.ReceiptRepository
	Suppliers     repository.SupplierRepository
	LegacyCatalog repository.LegacyCatalogRepository
}

// FileEntry archivo escrito con su hash.
type FileEntry struct {
	Name   string `json:"name"`
	Bytes  int    `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// EntityEntry registros exportados de una entidad.
type EntityEntry struct {
	Name    string      `json:"name"`
	Records int         `json:"records"`
	Files   []FileEntry `json:"files"`
}

// Manifest describe el respaldo y cómo restaurarlo.
type Manifest struct {
	CreatedAt   time.Time     `json:"created_at"`
	ToolVersion string        `json:"tool_version"`
	Directory   string        `json:"directory"`
	Entities    []EntityEntry `json:"entities"`
	Restore     []string      `json:"restore_instructions"`
}

// Records total de registros exportados.
func (m *Manifest) Records() int {
	n := 0
	for _, e := range m.Entities {
		n += e.Records
	}
	return n
}

// Exporter escribe por entidad un JSON formateado y un JSON compacto comprimido con zstd.
type Exporter struct {
	src     Sources
	encoder *zstd.Encoder
	log     zerolog.Logger
	now     func() time.Time
}

// NewExporter construye el exportador.
func NewExporter(src Sources, log zerolog.Logger) (*Exporter, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Exporter{
		src:     src,
		encoder: encoder,
		log:     log,
		now:     time.Now,
	}, nil
}

// WithClock reemplaza el reloj (tests).
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// DefaultDir directorio por defecto: <base>/<timestamp>.
func DefaultDir(base string, at time.Time) string {
	if base == "" {
		base = "backups"
	}
	return filepath.Join(base, at.UTC().Format("20060102-150405"))
}

// Export escribe el respaldo en dir (se crea si no existe) y devuelve el manifiesto.
// Cualquier error de lectura o escritura aborta el respaldo.
func (e *Exporter) Export(ctx context.Context, dir string) (*Manifest, error) {
	createdAt := e.now().UTC()
	if dir == "" {
		dir = DefaultDir("", createdAt)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de respaldo: %w", err)
	}

	manifest := &Manifest{CreatedAt: createdAt, ToolVersion: ToolVersion, Directory: dir}
	exports := []struct {
		name string
		load func(context.Context) (any, int, error)
	}{
		{"products", func(ctx context.Context) (any, int, error) {
			v, err := e.src.Products.ListAll(ctx)
			return v, len(v), err
		}},
		{"batches", func(ctx context.Context) (any, int, error) {
			v, err := e.src.Batches.ListAll(ctx)
			return v, len(v), err
		}},
		{"receipts", func(ctx context.Context) (any, int, error) {
			v, err := e.src.Receipts.ListAll(ctx)
			return v, len(v), err
		}},
		{"suppliers", func(ctx context.Context) (any, int, error) {
			v, err := e.src.Suppliers.ListAll(ctx)
			return v, len(v), err
		}},
		{"legacy_catalog", func(ctx context.Context) (any, int, error) {
			v, err := e.src.LegacyCatalog.ListAll(ctx)
			return v, len(v), err
		}},
	}

	for _, x := range exports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, n, err := x.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("leer %s: %w", x.name, err)
		}
		entry, err := e.writeEntity(dir, x.name, records)
		if err != nil {
			return nil, err
		}
		entry.Records = n
		manifest.Entities = append(manifest.Entities, *entry)
		e.log.Info().Str("entity", x.name).Int("records", n).Msg("entidad exportada")
	}

	manifest.Restore = restoreInstructions(dir)
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializar manifiesto: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		return nil, fmt.Errorf("escribir manifiesto: %w", err)
	}
	e.log.Info().Str("dir", dir).Int("records", manifest.Records()).Msg("respaldo completado")
	return manifest, nil
}

func (e *Exporter) writeEntity(dir, name string, records any) (*EntityEntry, error) {
	pretty, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializar %s: %w", name, err)
	}
	compact, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("serializar %s: %w", name, err)
	}
	compressed := e.encoder.EncodeAll(compact, nil)

	entry := &EntityEntry{Name: name}
	for _, f := range []struct {
		file string
		data []byte
	}{
		{name + ".json", pretty},
		{name + ".json.zst", compressed},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.file), f.data, 0o644); err != nil {
			return nil, fmt.Errorf("escribir %s: %w", f.file, err)
		}
		h := sha256.Sum256(f.data)
		entry.Files = append(entry.Files, FileEntry{Name: f.file, Bytes: len(f.data), SHA256: hex.EncodeToString(h[:])})
	}
	return entry, nil
}

func restoreInstructions(dir string) []string {
	return []string{
		"1. Verificar la integridad: sha256sum de cada archivo contra este manifiesto.",
		"2. Detener la API y las herramientas administrativas (migrate_batches, rollback_batches).",
		"3. Descomprimir si se usan los compactos: zstd -d <entidad>.json.zst",
		"4. Restaurar en orden: suppliers, products, receipts, batches, legacy_catalog (dentro de una transacción, truncando las tablas destino).",
		"5. Ejecutar la verificación contador/ledger (POST /api/reconcile/stock) tras arrancar la API.",
		"Directorio de origen: " + dir,
	}
}

package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// ApplySchema ejecuta los scripts de migrations/ en orden. Son idempotentes (IF NOT EXISTS).
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		sql, err := schemaFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("leer %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("aplicar %s: %w", f, err)
		}
	}
	return nil
}

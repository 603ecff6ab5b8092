// Package migration convierte el stock plano heredado en lotes del ledger (Migrator) y revierte
// esa conversión (Rollback). Ambas herramientas procesan producto por producto: un fallo se registra
// y la ejecución continúa con el siguiente.
package migration

import "time"

// Failure fallo aislado de un producto.
type Failure struct {
	ProductID string `json:"product_id"`
	Message   string `json:"message"`
}

// Mismatch producto migrado cuyo contador no coincide con la suma del ledger tras la verificación.
type Mismatch struct {
	ProductID string `json:"product_id"`
	Counter   int64  `json:"counter"`
	LedgerSum int64  `json:"ledger_sum"`
}

// MigrationSummary resumen legible por máquina de una ejecución del Migrator.
type MigrationSummary struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	DryRun     bool       `json:"dry_run"`
	Eligible   int        `json:"eligible"`
	Migrated   int        `json:"migrated"`
	Skipped    int        `json:"skipped"`
	ReceiptID  string     `json:"receipt_id,omitempty"`
	Failures   []Failure  `json:"failures"`
	Mismatches []Mismatch `json:"mismatches"`
	Fatal      string     `json:"fatal,omitempty"` // motivo del aborto; los conteos son parciales
}

// OK indica que todos los productos elegibles se migraron y verificaron.
func (s *MigrationSummary) OK() bool {
	return s.Fatal == "" && len(s.Failures) == 0 && len(s.Mismatches) == 0
}

// Modos de rollback.
const (
	ModeRestore   = "restore"
	ModeKeepStock = "keep_stock"
)

// RollbackSummary resumen legible por máquina de una ejecución del Rollback.
type RollbackSummary struct {
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Mode            string    `json:"mode"`
	Products        int       `json:"products"`
	RolledBack      int       `json:"rolled_back"`
	BatchesDeleted  int       `json:"batches_deleted"`
	RestoredUnits   int64     `json:"restored_units"`
	ReceiptsDeleted int       `json:"receipts_deleted"`
	Failures        []Failure `json:"failures"`
	Stragglers      int       `json:"stragglers"`
	Fatal           string    `json:"fatal,omitempty"` // motivo del aborto; los conteos son parciales
}

// OK indica que no hubo fallos y no quedaron lotes heredados.
func (s *RollbackSummary) OK() bool { return s.Fatal == "" && len(s.Failures) == 0 && s.Stragglers == 0 }

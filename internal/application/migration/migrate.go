package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Identidades sintetizadas por la migración (lookup-or-create).
const (
	SystemSupplierCode  = "LEGACY-MIGRATION"
	SystemOperatorEmail = "system@pharma-ledger.local"
)

// errSkip el producto dejó de ser elegible entre el listado y el bloqueo.
var errSkip = errors.New("producto ya respaldado por lotes")

// Options opciones del Migrator.
type Options struct {
	DryRun bool
}

// runState identidades compartidas por todos los productos de una misma ejecución. Proveedor y
// operador se buscan o crean al primer producto elegible; la recepción, dentro de la primera unidad
// de trabajo que efectivamente crea un lote.
type runState struct {
	supplier *entity.Supplier
	operator *entity.User
	receipt  *entity.Receipt
}

// Migrator crea un lote heredado por cada producto con stock plano y sin lotes.
type Migrator struct {
	txRunner    inventory.TxRunner
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewMigrator construye el Migrator.
func NewMigrator(txRunner inventory.TxRunner, productRepo repository.ProductRepository, batchRepo repository.BatchRepository, log zerolog.Logger) *Migrator {
	return &Migrator{
		txRunner:    txRunner,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		log:         log,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (m *Migrator) WithClock(now func() time.Time) *Migrator {
	m.now = now
	return m
}

// Run migra todos los productos elegibles. Solo devuelve error cuando la ejecución no puede continuar
// (listar productos o crear las identidades del sistema); los fallos por producto van al resumen.
func (m *Migrator) Run(ctx context.Context, opts Options) (*MigrationSummary, error) {
	runDate := m.now()
	sum := &MigrationSummary{StartedAt: runDate, DryRun: opts.DryRun, Failures: []Failure{}, Mismatches: []Mismatch{}}

	products, err := m.productRepo.ListWithStock(ctx)
	if err != nil {
		return sum, fmt.Errorf("listar productos con stock: %w", err)
	}
	m.log.Info().Int("candidates", len(products)).Bool("dry_run", opts.DryRun).Msg("iniciando migración de stock plano a lotes")

	state := &runState{}
	migrated := make([]string, 0, len(products))
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		n, err := m.batchRepo.CountByProduct(ctx, p.ID)
		if err != nil {
			m.fail(sum, p.ID, err)
			continue
		}
		if n > 0 {
			sum.Skipped++
			m.log.Debug().Str("product_id", p.ID).Int("batches", n).Msg("omitido: ya tiene lotes")
			continue
		}
		sum.Eligible++
		if opts.DryRun {
			m.log.Info().Str("product_id", p.ID).Int64("stock", p.StockQuantity).
				Str("batch_number", legacyBatchNumber(p, runDate)).Msg("[dry-run] se migraría")
			continue
		}
		if state.operator == nil {
			if err := m.ensureIdentities(ctx, state, runDate); err != nil {
				return sum, fmt.Errorf("preparar identidades del sistema: %w", err)
			}
		}

		batch, err := m.migrateProduct(ctx, state, p.ID, runDate)
		switch {
		case errors.Is(err, errSkip):
			sum.Eligible--
			sum.Skipped++
		case err != nil:
			m.fail(sum, p.ID, err)
		default:
			sum.Migrated++
			sum.ReceiptID = state.receipt.ID
			migrated = append(migrated, p.ID)
			m.log.Info().Str("product_id", p.ID).Str("batch_id", batch.ID).
				Str("batch_number", batch.BatchNumber).Int64("quantity", batch.ReceivedQuantity).Msg("producto migrado")
		}
	}

	for _, id := range migrated {
		mm, err := m.verify(ctx, id)
		if err != nil {
			m.fail(sum, id, fmt.Errorf("verificación: %w", err))
			continue
		}
		if mm != nil {
			sum.Mismatches = append(sum.Mismatches, *mm)
			m.log.Warn().Str("product_id", id).Int64("counter", mm.Counter).Int64("ledger_sum", mm.LedgerSum).
				Msg("verificación: contador distinto de la suma del ledger")
		}
	}

	sum.FinishedAt = m.now()
	m.log.Info().
		Int("eligible", sum.Eligible).
		Int("migrated", sum.Migrated).
		Int("skipped", sum.Skipped).
		Int("failures", len(sum.Failures)).
		Int("mismatches", len(sum.Mismatches)).
		Msg("migración finalizada")
	return sum, nil
}

func (m *Migrator) fail(sum *MigrationSummary, productID string, err error) {
	sum.Failures = append(sum.Failures, Failure{ProductID: productID, Message: err.Error()})
	m.log.Error().Err(err).Str("product_id", productID).Msg("fallo al migrar producto")
}

// ensureIdentities busca o crea el proveedor y el operador del sistema en su propia transacción.
func (m *Migrator) ensureIdentities(ctx context.Context, state *runState, runDate time.Time) error {
	return m.txRunner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		supplier, err := repos.Suppliers.GetByCode(ctx, SystemSupplierCode)
		if err != nil {
			return err
		}
		if supplier == nil {
			supplier = &entity.Supplier{
				ID:        uuid.New().String(),
				Code:      SystemSupplierCode,
				Name:      "Migración de stock heredado",
				System:    true,
				CreatedAt: runDate,
				UpdatedAt: runDate,
			}
			if err := repos.Suppliers.Create(ctx, supplier); err != nil {
				return fmt.Errorf("crear proveedor del sistema: %w", err)
			}
		}

		operator, err := repos.Users.GetByEmail(ctx, SystemOperatorEmail)
		if err != nil {
			return err
		}
		if operator == nil {
			// Contraseña aleatoria: el operador del sistema no inicia sesión.
			hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			operator = &entity.User{
				ID:           uuid.New().String(),
				Email:        SystemOperatorEmail,
				PasswordHash: string(hash),
				Name:         "Sistema",
				Role:         entity.RoleSystem,
				Status:       entity.UserStatusActive,
				CreatedAt:    runDate,
				UpdatedAt:    runDate,
			}
			if err := repos.Users.Create(ctx, operator); err != nil {
				return fmt.Errorf("crear operador del sistema: %w", err)
			}
		}

		state.supplier, state.operator = supplier, operator
		return nil
	})
}

func legacyReceipt(state *runState, runDate time.Time) *entity.Receipt {
	return &entity.Receipt{
		ID:          uuid.New().String(),
		SupplierID:  state.supplier.ID,
		TotalAmount: decimal.Zero,
		Status:      entity.ReceiptStatusLegacy,
		Origin:      entity.OriginLegacyMigration,
		ReceivedBy:  state.operator.ID,
		ReceivedAt:  runDate,
		Notes:       "Recepción sintetizada por la migración de stock plano (" + runDate.Format("2006-01-02") + ")",
		CreatedAt:   runDate,
	}
}

// migrateProduct revalida la elegibilidad bajo el bloqueo y crea el lote. La recepción heredada nace en
// la primera unidad de trabajo que llega a crear un lote, así que una ejecución sin migraciones no la deja.
func (m *Migrator) migrateProduct(ctx context.Context, state *runState, productID string, runDate time.Time) (*entity.Batch, error) {
	var batch *entity.Batch
	var created *entity.Receipt
	err := m.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos inventory.Repos) error {
		batch, created = nil, nil
		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil || p.StockQuantity <= 0 {
			return errSkip
		}
		n, err := repos.Batches.CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if n > 0 {
			return errSkip
		}
		receipt := state.receipt
		if receipt == nil {
			receipt = legacyReceipt(state, runDate)
			if err := repos.Receipts.Create(ctx, receipt); err != nil {
				return fmt.Errorf("crear recepción heredada: %w", err)
			}
			created = receipt
		}
		expiry := runDate.AddDate(1, 0, 0)
		if p.ExpirationDate != nil {
			expiry = *p.ExpirationDate
		}
		batch = &entity.Batch{
			ID:                uuid.New().String(),
			ProductID:         p.ID,
			BatchNumber:       legacyBatchNumber(p, runDate),
			ReceivedQuantity:  p.StockQuantity,
			RemainingQuantity: p.StockQuantity,
			ExpirationDate:    expiry,
			UnitCost:          decimal.Zero,
			Origin:            entity.OriginLegacyMigration,
			ReceiptID:         receipt.ID,
			CreatedAt:         runDate,
			UpdatedAt:         runDate,
		}
		return repos.Batches.Create(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	if created != nil {
		state.receipt = created
	}
	return batch, nil
}

func (m *Migrator) verify(ctx context.Context, productID string) (*Mismatch, error) {
	p, err := m.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s desapareció", productID)
	}
	batches, err := m.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	total := ledger.SumRemaining(batches)
	if total == p.StockQuantity {
		return nil, nil
	}
	return &Mismatch{ProductID: productID, Counter: p.StockQuantity, LedgerSum: total}, nil
}

// legacyBatchNumber usa el lote del producto o sintetiza LEGACY-<id corto>-<fecha>.
func legacyBatchNumber(p *entity.Product, runDate time.Time) string {
	if p.LotNumber != "" {
		return p.LotNumber
	}
	short := p.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("LEGACY-%s-%s", short, runDate.Format("20060102"))
}

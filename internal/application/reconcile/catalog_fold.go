package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// FoldResult conteos de una pasada del plegado de catálogo.
type FoldResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// CatalogFolder pliega el catálogo plano heredado en el catálogo canónico de productos.
type CatalogFolder struct {
	txRunner    inventory.TxRunner
	productRepo repository.ProductRepository
	legacyRepo  repository.LegacyCatalogRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewCatalogFolder construye el plegador.
func NewCatalogFolder(
	txRunner inventory.TxRunner,
	productRepo repository.ProductRepository,
	legacyRepo repository.LegacyCatalogRepository,
	log zerolog.Logger,
) *CatalogFolder {
	return &CatalogFolder{
		txRunner:    txRunner,
		productRepo: productRepo,
		legacyRepo:  legacyRepo,
		log:         log,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (f *CatalogFolder) WithClock(now func() time.Time) *CatalogFolder {
	f.now = now
	return f
}

// Run ejecuta una pasada completa. Es idempotente: sin cambios en el catálogo heredado, la segunda
// pasada devuelve {0, 0, 0}. Un error por producto se registra y no detiene la pasada.
func (f *CatalogFolder) Run(ctx context.Context) (*FoldResult, error) {
	items, err := f.legacyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo heredado: %w", err)
	}
	products, err := f.productRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo canónico: %w", err)
	}

	legacy := make(map[string]*entity.LegacyCatalogItem, len(items))
	for _, it := range items {
		key := NaturalKey(it.Name)
		if key == "" {
			continue
		}
		if prev, ok := legacy[key]; ok {
			f.log.Warn().Str("key", key).Str("kept", prev.ID).Str("ignored", it.ID).Msg("clave natural duplicada en catálogo heredado")
			continue
		}
		legacy[key] = it
	}

	canonical := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		key := productKey(p)
		if _, ok := canonical[key]; ok {
			continue
		}
		canonical[key] = p
	}

	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &FoldResult{}
	for _, key := range keys {
		item := legacy[key]
		p, ok := canonical[key]
		if !ok {
			if err := f.create(ctx, key, item); err != nil {
				f.log.Error().Err(err).Str("key", key).Msg("no se pudo crear producto desde catálogo heredado")
				continue
			}
			res.Created++
			continue
		}
		changed, err := f.update(ctx, p.ID, item)
		if err != nil {
			f.log.Error().Err(err).Str("product_id", p.ID).Msg("no se pudo actualizar producto desde catálogo heredado")
			continue
		}
		if changed {
			res.Updated++
		}
	}

	for key, p := range canonical {
		if p.Source != entity.ProductSourceLegacy {
			continue
		}
		if _, ok := legacy[key]; ok {
			continue
		}
		deleted, err := f.remove(ctx, p.ID)
		if err != nil {
			f.log.Error().Err(err).Str("product_id", p.ID).Msg("no se pudo eliminar producto retirado del catálogo heredado")
			continue
		}
		if deleted {
			res.Deleted++
		}
	}

	if res.Created+res.Updated+res.Deleted > 0 {
		f.log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("deleted", res.Deleted).Msg("catálogo plegado")
	}
	return res, nil
}

func productKey(p *entity.Product) string {
	if p.LegacyKey != "" {
		return p.LegacyKey
	}
	return NaturalKey(p.Name)
}

func (f *CatalogFolder) create(ctx context.Context, key string, item *entity.LegacyCatalogItem) error {
	now := f.now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Name:      item.Name,
		Source:    entity.ProductSourceLegacy,
		LegacyKey: key,
		CreatedAt: now,
	}
	applyDescriptive(p, item)
	p.SetStock(item.Stock, now)
	synced := item.UpdatedAt
	p.LegacySyncedAt = &synced
	return f.txRunner.RunForProducts(ctx, []string{p.ID}, func(ctx context.Context, repos inventory.Repos) error {
		return repos.Products.Create(ctx, p)
	})
}

// update aplica los campos descriptivos. El stock heredado se pliega solo si el registro cambió desde el
// último plegado y el producto no tiene lotes: un rollback deja el producto sin lotes y su contador no
// debe volver al valor heredado.
func (f *CatalogFolder) update(ctx context.Context, productID string, item *entity.LegacyCatalogItem) (bool, error) {
	changed := false
	err := f.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos inventory.Repos) error {
		changed = false
		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		dirty := false
		if descriptiveDiffers(p, item) {
			applyDescriptive(p, item)
			dirty, changed = true, true
		}

		foldStock := false
		if p.LegacyStockDue(item) {
			n, err := repos.Batches.CountByProduct(ctx, productID)
			if err != nil {
				return err
			}
			foldStock = n == 0 && (p.StockQuantity != item.Stock || p.InStock != (item.Stock > 0))
			synced := item.UpdatedAt
			p.LegacySyncedAt = &synced
			dirty = true
		}

		if dirty {
			p.UpdatedAt = f.now()
			if err := repos.Products.Update(ctx, p); err != nil {
				return err
			}
		}
		if foldStock {
			if err := repos.Products.UpdateStock(ctx, productID, item.Stock, item.Stock > 0); err != nil {
				return err
			}
			changed = true
		}
		return nil
	})
	return changed, err
}

func (f *CatalogFolder) remove(ctx context.Context, productID string) (bool, error) {
	deleted := false
	err := f.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos inventory.Repos) error {
		n, err := repos.Batches.CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if n > 0 {
			f.log.Warn().Str("product_id", productID).Int("batches", n).Msg("producto retirado del catálogo heredado conserva lotes; no se elimina")
			return nil
		}
		if err := repos.Products.Delete(ctx, productID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func applyDescriptive(p *entity.Product, item *entity.LegacyCatalogItem) {
	p.Description = item.Description
	p.Manufacturer = item.Manufacturer
	p.Category = item.Category
	p.Price = item.Price
	p.RequiresPrescription = item.RequiresPrescription
	p.LotNumber = item.LotNumber
	p.ExpirationDate = item.ExpirationDate
}

func descriptiveDiffers(p *entity.Product, item *entity.LegacyCatalogItem) bool {
	return p.Description != item.Description ||
		p.Manufacturer != item.Manufacturer ||
		p.Category != item.Category ||
		!p.Price.Equal(item.Price) ||
		p.RequiresPrescription != item.RequiresPrescription ||
		p.LotNumber != item.LotNumber ||
		!sameDate(p.ExpirationDate, item.ExpirationDate)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

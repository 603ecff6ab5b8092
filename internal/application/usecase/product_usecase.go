package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para el catálogo canónico. El stock se maneja solo vía el ledger.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto canónico con stock 0. ErrDuplicate si otro producto comparte la clave natural.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureUniqueName(ctx, "", in.Name); err != nil {
		return nil, err
	}
	now := time.Now()
	product := &entity.Product{
		ID:                   uuid.New().String(),
		Name:                 in.Name,
		Description:          in.Description,
		Manufacturer:         in.Manufacturer,
		Category:             in.Category,
		Price:                in.Price,
		RequiresPrescription: in.RequiresPrescription,
		Source:               entity.ProductSourceCanonical,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza campos descriptivos. No permite modificar el stock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		if reconcile.NaturalKey(name) != reconcile.NaturalKey(product.Name) {
			if err := uc.ensureUniqueName(ctx, id, name); err != nil {
				return nil, err
			}
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Manufacturer != nil {
		product.Manufacturer = *in.Manufacturer
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	if in.RequiresPrescription != nil {
		product.RequiresPrescription = *in.RequiresPrescription
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos (orden por ID) con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	total := len(list)
	list = paginate(list, limit, offset)
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// ensureUniqueName evita dos productos con la misma clave natural; el plegado del catálogo depende de ella.
func (uc *ProductUseCase) ensureUniqueName(ctx context.Context, selfID, name string) error {
	key := reconcile.NaturalKey(name)
	all, err := uc.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.ID != selfID && reconcile.NaturalKey(p.Name) == key {
			return domain.ErrDuplicate
		}
	}
	return nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Manufacturer:         p.Manufacturer,
		Category:             p.Category,
		Price:                p.Price,
		RequiresPrescription: p.RequiresPrescription,
		StockQuantity:        p.StockQuantity,
		InStock:              p.InStock,
		Source:               p.Source,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

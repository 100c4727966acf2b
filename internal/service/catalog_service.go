package service

import (
	"context"
	"errors"
	"fmt"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/repository"
	"go-stock-approval/pkg/validator"

	"github.com/google/uuid"
)

// CatalogService is the thin CRUD surface over the catalog, used by the HTTP
// layer. The approval engine is the only path that mutates stock from ledger
// review; everything here is direct catalog editing.
type CatalogService interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	ListCategories(ctx context.Context) ([]CategoryView, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, product *model.Product, creatorID uuid.UUID) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CategoryView adds the product count the listing page displays.
type CategoryView struct {
	model.Category
	ProductCount int64 `json:"product_count"`
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCatalogService(cRepo repository.CategoryRepository, pRepo repository.ProductRepository) CatalogService {
	return &catalogService{categoryRepo: cRepo, productRepo: pRepo}
}

func (s *catalogService) CreateCategory(ctx context.Context, category *model.Category) error {
	if errs := validator.ValidateStruct(category); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", apperr.ErrInvalidPayload, first.FailedField, first.Tag)
	}
	return s.categoryRepo.Create(ctx, category)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CategoryView, len(categories))
	for i := range categories {
		count, err := s.categoryRepo.CountProducts(ctx, categories[i].ID)
		if err != nil {
			return nil, err
		}
		views[i] = CategoryView{Category: categories[i], ProductCount: count}
	}
	return views, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		category.Name = name
	}
	category.Description = description
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: category still has %d products", apperr.ErrInvalidPayload, count)
	}
	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, product *model.Product, creatorID uuid.UUID) error {
	if errs := validator.ValidateStruct(product); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", apperr.ErrInvalidPayload, first.FailedField, first.Tag)
	}
	if len(product.Variants) == 0 {
		return fmt.Errorf("%w: product requires at least one variant", apperr.ErrInvalidPayload)
	}
	for i := range product.Variants {
		if product.Variants[i].SKU == "" {
			return fmt.Errorf("%w: every variant requires a sku", apperr.ErrInvalidPayload)
		}
	}

	// Advisory check; the unique index still backs this at write time.
	for i := range product.Variants {
		_, err := s.productRepo.FindVariantBySKU(ctx, product.Variants[i].SKU)
		if err == nil {
			return fmt.Errorf("%w: sku '%s'", apperr.ErrDuplicateSKU, product.Variants[i].SKU)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}

	product.CreatedByUserID = &creatorID
	return s.productRepo.Create(ctx, product)
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	product.Brand = req.Brand
	if req.CategoryID != uuid.Nil {
		product.CategoryID = req.CategoryID
	}
	if len(req.Variants) > 0 {
		for i := range req.Variants {
			req.Variants[i].ProductID = product.ID
		}
		product.Variants = req.Variants
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

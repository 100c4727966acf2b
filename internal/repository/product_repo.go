package repository

import (
	"context"
	"errors"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindVariantBySKU(ctx context.Context, sku string) (*model.Variant, error)
	// FindWithVariantForUpdate loads the product and the target variant with
	// a row lock on the product, serializing concurrent stock mutations
	// against the same product for the rest of the transaction.
	FindWithVariantForUpdate(ctx context.Context, productID, variantID uuid.UUID) (*model.Product, *model.Variant, error)
	// AdjustVariantStock applies a signed stock delta to one variant and
	// recomputes the owning product's total_stock. A decrement that would go
	// negative fails with ErrInsufficientStock; increments never do.
	AdjustVariantStock(ctx context.Context, productID, variantID uuid.UUID, delta int) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// Create persists the product together with its variants. SKU uniqueness is
// enforced here by the unique index, not merely pre-checked: a collision
// anywhere in the catalog fails the insert with ErrDuplicateSKU.
func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	product.TotalStock = product.SumVariantStock()
	err := r.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrDuplicateSKU
	}
	return err
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Category").
		Preload("CreatedByUser").
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Category").
		Preload("CreatedByUser").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindVariantBySKU(ctx context.Context, sku string) (*model.Variant, error) {
	var variant model.Variant
	err := r.db.WithContext(ctx).First(&variant, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepo) FindWithVariantForUpdate(ctx context.Context, productID, variantID uuid.UUID) (*model.Product, *model.Variant, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var variants []model.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&variants).Error; err != nil {
		return nil, nil, err
	}
	product.Variants = variants

	variant := product.VariantByID(variantID)
	if variant == nil {
		return nil, nil, apperr.ErrNotFound
	}
	return &product, variant, nil
}

func (r *productRepo) AdjustVariantStock(ctx context.Context, productID, variantID uuid.UUID, delta int) error {
	q := r.db.WithContext(ctx).Model(&model.Variant{}).
		Where("id = ? AND product_id = ?", variantID, productID)
	if delta < 0 {
		// The guard keeps the read and the decrement indivisible even if a
		// writer outside the approval path slipped in between.
		q = q.Where("stock_quantity + ? >= 0", delta)
	}

	res := q.Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			var count int64
			if err := r.db.WithContext(ctx).Model(&model.Variant{}).
				Where("id = ? AND product_id = ?", variantID, productID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.ErrInsufficientStock
			}
		}
		return apperr.ErrNotFound
	}

	return r.recomputeTotalStock(ctx, productID)
}

// Update saves the product and its variants, keeping total_stock derived.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	product.TotalStock = product.SumVariantStock()
	err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrDuplicateSKU
	}
	return err
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return r.db.WithContext(ctx).Delete(&model.Variant{}, "product_id = ?", id).Error
}

func (r *productRepo) recomputeTotalStock(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("total_stock", gorm.Expr(
			"(SELECT COALESCE(SUM(stock_quantity), 0) FROM variants WHERE product_id = ? AND deleted_at IS NULL)",
			productID,
		)).Error
}

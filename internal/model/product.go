package model

import "github.com/google/uuid"

// Variant is a stockable configuration of a product (e.g. a color/size).
// It belongs to exactly one product; its SKU is unique across the whole
// catalog, enforced by the unique index at write time.
type Variant struct {
	BaseModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	SKU           string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Price         int64     `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
}

type Product struct {
	BaseModel
	Name       string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Brand      string    `gorm:"type:varchar(255)" json:"brand"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id" validate:"uuid_required"`
	Category   *Category `json:"category,omitempty" validate:"-"`

	// TotalStock is derived: the sum of the variants' stock quantities. It is
	// recomputed whenever a variant mutation is persisted, never set directly.
	TotalStock int `gorm:"default:0" json:"total_stock"`

	Variants []Variant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`

	// User tracking
	CreatedByUserID *uuid.UUID `gorm:"type:uuid" json:"created_by_user_id,omitempty"`
	CreatedByUser   *User      `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
}

// VariantByID returns the owned variant with the given id, or nil.
func (p *Product) VariantByID(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// SumVariantStock returns the total stock across all variants.
func (p *Product) SumVariantStock() int {
	total := 0
	for i := range p.Variants {
		total += p.Variants[i].StockQuantity
	}
	return total
}

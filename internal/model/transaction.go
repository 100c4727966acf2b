package model

import "github.com/google/uuid"

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

type TransactionStatus string

const (
	TxPending  TransactionStatus = "Pending"
	TxApproved TransactionStatus = "Approved"
	TxRejected TransactionStatus = "Rejected"
)

// NewVariantData describes the variant to create when a movement introduces a
// brand-new product. Stored inline on the transaction record.
type NewVariantData struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
}

// NewProductData is the payload for an isNewProduct movement: everything
// needed to create the category (if absent), product and first variant at
// approval time.
type NewProductData struct {
	Name         string         `json:"name"`
	Brand        string         `json:"brand"`
	CategoryName string         `json:"category_name"`
	Variant      NewVariantData `gorm:"embedded;embeddedPrefix:variant_" json:"variant"`
}

// Transaction is a stock-movement request record. It is created Pending and
// finalized exactly once to Approved (with catalog side effects) or Rejected
// (with a reason, no side effects). Never deleted, never re-opened.
//
// Exactly one payload shape is populated: ProductID+VariantID when
// IsNewProduct is false, NewProduct when it is true.
type Transaction struct {
	BaseModel
	Type     TransactionType   `gorm:"type:varchar(10);not null" json:"type" validate:"required,oneof=IN OUT"`
	Quantity int               `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	Notes    string            `json:"notes"`
	Status   TransactionStatus `gorm:"type:varchar(10);not null;default:'Pending';index" json:"status"`

	// Snapshot price * quantity. Stored at submission for display, but always
	// recomputed at approval from the authoritative variant price.
	TotalAmount int64 `gorm:"not null;default:0" json:"total_amount"`

	IsNewProduct bool `gorm:"not null;default:false" json:"is_new_product"`

	// Existing-product payload (IsNewProduct = false). Also back-filled on
	// approval of a new-product movement with the ids just created.
	ProductID *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	Product   *Product   `json:"product,omitempty" validate:"-"`
	VariantID *uuid.UUID `gorm:"type:uuid" json:"variant_id,omitempty"`

	// New-product payload (IsNewProduct = true).
	NewProduct NewProductData `gorm:"embedded;embeddedPrefix:new_" json:"new_product_data"`

	// User tracking
	UserID           uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	User             *User      `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	ReviewedByUserID *uuid.UUID `gorm:"type:uuid" json:"reviewed_by_user_id,omitempty"`
	ReviewedByUser   *User      `gorm:"foreignKey:ReviewedByUserID;references:ID" json:"reviewed_by_user,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
}

// SignedQuantity returns the stock delta this movement applies when approved:
// positive for IN, negative for OUT.
func (t *Transaction) SignedQuantity() int {
	if t.Type == TxOut {
		return -t.Quantity
	}
	return t.Quantity
}

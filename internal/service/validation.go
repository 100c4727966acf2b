package service

import (
	"fmt"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/pkg/validator"
)

// The submission gate. Pure checks, nothing persisted: struct tags first
// (type, quantity), then the payload-shape invariant. A movement carries
// either an existing product/variant reference or a full new-product
// descriptor, never both, never neither.
func validateSubmission(req *model.Transaction) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", apperr.ErrInvalidPayload, first.FailedField, first.Tag)
	}

	if req.IsNewProduct {
		d := req.NewProduct
		if d.Name == "" || d.CategoryName == "" || d.Variant.Name == "" || d.Variant.SKU == "" {
			return fmt.Errorf("%w: new product movement requires name, category, variant name and sku", apperr.ErrInvalidPayload)
		}
		if d.Variant.Price < 0 {
			return fmt.Errorf("%w: variant price must not be negative", apperr.ErrInvalidPayload)
		}
		if req.ProductID != nil || req.VariantID != nil {
			return fmt.Errorf("%w: new product movement must not reference an existing product", apperr.ErrInvalidPayload)
		}
		return nil
	}

	if req.ProductID == nil || req.VariantID == nil {
		return fmt.Errorf("%w: movement requires product and variant references", apperr.ErrInvalidPayload)
	}
	if req.NewProduct.Name != "" || req.NewProduct.Variant.SKU != "" {
		return fmt.Errorf("%w: existing product movement must not carry new product data", apperr.ErrInvalidPayload)
	}
	return nil
}

// The review gate: only Pending records may be finalized.
func validateReviewable(record *model.Transaction) error {
	if record.Status != model.TxPending {
		return fmt.Errorf("%w: transaction is %s", apperr.ErrAlreadyReviewed, record.Status)
	}
	return nil
}

// Stock sufficiency, checked only when approving an outbound movement
// against an existing variant.
func validateStockSufficient(variant *model.Variant, record *model.Transaction) error {
	if record.Type == model.TxOut && variant.StockQuantity < record.Quantity {
		return fmt.Errorf("%w: current stock for this variant: %d", apperr.ErrInsufficientStock, variant.StockQuantity)
	}
	return nil
}

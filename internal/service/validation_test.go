package service

import (
	"testing"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validExistingRequest() *model.Transaction {
	productID := uuid.New()
	variantID := uuid.New()
	return &model.Transaction{
		Type:      model.TxIn,
		Quantity:  5,
		ProductID: &productID,
		VariantID: &variantID,
	}
}

func validNewProductRequest() *model.Transaction {
	return &model.Transaction{
		Type:         model.TxIn,
		Quantity:     5,
		IsNewProduct: true,
		NewProduct: model.NewProductData{
			Name:         "Widget",
			CategoryName: "Gadgets",
			Variant:      model.NewVariantData{Name: "Default", SKU: "WID-1", Price: 100},
		},
	}
}

func TestValidateSubmission(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*model.Transaction)
		request func() *model.Transaction
		wantErr bool
	}{
		{"valid existing", func(tx *model.Transaction) {}, validExistingRequest, false},
		{"valid new product", func(tx *model.Transaction) {}, validNewProductRequest, false},
		{"missing type", func(tx *model.Transaction) { tx.Type = "" }, validExistingRequest, true},
		{"bad type", func(tx *model.Transaction) { tx.Type = "MOVE" }, validExistingRequest, true},
		{"zero quantity", func(tx *model.Transaction) { tx.Quantity = 0 }, validExistingRequest, true},
		{"negative quantity", func(tx *model.Transaction) { tx.Quantity = -2 }, validExistingRequest, true},
		{"missing product id", func(tx *model.Transaction) { tx.ProductID = nil }, validExistingRequest, true},
		{"missing variant id", func(tx *model.Transaction) { tx.VariantID = nil }, validExistingRequest, true},
		{"new product missing name", func(tx *model.Transaction) { tx.NewProduct.Name = "" }, validNewProductRequest, true},
		{"new product missing category", func(tx *model.Transaction) { tx.NewProduct.CategoryName = "" }, validNewProductRequest, true},
		{"new product missing sku", func(tx *model.Transaction) { tx.NewProduct.Variant.SKU = "" }, validNewProductRequest, true},
		{"new product negative price", func(tx *model.Transaction) { tx.NewProduct.Variant.Price = -1 }, validNewProductRequest, true},
		{"new product with existing refs", func(tx *model.Transaction) {
			id := uuid.New()
			tx.ProductID = &id
			tx.VariantID = &id
		}, validNewProductRequest, true},
		{"existing with new product data", func(tx *model.Transaction) {
			tx.NewProduct.Name = "Widget"
		}, validExistingRequest, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.request()
			tc.mutate(req)
			err := validateSubmission(req)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReviewable(t *testing.T) {
	assert.NoError(t, validateReviewable(&model.Transaction{Status: model.TxPending}))
	assert.ErrorIs(t, validateReviewable(&model.Transaction{Status: model.TxApproved}), apperr.ErrAlreadyReviewed)
	assert.ErrorIs(t, validateReviewable(&model.Transaction{Status: model.TxRejected}), apperr.ErrAlreadyReviewed)
}

func TestValidateStockSufficient(t *testing.T) {
	variant := &model.Variant{StockQuantity: 5}

	assert.NoError(t, validateStockSufficient(variant, &model.Transaction{Type: model.TxOut, Quantity: 5}))
	assert.ErrorIs(t,
		validateStockSufficient(variant, &model.Transaction{Type: model.TxOut, Quantity: 6}),
		apperr.ErrInsufficientStock)
	// inbound movements never fail on stock
	assert.NoError(t, validateStockSufficient(variant, &model.Transaction{Type: model.TxIn, Quantity: 100}))
}

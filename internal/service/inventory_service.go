package service

import (
	"context"
	"errors"
	"fmt"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/repository"
	"go-stock-approval/internal/ws"

	"github.com/google/uuid"
)

type InventoryService interface {
	SubmitTransaction(ctx context.Context, req *model.Transaction, requesterID uuid.UUID) (*model.Transaction, error)
	ReviewTransaction(ctx context.Context, id uuid.UUID, decision model.TransactionStatus, reason string, reviewerID uuid.UUID) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionView, error)
	ListTransactions(ctx context.Context) ([]TransactionView, error)
}

// TransactionView is the ledger record plus display names resolved for the
// listing layer. The names are projections, not stored state.
type TransactionView struct {
	model.Transaction
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
}

type inventoryService struct {
	txm             repository.TxManager
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	wsHub           *ws.Hub
}

func NewInventoryService(txm repository.TxManager, pRepo repository.ProductRepository, tRepo repository.TransactionRepository, hub *ws.Hub) InventoryService {
	return &inventoryService{
		txm:             txm,
		productRepo:     pRepo,
		transactionRepo: tRepo,
		wsHub:           hub,
	}
}

// SubmitTransaction validates and persists a movement request as Pending.
// Nothing touches the catalog until a reviewer approves it.
func (s *inventoryService) SubmitTransaction(ctx context.Context, req *model.Transaction, requesterID uuid.UUID) (*model.Transaction, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	// Advisory SKU check. The authoritative enforcement is the unique index
	// hit at approval time; this only catches the obvious case early.
	if req.IsNewProduct {
		sku := req.NewProduct.Variant.SKU
		_, err := s.productRepo.FindVariantBySKU(ctx, sku)
		if err == nil {
			return nil, fmt.Errorf("%w: sku '%s'", apperr.ErrDuplicateSKU, sku)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	req.Status = model.TxPending
	req.UserID = requesterID
	req.ReviewedByUserID = nil
	req.RejectionReason = ""

	if err := s.transactionRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.broadcastEvent("transaction_submitted", req, requesterID)
	return req, nil
}

func (s *inventoryService) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionView, error) {
	record, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newTransactionView(record)
	return &view, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context) ([]TransactionView, error) {
	records, err := s.transactionRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]TransactionView, len(records))
	for i := range records {
		views[i] = newTransactionView(&records[i])
	}
	return views, nil
}

func newTransactionView(t *model.Transaction) TransactionView {
	productName := "[unknown product]"
	variantName := "[unknown variant]"

	switch {
	case t.IsNewProduct:
		if t.NewProduct.Name != "" {
			productName = t.NewProduct.Name
		}
		if t.NewProduct.Variant.Name != "" {
			variantName = t.NewProduct.Variant.Name
		}
	case t.Product != nil:
		productName = t.Product.Name
		if t.VariantID != nil {
			if v := t.Product.VariantByID(*t.VariantID); v != nil {
				variantName = v.Name
			} else {
				variantName = "[variant deleted]"
			}
		}
	default:
		// Pending request whose target product has since been deleted.
		productName = "[product deleted]"
	}

	return TransactionView{
		Transaction: *t,
		ProductName: productName,
		VariantName: variantName,
	}
}

func (s *inventoryService) broadcastEvent(action string, tx *model.Transaction, actorID uuid.UUID) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":   "inventory_update",
		"action": action,
		"transaction": map[string]interface{}{
			"id":       tx.ID,
			"type":     tx.Type,
			"quantity": tx.Quantity,
			"status":   tx.Status,
		},
		"actor_id": actorID.String(),
	})
}

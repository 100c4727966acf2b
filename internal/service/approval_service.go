package service

import (
	"context"
	"errors"
	"fmt"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/repository"

	"github.com/google/uuid"
)

// ReviewTransaction moves a Pending movement to Approved or Rejected.
//
// The whole decision runs inside one unit of work: the Pending check, any
// category/product creation, the stock arithmetic and the ledger finalize
// commit together or not at all. The record is row-locked first, so of two
// concurrent reviewers exactly one wins; the loser sees ErrAlreadyReviewed.
// On any failure the record stays Pending and the catalog is untouched.
func (s *inventoryService) ReviewTransaction(ctx context.Context, id uuid.UUID, decision model.TransactionStatus, reason string, reviewerID uuid.UUID) (*model.Transaction, error) {
	if decision != model.TxApproved && decision != model.TxRejected {
		return nil, fmt.Errorf("%w: decision must be Approved or Rejected", apperr.ErrInvalidPayload)
	}

	err := s.txm.WithinTx(ctx, func(r repository.TxRepos) error {
		record, err := r.Transactions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := validateReviewable(record); err != nil {
			return err
		}

		if decision == model.TxRejected {
			if reason == "" {
				reason = "No reason provided."
			}
			return r.Transactions().Finalize(ctx, id, repository.FinalizeFields{
				Status:           model.TxRejected,
				ReviewedByUserID: reviewerID,
				RejectionReason:  reason,
			})
		}

		productID, variantID, total, err := s.applyApproval(ctx, r, record)
		if err != nil {
			return err
		}

		return r.Transactions().Finalize(ctx, id, repository.FinalizeFields{
			Status:           model.TxApproved,
			ReviewedByUserID: reviewerID,
			ProductID:        &productID,
			VariantID:        &variantID,
			TotalAmount:      &total,
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.broadcastEvent("transaction_reviewed", updated, reviewerID)
	return updated, nil
}

// applyApproval performs the catalog side of an approval and returns the
// resolved product/variant ids plus the final total amount.
func (s *inventoryService) applyApproval(ctx context.Context, r repository.TxRepos, record *model.Transaction) (uuid.UUID, uuid.UUID, int64, error) {
	if record.IsNewProduct {
		return s.approveNewProduct(ctx, r, record)
	}
	return s.approveExistingProduct(ctx, r, record)
}

func (s *inventoryService) approveNewProduct(ctx context.Context, r repository.TxRepos, record *model.Transaction) (uuid.UUID, uuid.UUID, int64, error) {
	data := record.NewProduct

	category, err := r.Categories().FindByName(ctx, data.CategoryName)
	if errors.Is(err, apperr.ErrNotFound) {
		category = &model.Category{Name: data.CategoryName}
		if err := r.Categories().Create(ctx, category); err != nil {
			return uuid.Nil, uuid.Nil, 0, err
		}
	} else if err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}

	// An IN movement opens the variant with positive stock. An OUT movement
	// against a brand-new product opens it negative; the mechanism is kept
	// for symmetry, see DESIGN.md.
	product := &model.Product{
		Name:            data.Name,
		Brand:           data.Brand,
		CategoryID:      category.ID,
		CreatedByUserID: &record.UserID,
		Variants: []model.Variant{{
			Name:          data.Variant.Name,
			SKU:           data.Variant.SKU,
			Price:         data.Variant.Price,
			StockQuantity: record.SignedQuantity(),
		}},
	}
	if err := r.Products().Create(ctx, product); err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}

	total := data.Variant.Price * int64(record.Quantity)
	return product.ID, product.Variants[0].ID, total, nil
}

func (s *inventoryService) approveExistingProduct(ctx context.Context, r repository.TxRepos, record *model.Transaction) (uuid.UUID, uuid.UUID, int64, error) {
	product, variant, err := r.Products().FindWithVariantForUpdate(ctx, *record.ProductID, *record.VariantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}

	// Recomputed from the variant's current price, never trusted from the
	// request: the price may have changed between submission and review.
	total := variant.Price * int64(record.Quantity)

	if err := validateStockSufficient(variant, record); err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}
	if err := r.Products().AdjustVariantStock(ctx, product.ID, variant.ID, record.SignedQuantity()); err != nil {
		return uuid.Nil, uuid.Nil, 0, err
	}

	return product.ID, variant.ID, total, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FinalizeFields carries the terminal state written by Finalize. ProductID,
// VariantID and TotalAmount are set on approval (the ids matter for the
// new-product case, where they did not exist at submission time);
// RejectionReason on rejection.
type FinalizeFields struct {
	Status           model.TransactionStatus
	ReviewedByUserID uuid.UUID
	RejectionReason  string
	ProductID        *uuid.UUID
	VariantID        *uuid.UUID
	TotalAmount      *int64
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindAll(ctx context.Context) ([]model.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindByIDForUpdate row-locks the record for the rest of the enclosing
	// database transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// Finalize is a conditional write: it succeeds only while the record is
	// still Pending. Losing the race yields ErrAlreadyReviewed, which is the
	// primary defense against double approval.
	Finalize(ctx context.Context, id uuid.UUID, fields FinalizeFields) error

	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
}

// StockMovementData is chart data: approved movement per day
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the overview block
type DashboardStats struct {
	TotalProducts        int64 `json:"total_products"`
	TotalStock           int64 `json:"total_stock"`
	TotalOutTransactions int64 `json:"total_out_transactions"`
	TotalSoldItems       int64 `json:"total_sold_items"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepo) FindAll(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Preload("User").
		Preload("ReviewedByUser").
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Variants").
		Preload("User").
		Preload("ReviewedByUser").
		First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) Finalize(ctx context.Context, id uuid.UUID, fields FinalizeFields) error {
	updates := map[string]interface{}{
		"status":              fields.Status,
		"reviewed_by_user_id": fields.ReviewedByUserID,
	}
	if fields.RejectionReason != "" {
		updates["rejection_reason"] = fields.RejectionReason
	}
	if fields.ProductID != nil {
		updates["product_id"] = *fields.ProductID
	}
	if fields.VariantID != nil {
		updates["variant_id"] = *fields.VariantID
	}
	if fields.TotalAmount != nil {
		updates["total_amount"] = *fields.TotalAmount
	}

	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, model.TxPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Transaction{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.ErrNotFound
		}
		return apperr.ErrAlreadyReviewed
	}
	return nil
}

func (r *transactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Aggregate approved transactions per day; pending and rejected requests
	// never moved stock, so they are excluded.
	rows, err := r.db.Model(&model.Transaction{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("status = ? AND created_at BETWEEN ? AND ?", model.TxApproved, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

func (r *transactionRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	// Total Products
	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)

	// Total stock across every variant
	r.db.Model(&model.Variant{}).Select("COALESCE(SUM(stock_quantity), 0)").Scan(&stats.TotalStock)

	// Approved outbound transactions
	r.db.Model(&model.Transaction{}).
		Where("type = ? AND status = ?", model.TxOut, model.TxApproved).
		Count(&stats.TotalOutTransactions)

	// Units shipped out through approved transactions
	r.db.Model(&model.Transaction{}).
		Where("type = ? AND status = ?", model.TxOut, model.TxApproved).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&stats.TotalSoldItems)

	return &stats, nil
}

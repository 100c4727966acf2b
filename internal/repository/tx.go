package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepos is the set of repositories available inside one atomic unit of
// work. Everything obtained through it runs on the same database transaction.
type TxRepos interface {
	Categories() CategoryRepository
	Products() ProductRepository
	Transactions() TransactionRepository
}

// TxManager hides transaction begin/commit/rollback from the service layer.
// fn either commits as a whole or leaves no trace.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

type txRepos struct {
	categories   CategoryRepository
	products     ProductRepository
	transactions TransactionRepository
}

func (r *txRepos) Categories() CategoryRepository      { return r.categories }
func (r *txRepos) Products() ProductRepository         { return r.products }
func (r *txRepos) Transactions() TransactionRepository { return r.transactions }

type txManagerGorm struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManagerGorm{db: db}
}

func (tm *txManagerGorm) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Repos are rebuilt on the transaction handle so every access inside
		// fn shares the same unit of work.
		r := &txRepos{
			categories:   NewCategoryRepo(tx),
			products:     NewProductRepo(tx),
			transactions: NewTransactionRepo(tx),
		}
		return fn(r)
	})
}

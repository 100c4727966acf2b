package service

import (
	"context"
	"sync"
	"time"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database, shared by the fake
// repositories below. memTxManager serializes units of work against it and
// rolls the whole store back when the unit fails, mirroring the all-or-nothing
// commit the real TxManager provides.
type memStore struct {
	mu           sync.Mutex
	categories   map[uuid.UUID]*model.Category
	products     map[uuid.UUID]*model.Product
	transactions map[uuid.UUID]*model.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		categories:   make(map[uuid.UUID]*model.Category),
		products:     make(map[uuid.UUID]*model.Product),
		transactions: make(map[uuid.UUID]*model.Transaction),
	}
}

func cloneProduct(p *model.Product) *model.Product {
	cp := *p
	cp.Variants = make([]model.Variant, len(p.Variants))
	copy(cp.Variants, p.Variants)
	return &cp
}

func cloneTransaction(t *model.Transaction) *model.Transaction {
	ct := *t
	return &ct
}

type memSnapshot struct {
	categories   map[uuid.UUID]*model.Category
	products     map[uuid.UUID]*model.Product
	transactions map[uuid.UUID]*model.Transaction
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		categories:   make(map[uuid.UUID]*model.Category, len(s.categories)),
		products:     make(map[uuid.UUID]*model.Product, len(s.products)),
		transactions: make(map[uuid.UUID]*model.Transaction, len(s.transactions)),
	}
	for id, c := range s.categories {
		cc := *c
		snap.categories[id] = &cc
	}
	for id, p := range s.products {
		snap.products[id] = cloneProduct(p)
	}
	for id, t := range s.transactions {
		snap.transactions[id] = cloneTransaction(t)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = snap.categories
	s.products = snap.products
	s.transactions = snap.transactions
}

// ---- category repo ----

type memCategoryRepo struct{ store *memStore }

func (r *memCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.categories {
		if c.Name == category.Name {
			return apperr.ErrDuplicateName
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	cc := *category
	r.store.categories[category.ID] = &cc
	return nil
}

func (r *memCategoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]model.Category, 0, len(r.store.categories))
	for _, c := range r.store.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.categories[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *memCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.categories {
		if c.Name == name {
			cc := *c
			return &cc, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[category.ID]; !ok {
		return apperr.ErrNotFound
	}
	cc := *category
	r.store.categories[category.ID] = &cc
	return nil
}

func (r *memCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.store.categories, id)
	return nil
}

func (r *memCategoryRepo) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, p := range r.store.products {
		if p.CategoryID == id {
			count++
		}
	}
	return count, nil
}

// ---- product repo ----

type memProductRepo struct{ store *memStore }

func (r *memProductRepo) Create(ctx context.Context, product *model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range product.Variants {
		for _, existing := range r.store.products {
			for j := range existing.Variants {
				if existing.Variants[j].SKU == product.Variants[i].SKU {
					return apperr.ErrDuplicateSKU
				}
			}
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
		product.Variants[i].CreatedAt = time.Now()
	}
	product.TotalStock = product.SumVariantStock()
	r.store.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]model.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		out = append(out, *cloneProduct(p))
	}
	return out, nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memProductRepo) FindVariantBySKU(ctx context.Context, sku string) (*model.Variant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		for i := range p.Variants {
			if p.Variants[i].SKU == sku {
				v := p.Variants[i]
				return &v, nil
			}
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memProductRepo) FindWithVariantForUpdate(ctx context.Context, productID, variantID uuid.UUID) (*model.Product, *model.Variant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return nil, nil, apperr.ErrNotFound
	}
	cp := cloneProduct(p)
	v := cp.VariantByID(variantID)
	if v == nil {
		return nil, nil, apperr.ErrNotFound
	}
	return cp, v, nil
}

func (r *memProductRepo) AdjustVariantStock(ctx context.Context, productID, variantID uuid.UUID, delta int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return apperr.ErrNotFound
	}
	v := p.VariantByID(variantID)
	if v == nil {
		return apperr.ErrNotFound
	}
	if delta < 0 && v.StockQuantity+delta < 0 {
		return apperr.ErrInsufficientStock
	}
	v.StockQuantity += delta
	p.TotalStock = p.SumVariantStock()
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, product *model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[product.ID]; !ok {
		return apperr.ErrNotFound
	}
	product.TotalStock = product.SumVariantStock()
	r.store.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.store.products, id)
	return nil
}

// ---- transaction repo ----

type memTransactionRepo struct{ store *memStore }

func (r *memTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.store.transactions[tx.ID] = cloneTransaction(tx)
	return nil
}

func (r *memTransactionRepo) FindAll(ctx context.Context) ([]model.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]model.Transaction, 0, len(r.store.transactions))
	for _, t := range r.store.transactions {
		ct := *cloneTransaction(t)
		if ct.ProductID != nil {
			if p, ok := r.store.products[*ct.ProductID]; ok {
				ct.Product = cloneProduct(p)
			}
		}
		out = append(out, ct)
	}
	return out, nil
}

func (r *memTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transactions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	ct := cloneTransaction(t)
	if ct.ProductID != nil {
		if p, ok := r.store.products[*ct.ProductID]; ok {
			ct.Product = cloneProduct(p)
		}
	}
	return ct, nil
}

func (r *memTransactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transactions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return cloneTransaction(t), nil
}

func (r *memTransactionRepo) Finalize(ctx context.Context, id uuid.UUID, fields repository.FinalizeFields) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transactions[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if t.Status != model.TxPending {
		return apperr.ErrAlreadyReviewed
	}
	t.Status = fields.Status
	reviewer := fields.ReviewedByUserID
	t.ReviewedByUserID = &reviewer
	if fields.RejectionReason != "" {
		t.RejectionReason = fields.RejectionReason
	}
	if fields.ProductID != nil {
		pid := *fields.ProductID
		t.ProductID = &pid
	}
	if fields.VariantID != nil {
		vid := *fields.VariantID
		t.VariantID = &vid
	}
	if fields.TotalAmount != nil {
		t.TotalAmount = *fields.TotalAmount
	}
	return nil
}

func (r *memTransactionRepo) GetStockMovement(startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	panic("not used in service tests")
}

func (r *memTransactionRepo) GetDashboardStats() (*repository.DashboardStats, error) {
	panic("not used in service tests")
}

// ---- tx manager ----

type memTxRepos struct {
	categories   repository.CategoryRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
}

func (r *memTxRepos) Categories() repository.CategoryRepository      { return r.categories }
func (r *memTxRepos) Products() repository.ProductRepository         { return r.products }
func (r *memTxRepos) Transactions() repository.TransactionRepository { return r.transactions }

type memTxManager struct {
	store *memStore
	txMu  sync.Mutex
}

func (tm *memTxManager) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	// Whole units of work are serialized, like row locks would in Postgres.
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snap := tm.store.snapshot()
	err := fn(&memTxRepos{
		categories:   &memCategoryRepo{store: tm.store},
		products:     &memProductRepo{store: tm.store},
		transactions: &memTransactionRepo{store: tm.store},
	})
	if err != nil {
		tm.store.restore(snap)
	}
	return err
}

// newTestService wires an InventoryService over a fresh in-memory store.
func newTestService() (InventoryService, *memStore) {
	store := newMemStore()
	svc := NewInventoryService(
		&memTxManager{store: store},
		&memProductRepo{store: store},
		&memTransactionRepo{store: store},
		nil,
	)
	return svc, store
}

package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/domain/repository"
	apperrors "stockroom/internal/errors"
)

// MemoryStore is an in-memory products/stock_transactions pair implementing
// repository.UnitOfWork. Units of work are serialized and a failed one
// restores the state it started from.
type MemoryStore struct {
	mu            sync.Mutex
	products      map[int]domain.Product
	transactions  map[int64]domain.StockTransaction
	nextProductID int
	nextTxID      int64

	// FailOn makes the named repository method return the mapped error.
	FailOn map[string]error
	// Runs counts Run invocations.
	Runs int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:      map[int]domain.Product{},
		transactions:  map[int64]domain.StockTransaction{},
		nextProductID: 1,
		nextTxID:      1,
		FailOn:        map[string]error{},
	}
}

// AddProduct seeds a product without a ledger entry and returns it with its id.
func (s *MemoryStore) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.nextProductID
	}
	if p.ID >= s.nextProductID {
		s.nextProductID = p.ID + 1
	}
	if p.Code == "" {
		p.Code = fmt.Sprintf("P-%03d", p.ID)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p
	return p
}

func (s *MemoryStore) Product(id int) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// Transactions returns the ledger entries of a product in insertion order.
func (s *MemoryStore) Transactions(productID int) []domain.StockTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.StockTransaction
	for _, t := range s.transactions {
		if t.ProductID == productID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LedgerBalance is Σ IN − Σ OUT over the product's entries.
func (s *MemoryStore) LedgerBalance(productID int) int {
	total := 0
	for _, t := range s.Transactions(productID) {
		total += t.Type.Signed(t.Quantity)
	}
	return total
}

// Products returns a repository that is not bound to a unit of work.
func (s *MemoryStore) Products() repository.ProductRepository {
	return memProducts{s: s}
}

// StockTransactions returns a repository that is not bound to a unit of work.
func (s *MemoryStore) StockTransactions() repository.StockTransactionRepository {
	return memTransactions{s: s}
}

func (s *MemoryStore) Run(
	ctx context.Context,
	fn func(products repository.ProductRepository, transactions repository.StockTransactionRepository) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs++

	if err := ctx.Err(); err != nil {
		return err
	}

	products := make(map[int]domain.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	transactions := make(map[int64]domain.StockTransaction, len(s.transactions))
	for k, v := range s.transactions {
		transactions[k] = v
	}
	nextProductID, nextTxID := s.nextProductID, s.nextTxID

	if err := fn(memProducts{s: s, inTx: true}, memTransactions{s: s, inTx: true}); err != nil {
		s.products, s.transactions = products, transactions
		s.nextProductID, s.nextTxID = nextProductID, nextTxID
		return err
	}
	return nil
}

func (s *MemoryStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memProducts struct {
	s    *MemoryStore
	inTx bool
}

func (r memProducts) List(context.Context) ([]domain.Product, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Products.List"]; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) FindByID(_ context.Context, id int) (*domain.Product, error) {
	defer r.s.lock(r.inTx)()
	return r.find("Products.FindByID", id)
}

func (r memProducts) FindByIDs(_ context.Context, ids []int) ([]domain.Product, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Products.FindByIDs"]; err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) FindByIDForUpdate(_ context.Context, id int) (*domain.Product, error) {
	defer r.s.lock(r.inTx)()
	return r.find("Products.FindByIDForUpdate", id)
}

func (r memProducts) find(op string, id int) (*domain.Product, error) {
	if err := r.s.FailOn[op]; err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Product not found")
	}
	return &p, nil
}

func (r memProducts) CodeExists(_ context.Context, code string, excludeID int) (bool, error) {
	defer r.s.lock(r.inTx)()
	for _, p := range r.s.products {
		if p.Code == code && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memProducts) Insert(_ context.Context, p domain.Product) (int, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Products.Insert"]; err != nil {
		return 0, err
	}
	for _, existing := range r.s.products {
		if existing.Code == p.Code {
			return 0, apperrors.NewConflictError("Product code already exists")
		}
	}
	p.ID = r.s.nextProductID
	r.s.nextProductID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.products[p.ID] = p
	return p.ID, nil
}

func (r memProducts) UpdateDetails(_ context.Context, p domain.Product) error {
	defer r.s.lock(r.inTx)()
	current, ok := r.s.products[p.ID]
	if !ok {
		return apperrors.NewNotFoundError("Product not found")
	}
	p.Code = current.Code
	p.Quantity = current.Quantity
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()
	r.s.products[p.ID] = p
	return nil
}

func (r memProducts) UpdateQuantity(_ context.Context, id int, quantity int) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Products.UpdateQuantity"]; err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return apperrors.NewNotFoundError("Product not found")
	}
	p.Quantity = quantity
	r.s.products[id] = p
	return nil
}

func (r memProducts) Delete(_ context.Context, id int) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.products[id]; !ok {
		return apperrors.NewNotFoundError("Product not found")
	}
	delete(r.s.products, id)
	for txID, t := range r.s.transactions {
		if t.ProductID == id {
			delete(r.s.transactions, txID)
		}
	}
	return nil
}

type memTransactions struct {
	s    *MemoryStore
	inTx bool
}

func (r memTransactions) Insert(_ context.Context, t domain.StockTransaction) (int64, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Transactions.Insert"]; err != nil {
		return 0, err
	}
	if _, ok := r.s.products[t.ProductID]; !ok {
		return 0, apperrors.NewNotFoundError("Product not found")
	}
	t.ID = r.s.nextTxID
	r.s.nextTxID++
	t.CreatedAt = time.Now()
	r.s.transactions[t.ID] = t
	return t.ID, nil
}

func (r memTransactions) FindByID(_ context.Context, id int64) (*domain.StockTransaction, error) {
	defer r.s.lock(r.inTx)()
	return r.find(id)
}

func (r memTransactions) FindByIDForUpdate(_ context.Context, id int64) (*domain.StockTransaction, error) {
	defer r.s.lock(r.inTx)()
	return r.find(id)
}

func (r memTransactions) find(id int64) (*domain.StockTransaction, error) {
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Transaction not found")
	}
	return &t, nil
}

func (r memTransactions) Delete(_ context.Context, id int64) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailOn["Transactions.Delete"]; err != nil {
		return err
	}
	if _, ok := r.s.transactions[id]; !ok {
		return apperrors.NewNotFoundError("Transaction not found")
	}
	delete(r.s.transactions, id)
	return nil
}

func (r memTransactions) List(_ context.Context, filter domain.TransactionFilter) ([]domain.TransactionView, error) {
	defer r.s.lock(r.inTx)()
	views := []domain.TransactionView{}
	for _, t := range r.s.transactions {
		if filter.ProductID != nil && t.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		p := r.s.products[t.ProductID]
		views = append(views, domain.TransactionView{
			StockTransaction: t,
			ProductName:      p.Name,
			ProductCode:      p.Code,
			ProductBrand:     p.Brand,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	if filter.Limit > 0 && len(views) > filter.Limit {
		views = views[:filter.Limit]
	}
	return views, nil
}

func (r memTransactions) Summary(_ context.Context, productID int) (*domain.ProductSummary, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperrors.NewNotFoundError("Product not found")
	}
	s := &domain.ProductSummary{
		ProductID:       p.ID,
		Name:            p.Name,
		Code:            p.Code,
		Brand:           p.Brand,
		CurrentQuantity: p.Quantity,
	}
	for _, t := range r.s.transactions {
		if t.ProductID != productID {
			continue
		}
		s.TotalTransactions++
		if t.Type == domain.TransactionIn {
			s.TotalStockIn += t.Quantity
		} else {
			s.TotalStockOut += t.Quantity
		}
	}
	return s, nil
}

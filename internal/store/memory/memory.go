// Package memory is an in-process Repository used in tests and when no
// MONGO_URI is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	products  []domain.Product
	receipts  []domain.Receipt
	sales     []domain.Sale
	debits    []domain.Debit
	baseline  []domain.BaselineEntry
	customers []domain.Customer
	suppliers []domain.Supplier
	failWith  error
}

func New() *Store {
	return &Store{}
}

// Fail makes every subsequent call return err, simulating an unreachable
// transactional store. Pass nil to recover.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

func (s *Store) AddReceipt(r domain.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
}

func (s *Store) AddSale(sale domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
}

func (s *Store) AddDebit(d domain.Debit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debits = append(s.debits, d)
}

func (s *Store) AddCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, c)
}

func (s *Store) AddSupplier(sup domain.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers = append(s.suppliers, sup)
}

// Product looks a product up by id, for test assertions.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Counts of live transactional records, for test assertions.
func (s *Store) Counts() (receipts, sales, debits int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receipts), len(s.sales), len(s.debits)
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	products := append([]domain.Product(nil), s.products...)
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) ListReceipts(_ context.Context) ([]domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	receipts := make([]domain.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		r.Items = dropOrphanedReceiptItems(r.Items)
		receipts = append(receipts, r)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return timeOf(receipts[i].Date).Before(timeOf(receipts[j].Date))
	})
	return receipts, nil
}

func (s *Store) ListReceiptsRecentFirst(ctx context.Context) ([]domain.Receipt, error) {
	receipts, err := s.ListReceipts(ctx)
	if err != nil {
		return nil, err
	}
	reverse(receipts)
	return receipts, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sale.Items = dropOrphanedSaleItems(sale.Items)
		sales = append(sales, sale)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return timeOf(sales[i].Date).Before(timeOf(sales[j].Date))
	})
	return sales, nil
}

func (s *Store) ListSalesRecentFirst(ctx context.Context) ([]domain.Sale, error) {
	sales, err := s.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	reverse(sales)
	return sales, nil
}

func (s *Store) ListDebitsRecentFirst(_ context.Context) ([]domain.Debit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	debits := append([]domain.Debit(nil), s.debits...)
	sort.SliceStable(debits, func(i, j int) bool {
		return timeOf(debits[i].Date).After(timeOf(debits[j].Date))
	})
	return debits, nil
}

func (s *Store) ListPaidDebitsRecentFirst(ctx context.Context) ([]domain.Debit, error) {
	debits, err := s.ListDebitsRecentFirst(ctx)
	if err != nil {
		return nil, err
	}

	paid := make([]domain.Debit, 0, len(debits))
	for _, d := range debits {
		if d.Status == domain.DebitPaid {
			paid = append(paid, d)
		}
	}
	return paid, nil
}

func (s *Store) CountCustomers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	return int64(len(s.customers)), nil
}

func (s *Store) CountSuppliers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	return int64(len(s.suppliers)), nil
}

func (s *Store) CountProducts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	return int64(len(s.products)), nil
}

func (s *Store) CountOutOfStock(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return 0, s.failWith
	}

	var empties int64
	for _, p := range s.products {
		if p.Inventory <= 0 {
			empties++
		}
	}
	return empties, nil
}

func (s *Store) UpdateProductStock(_ context.Context, productID string, inventory float64, cost domain.CostBand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Inventory = inventory
			s.products[i].Cost = cost
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListBaseline(_ context.Context) ([]domain.BaselineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]domain.BaselineEntry(nil), s.baseline...), nil
}

func (s *Store) PurgeBaseline(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.baseline = nil
	return nil
}

func (s *Store) InsertBaseline(_ context.Context, entries []domain.BaselineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.baseline = append(s.baseline, entries...)
	return nil
}

func (s *Store) PurgeReceipts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.receipts = nil
	return nil
}

func (s *Store) PurgeSales(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sales = nil
	return nil
}

func (s *Store) PurgePaidDebits(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	kept := s.debits[:0]
	for _, d := range s.debits {
		if d.Status != domain.DebitPaid {
			kept = append(kept, d)
		}
	}
	s.debits = kept
	return nil
}

func dropOrphanedReceiptItems(items []domain.ReceiptItem) []domain.ReceiptItem {
	kept := make([]domain.ReceiptItem, 0, len(items))
	for _, item := range items {
		if item.Product != nil {
			kept = append(kept, item)
		}
	}
	return kept
}

func dropOrphanedSaleItems(items []domain.SaleItem) []domain.SaleItem {
	kept := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		if item.Product != nil {
			kept = append(kept, item)
		}
	}
	return kept
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func reverse[T any](list []T) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}

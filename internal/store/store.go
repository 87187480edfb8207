package store

import (
	"context"
	"errors"

	"gudangkita/backend/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("store unavailable")
)

// Repository is the read/write contract the pipeline consumes from the
// transactional store. List methods return fully dereferenced records:
// categories, units, suppliers, customers and audit users are resolved into
// embedded values, and line items whose product reference cannot be resolved
// are dropped from the item list.
type Repository interface {
	// ListProducts returns every product sorted by name ascending.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// ListReceipts returns every receipt sorted by date ascending.
	ListReceipts(ctx context.Context) ([]domain.Receipt, error)
	// ListSales returns every sale sorted by date ascending.
	ListSales(ctx context.Context) ([]domain.Sale, error)
	// ListReceiptsRecentFirst sorts by date, then created time, descending.
	ListReceiptsRecentFirst(ctx context.Context) ([]domain.Receipt, error)
	// ListSalesRecentFirst sorts by date, then edited/created time, descending.
	ListSalesRecentFirst(ctx context.Context) ([]domain.Sale, error)
	// ListDebitsRecentFirst returns every debit record, newest first.
	ListDebitsRecentFirst(ctx context.Context) ([]domain.Debit, error)
	// ListPaidDebitsRecentFirst returns only fully paid debit records.
	ListPaidDebitsRecentFirst(ctx context.Context) ([]domain.Debit, error)

	CountCustomers(ctx context.Context) (int64, error)
	CountSuppliers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	// CountOutOfStock counts products with inventory <= 0.
	CountOutOfStock(ctx context.Context) (int64, error)

	// UpdateProductStock point-updates one product's inventory and cost band.
	UpdateProductStock(ctx context.Context, productID string, inventory float64, cost domain.CostBand) error

	ListBaseline(ctx context.Context) ([]domain.BaselineEntry, error)
	PurgeBaseline(ctx context.Context) error
	InsertBaseline(ctx context.Context, entries []domain.BaselineEntry) error

	PurgeReceipts(ctx context.Context) error
	PurgeSales(ctx context.Context) error
	PurgePaidDebits(ctx context.Context) error
}

// Package analytics builds the point-in-time business snapshot: entity
// counts, revenue and debt exposure totals, top-20 ranking tables and the
// recent-sales feed.
package analytics

import (
	"context"
	"log"
	"sort"

	"gudangkita/backend/internal/cache"
	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/store"
)

const topLimit = 20

// Aggregator scans the transactional store and caches the resulting
// snapshot under the well-known analytics key.
type Aggregator struct {
	repo  store.Repository
	cache cache.Cache
}

func NewAggregator(repo store.Repository, c cache.Cache) *Aggregator {
	return &Aggregator{repo: repo, cache: c}
}

// ranking accumulates a top-N table: insert-or-increment keyed by entity id,
// preserving first-seen order until the final sort.
type ranking struct {
	byKey map[string]*domain.RankedEntry
	order []string
}

func newRanking() *ranking {
	return &ranking{byKey: map[string]*domain.RankedEntry{}}
}

func (r *ranking) add(key string, record any, amount float64) {
	if key == "" {
		return
	}
	if entry, ok := r.byKey[key]; ok {
		entry.Count += amount
		return
	}
	r.byKey[key] = &domain.RankedEntry{Key: key, Record: record, Count: amount}
	r.order = append(r.order, key)
}

// top sorts descending by count and caps the table at topLimit rows.
func (r *ranking) top() []domain.RankedEntry {
	entries := make([]domain.RankedEntry, 0, len(r.order))
	for _, key := range r.order {
		entries = append(entries, *r.byKey[key])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > topLimit {
		entries = entries[:topLimit]
	}
	return entries
}

// Process builds a fresh snapshot, caches it and returns it. A store failure
// is logged and reported as a nil snapshot.
func (a *Aggregator) Process(ctx context.Context) *domain.Analytics {
	customers, err := a.repo.CountCustomers(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to count customers: %v", err)
		return nil
	}
	suppliers, err := a.repo.CountSuppliers(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to count suppliers: %v", err)
		return nil
	}
	products, err := a.repo.CountProducts(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to count products: %v", err)
		return nil
	}
	empties, err := a.repo.CountOutOfStock(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to count out-of-stock: %v", err)
		return nil
	}
	sales, err := a.repo.ListSalesRecentFirst(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to load sales: %v", err)
		return nil
	}
	debits, err := a.repo.ListDebitsRecentFirst(ctx)
	if err != nil {
		log.Printf("[analytics] WARN: failed to load debits: %v", err)
		return nil
	}

	snapshot := &domain.Analytics{}
	snapshot.Count.Customers = customers
	snapshot.Count.Suppliers = suppliers
	snapshot.Count.Products = products
	snapshot.Count.Empties = empties
	snapshot.Count.Sales = int64(len(sales))

	categories := newRanking()
	topProducts := newRanking()
	topCustomers := newRanking()
	var recent []domain.RecentSale

	for _, sale := range sales {
		snapshot.Calculate.Revenue += sale.FinalPrice

		if sale.Customer != nil {
			topCustomers.add(sale.Customer.ID, sale.Customer, sale.FinalPrice)
		}
		for _, item := range sale.Items {
			if product := item.Product; product != nil {
				topProducts.add(product.ID, product, 1)
				if product.Category != nil {
					categories.add(product.Category.ID, product.Category, 1)
				}
			}
			if len(recent) < topLimit {
				recent = append(recent, domain.RecentSale{SaleItem: item, Parent: sale.ID})
			}
		}
	}

	var loans []domain.Debit
	for _, debit := range debits {
		if debit.Loan != nil {
			loans = append(loans, debit)
		}
		if debit.Status == domain.DebitPaid {
			continue
		}
		// A record can carry both sides; it then counts against both
		// exposures.
		outstanding := debit.Outstanding()
		if debit.Debt != nil {
			snapshot.Calculate.Debt += outstanding
			snapshot.Count.Debts++
		}
		if debit.Loan != nil {
			snapshot.Calculate.Loan += outstanding
			snapshot.Count.Loans++
		}
	}

	snapshot.Records = domain.AnalyticsRecords{
		Sales: domain.SalesRecords{Recent: recent, All: sales},
		Loans: loans,
		Highest: domain.TopTables{
			Categories: categories.top(),
			Products:   topProducts.top(),
			Customers:  topCustomers.top(),
		},
	}

	if err := a.cache.SetAnalytics(ctx, snapshot); err != nil {
		log.Printf("[analytics] WARN: failed to cache snapshot: %v", err)
	}
	return snapshot
}

// Refresh is the scheduled entry point. It yields to an in-flight
// reconciliation or period close rather than racing it over the same records.
func (a *Aggregator) Refresh(ctx context.Context) {
	for _, flag := range []string{cache.FlagSyncing, cache.FlagArchiving} {
		busy, err := a.cache.HasFlag(ctx, flag)
		if err != nil {
			log.Printf("[analytics] WARN: failed to read flag %s: %v", flag, err)
			return
		}
		if busy {
			log.Printf("[analytics] skipping refresh, %s is set", flag)
			return
		}
	}
	if a.Process(ctx) == nil {
		log.Print("[analytics] WARN: scheduled refresh failed")
	}
}

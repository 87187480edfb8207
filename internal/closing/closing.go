// Package closing drives the period close: snapshot the transactional state
// into the archive store and, only when every write landed, purge the
// transactional log and reseed the inventory baseline.
package closing

import (
	"context"
	"log"
	"math"
	"time"

	"gudangkita/backend/internal/analytics"
	"gudangkita/backend/internal/archive"
	"gudangkita/backend/internal/cache"
	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/stock"
	"gudangkita/backend/internal/store"
)

type phase string

const (
	phaseIdle      phase = "IDLE"
	phasePreparing phase = "PREPARING"
	phaseArchiving phase = "ARCHIVING"
	phaseCommit    phase = "COMMIT"
	phaseAbort     phase = "ABORT"
)

// Orchestrator runs one period close per Close call. Purging is gated on a
// strict all-or-nothing archival pass: one failed document write anywhere
// aborts the close and leaves the transactional store untouched.
type Orchestrator struct {
	repo    store.Repository
	arch    archive.Archiver
	cache   cache.Cache
	stocks  *stock.Reconciler
	metrics *analytics.Aggregator
	now     func() time.Time
}

func NewOrchestrator(repo store.Repository, arch archive.Archiver, c cache.Cache,
	stocks *stock.Reconciler, metrics *analytics.Aggregator) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		arch:    arch,
		cache:   c,
		stocks:  stocks,
		metrics: metrics,
		now:     time.Now,
	}
}

// snapshot is the full record set fetched during PREPARING.
type snapshot struct {
	products []domain.Product
	receipts []domain.Receipt
	sales    []domain.Sale
	debits   []domain.Debit
}

// Close archives the current period and purges the transactional log on
// success. It reports false when anything from fetching through the archival
// gate fails; the transactional store is only mutated after the gate passes.
func (o *Orchestrator) Close(ctx context.Context) bool {
	period := periodLabel(o.now())
	log.Printf("[closing] %s: closing period %s", phasePreparing, period)

	snap, ok := o.prepare(ctx)
	if !ok {
		return false
	}

	log.Printf("[closing] %s: %d products, %d receipts, %d sales, %d debts",
		phaseArchiving, len(snap.products), len(snap.receipts), len(snap.sales), len(snap.debits))
	counts, ok := o.archiveAll(ctx, snap, period)
	if !ok {
		log.Printf("[closing] %s: saved products %d/%d, receipts %d/%d, sales %d/%d, debts %d/%d",
			phaseAbort,
			counts.products, len(snap.products),
			counts.receipts, len(snap.receipts),
			counts.sales, len(snap.sales),
			counts.debits, len(snap.debits))
		return false
	}

	log.Printf("[closing] %s: period %s", phaseCommit, period)
	if !o.commit(ctx, snap, period) {
		return false
	}

	log.Printf("[closing] %s: period %s closed", phaseIdle, period)
	return true
}

func (o *Orchestrator) prepare(ctx context.Context) (snapshot, bool) {
	var snap snapshot
	var err error

	if snap.products, err = o.repo.ListProducts(ctx); err != nil {
		log.Printf("[closing] WARN: failed to load products: %v", err)
		return snap, false
	}
	if snap.receipts, err = o.repo.ListReceiptsRecentFirst(ctx); err != nil {
		log.Printf("[closing] WARN: failed to load receipts: %v", err)
		return snap, false
	}
	if snap.sales, err = o.repo.ListSalesRecentFirst(ctx); err != nil {
		log.Printf("[closing] WARN: failed to load sales: %v", err)
		return snap, false
	}
	if snap.debits, err = o.repo.ListPaidDebitsRecentFirst(ctx); err != nil {
		log.Printf("[closing] WARN: failed to load paid debits: %v", err)
		return snap, false
	}
	return snap, true
}

type savedCounts struct {
	products, receipts, sales, debits int
}

// archiveAll writes one archive document per record and reports true only
// when every category saved all of its inputs.
func (o *Orchestrator) archiveAll(ctx context.Context, snap snapshot, period string) (savedCounts, bool) {
	loggedAt := o.now()
	var counts savedCounts

	for _, p := range snap.products {
		if err := o.arch.Insert(ctx, archive.ProductRecord(p, period, loggedAt)); err != nil {
			log.Printf("[closing] WARN: failed to archive product %s: %v", p.ID, err)
			continue
		}
		counts.products++
	}
	for _, r := range snap.receipts {
		if err := o.arch.Insert(ctx, archive.ReceiptRecord(r, period, loggedAt)); err != nil {
			log.Printf("[closing] WARN: failed to archive receipt %s: %v", r.ID, err)
			continue
		}
		counts.receipts++
	}
	for _, s := range snap.sales {
		if err := o.arch.Insert(ctx, archive.SaleRecord(s, period, loggedAt)); err != nil {
			log.Printf("[closing] WARN: failed to archive sale %s: %v", s.ID, err)
			continue
		}
		counts.sales++
	}
	for _, d := range snap.debits {
		if err := o.arch.Insert(ctx, archive.DebitRecord(d, period, loggedAt)); err != nil {
			log.Printf("[closing] WARN: failed to archive debit %s: %v", d.ID, err)
			continue
		}
		counts.debits++
	}

	ok := counts.products == len(snap.products) &&
		counts.receipts == len(snap.receipts) &&
		counts.sales == len(snap.sales) &&
		counts.debits == len(snap.debits)
	return counts, ok
}

func (o *Orchestrator) commit(ctx context.Context, snap snapshot, period string) bool {
	if !o.markPeriod(ctx, period) {
		return false
	}

	// The sum document still gets written when the recompute fails; it then
	// carries empty analytics sections.
	metrics := o.metrics.Process(ctx)
	if metrics == nil {
		log.Print("[closing] WARN: failed to recompute analytics before summing")
		metrics = &domain.Analytics{}
	}

	summary := o.summarize(snap, metrics, period)
	if err := o.arch.Insert(ctx, summary); err != nil {
		log.Printf("[closing] WARN: failed to archive period summary: %v", err)
		return false
	}

	if !o.cleanse(ctx, snap, period) {
		return false
	}

	if !o.stocks.Sync(ctx) {
		log.Print("[closing] WARN: post-close reconciliation failed")
	}
	if o.metrics.Process(ctx) == nil {
		log.Print("[closing] WARN: post-close analytics refresh failed")
	}

	if err := o.cache.ClearFlags(ctx, cache.FlagCached); err != nil {
		log.Printf("[closing] WARN: failed to clear cached flag: %v", err)
	}
	if err := o.cache.ClearAnalytics(ctx); err != nil {
		log.Printf("[closing] WARN: failed to drop cached analytics: %v", err)
	}
	return true
}

// markPeriod writes the period marker unless one already exists.
func (o *Orchestrator) markPeriod(ctx context.Context, period string) bool {
	existing, err := o.arch.Find(ctx, archive.Query{
		Selector: map[string]any{"model": archive.ModelPeriod, "period": period},
		Limit:    1,
	})
	if err != nil {
		log.Printf("[closing] WARN: failed to look up period marker: %v", err)
		return false
	}
	if len(existing) > 0 {
		return true
	}
	if err := o.arch.Insert(ctx, archive.PeriodRecord(period, o.now())); err != nil {
		log.Printf("[closing] WARN: failed to write period marker: %v", err)
		return false
	}
	return true
}

// summarize builds the sum document for the closed period: category counts,
// buy/sell/debt totals and the analytics snapshot at close time.
func (o *Orchestrator) summarize(snap snapshot, metrics *domain.Analytics, period string) archive.PeriodSummary {
	var amount archive.AmountSummary

	for _, receipt := range snap.receipts {
		for _, item := range receipt.Items {
			cost := item.Cost
			if item.Discount > 0 {
				cost -= cost * item.Discount / 100
			}
			if math.IsNaN(cost) {
				cost = 0
			}
			amount.Receipts += cost
		}
	}
	// One rounding pass over the grand total, not per line.
	amount.Receipts = math.Round(amount.Receipts)

	for _, sale := range snap.sales {
		amount.Sales.Revenue += sale.SubPrice
		if sale.Tax > 0 {
			amount.Sales.Tax.Count++
		}
		amount.Sales.Tax.Amount += sale.FinalPrice - sale.SubPrice
	}

	for _, debit := range snap.debits {
		// Both-sided records count against both totals.
		if debit.Debt != nil {
			amount.Debts.Amount.Debt += debit.Money
			amount.Debts.Count.Debt++
		}
		if debit.Loan != nil {
			amount.Debts.Amount.Loan += debit.Money
			amount.Debts.Count.Loan++
		}
	}

	return archive.PeriodSummary{
		Period:   period,
		Model:    archive.ModelSum,
		Logged:   o.now(),
		Products: len(snap.products),
		Receipts: len(snap.receipts),
		Sales:    len(snap.sales),
		Debts:    len(snap.debits),
		Amount:   amount,
		Analytics: archive.AnalyticsSummary{
			Result: buildMonthlySeries(metrics.Records.Sales.All, metrics.Records.Loans),
			Top: archive.TopSummary{
				Product:  metrics.Records.Highest.Products,
				Customer: metrics.Records.Highest.Customers,
				Category: metrics.Records.Highest.Categories,
			},
		},
	}
}

// cleanse purges the closed period's transactional records and reseeds the
// baseline from the just-archived product snapshots.
func (o *Orchestrator) cleanse(ctx context.Context, snap snapshot, period string) bool {
	if err := o.repo.PurgeBaseline(ctx); err != nil {
		log.Printf("[closing] WARN: failed to purge baseline: %v", err)
		return false
	}
	if err := o.repo.PurgeReceipts(ctx); err != nil {
		log.Printf("[closing] WARN: failed to purge receipts: %v", err)
		return false
	}
	if err := o.repo.PurgeSales(ctx); err != nil {
		log.Printf("[closing] WARN: failed to purge sales: %v", err)
		return false
	}
	if err := o.repo.PurgePaidDebits(ctx); err != nil {
		log.Printf("[closing] WARN: failed to purge paid debits: %v", err)
		return false
	}

	entries := make([]domain.BaselineEntry, 0, len(snap.products))
	for _, p := range snap.products {
		inventory := p.Inventory
		if inventory < 0 {
			inventory = 0
		}
		entries = append(entries, domain.BaselineEntry{
			ProductID: p.ID,
			Inventory: inventory,
			Cost:      carryCost(p),
		})
	}
	if err := o.repo.InsertBaseline(ctx, entries); err != nil {
		log.Printf("[closing] WARN: failed to seed baseline for period %s: %v", period, err)
		return false
	}
	return true
}

// carryCost picks the cost figure carried into the next period: the band's
// max when known, then its min, then the legacy initialCost.
func carryCost(p domain.Product) float64 {
	switch {
	case p.Cost[1] > 0:
		return p.Cost[1]
	case p.Cost[0] > 0:
		return p.Cost[0]
	default:
		return p.InitialCost
	}
}

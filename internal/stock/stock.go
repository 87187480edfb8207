// Package stock recomputes per-product inventory levels and cost bands from
// the full receipt and sale history plus the carried-over baseline snapshot.
package stock

import (
	"context"
	"log"
	"math"
	"sort"

	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/store"
)

// CalculateQuantity converts a transaction quantity stated in an arbitrary
// unit into the product's base-unit count. When the product's bundle node
// unit matches the transaction unit, one transaction unit holds
// contain.amount base units; otherwise the quantity passes through as-is.
// Malformed numbers coerce to safe defaults: qty to 0, amount to 1.
func CalculateQuantity(product *domain.Product, unit *domain.Unit, qty float64) float64 {
	if math.IsNaN(qty) {
		qty = 0
	}
	if product == nil || unit == nil {
		return qty
	}
	bundle := product.Bundle
	if bundle == nil || bundle.Node == nil || bundle.Node.Unit == nil || bundle.Contain == nil {
		return qty
	}
	if bundle.Node.Unit.ID != unit.ID {
		return qty
	}
	amount := bundle.Contain.Amount
	if math.IsNaN(amount) {
		amount = 1
	}
	return qty * amount
}

func discountedCost(cost, discount float64) float64 {
	if math.IsNaN(cost) {
		cost = 0
	}
	if math.IsNaN(discount) {
		discount = 0
	}
	return cost - cost*discount/100
}

// tally is the per-product running state accumulated over one reconciliation
// pass: the inbound-minus-outbound quantity delta and the observed per-unit
// cost samples. A product whose first activity is outbound has no inbound
// figure to subtract from; its delta is numerically anomalous and coerces to
// zero, leaving the baseline as the final inventory.
type tally struct {
	delta     float64
	samples   []float64
	seeded    bool
	anomalous bool
}

// Reconciler recomputes every product's inventory and cost band from the
// transactional history and persists the results.
type Reconciler struct {
	repo store.Repository
}

func NewReconciler(repo store.Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Sync runs one full reconciliation pass. It reports false when a store read
// or write fails; updates already applied before the failure are kept, each
// product write stands on its own.
func (r *Reconciler) Sync(ctx context.Context) bool {
	receipts, err := r.repo.ListReceipts(ctx)
	if err != nil {
		log.Printf("[stock] WARN: failed to load receipts: %v", err)
		return false
	}
	sales, err := r.repo.ListSales(ctx)
	if err != nil {
		log.Printf("[stock] WARN: failed to load sales: %v", err)
		return false
	}
	baseline, err := r.repo.ListBaseline(ctx)
	if err != nil {
		log.Printf("[stock] WARN: failed to load baseline: %v", err)
		return false
	}

	baselineByID := make(map[string]domain.BaselineEntry, len(baseline))
	for _, entry := range baseline {
		baselineByID[entry.ProductID] = entry
	}

	tallies := map[string]*tally{}
	products := map[string]*domain.Product{}
	track := func(p *domain.Product) *tally {
		t, ok := tallies[p.ID]
		if !ok {
			t = &tally{}
			tallies[p.ID] = t
			products[p.ID] = p
		}
		return t
	}

	for _, receipt := range receipts {
		for _, item := range receipt.Items {
			converted := CalculateQuantity(item.Product, item.Unit, item.Qty)
			t := track(item.Product)
			t.seeded = true
			t.delta += converted

			cost := discountedCost(item.Cost, item.Discount)
			sample := 0.0
			if cost != 0 && converted != 0 {
				sample = math.Ceil(cost / converted)
			}
			t.samples = append(t.samples, sample)
		}
	}

	for _, sale := range sales {
		for _, item := range sale.Items {
			t := track(item.Product)
			if !t.seeded {
				t.anomalous = true
				continue
			}
			t.delta -= CalculateQuantity(item.Product, item.SalesQty.Unit, item.SalesQty.Qty)
			if item.BonusQty != nil {
				t.delta -= CalculateQuantity(item.Product, item.BonusQty.Unit, item.BonusQty.Qty)
			}
		}
	}

	// No transactions at all means the period just closed: every baselined
	// product carries its snapshot forward unchanged.
	if len(tallies) == 0 {
		for productID, entry := range baselineByID {
			err := r.repo.UpdateProductStock(ctx, productID, entry.Inventory, domain.CostBand{0, entry.Cost})
			if err != nil {
				log.Printf("[stock] WARN: failed to reset product %s: %v", productID, err)
				return false
			}
		}
		return true
	}

	for productID, t := range tallies {
		inventory := t.delta
		if t.anomalous {
			inventory = 0
		}
		if entry, ok := baselineByID[productID]; ok {
			inventory += entry.Inventory
		}

		cost := costBand(products[productID], t.samples)
		if err := r.repo.UpdateProductStock(ctx, productID, inventory, cost); err != nil {
			log.Printf("[stock] WARN: failed to update product %s: %v", productID, err)
			return false
		}
	}
	return true
}

// costBand picks the [min, max] unit-cost range for one product. A positive
// legacy initialCost takes precedence over observed samples. The band always
// satisfies band[0] <= band[1].
func costBand(product *domain.Product, samples []float64) domain.CostBand {
	if product != nil && product.InitialCost > 0 {
		return domain.CostBand{0, product.InitialCost}
	}
	var band domain.CostBand
	switch len(samples) {
	case 0:
	case 1:
		band = domain.CostBand{0, samples[0]}
	default:
		sorted := append([]float64(nil), samples...)
		sort.Float64s(sorted)
		band = domain.CostBand{sorted[0], sorted[len(sorted)-1]}
	}
	if band[0] > band[1] {
		band[0], band[1] = band[1], band[0]
	}
	return band
}

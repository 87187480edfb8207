package stock

import (
	"context"
	"errors"
	"math"
	"testing"

	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/store/memory"
)

var (
	boxUnit = domain.Unit{ID: "u-box", Name: "box"}
	pcsUnit = domain.Unit{ID: "u-pcs", Name: "pcs"}
)

func bundledProduct(id string, amount float64) domain.Product {
	return domain.Product{
		ID:   id,
		Name: "bundled " + id,
		Unit: &pcsUnit,
		Bundle: &domain.Bundle{
			Node:    &domain.BundleSide{Unit: &boxUnit, Amount: 1},
			Contain: &domain.BundleSide{Unit: &pcsUnit, Amount: amount},
		},
	}
}

func TestCalculateQuantity(t *testing.T) {
	product := bundledProduct("p1", 12)

	if got := CalculateQuantity(&product, &boxUnit, 5); got != 60 {
		t.Fatalf("box qty 5 = %v, want 60", got)
	}
	if got := CalculateQuantity(&product, &pcsUnit, 10); got != 10 {
		t.Fatalf("pcs qty 10 = %v, want 10", got)
	}

	plain := domain.Product{ID: "p2", Unit: &pcsUnit}
	if got := CalculateQuantity(&plain, &boxUnit, 7); got != 7 {
		t.Fatalf("no bundle qty 7 = %v, want 7", got)
	}

	if got := CalculateQuantity(&product, &boxUnit, math.NaN()); got != 0 {
		t.Fatalf("NaN qty = %v, want 0", got)
	}

	broken := bundledProduct("p3", math.NaN())
	if got := CalculateQuantity(&broken, &boxUnit, 5); got != 5 {
		t.Fatalf("NaN amount qty 5 = %v, want 5 (amount defaults to 1)", got)
	}
}

func TestSyncConvertsAndNets(t *testing.T) {
	repo := memory.New()
	product := bundledProduct("p1", 12)
	repo.AddProduct(product)

	repo.AddReceipt(domain.Receipt{
		ID: "r1",
		Items: []domain.ReceiptItem{
			{Product: &product, Unit: &boxUnit, Qty: 5, Cost: 120},
		},
	})
	repo.AddSale(domain.Sale{
		ID: "s1",
		Items: []domain.SaleItem{
			{Product: &product, SalesQty: domain.ItemQty{Unit: &pcsUnit, Qty: 10}},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, ok := repo.Product("p1")
	if !ok {
		t.Fatal("product p1 disappeared")
	}
	if got.Inventory != 50 {
		t.Fatalf("inventory = %v, want 50 (60 in, 10 out)", got.Inventory)
	}
	// 120 over 60 converted units is a 2-per-unit sample; alone it lands in
	// the [0, sample] band.
	if got.Cost != (domain.CostBand{0, 2}) {
		t.Fatalf("cost = %v, want [0 2]", got.Cost)
	}
}

func TestSyncCostBands(t *testing.T) {
	repo := memory.New()
	product := domain.Product{ID: "p1", Name: "plain", Unit: &pcsUnit}
	repo.AddProduct(product)

	// Three receipts at unit costs 12, 15 and 9.
	for _, cost := range []float64{12, 15, 9} {
		repo.AddReceipt(domain.Receipt{
			Items: []domain.ReceiptItem{
				{Product: &product, Unit: &pcsUnit, Qty: 1, Cost: cost},
			},
		})
	}

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Cost != (domain.CostBand{9, 15}) {
		t.Fatalf("cost = %v, want [9 15]", got.Cost)
	}
	if got.Inventory != 3 {
		t.Fatalf("inventory = %v, want 3", got.Inventory)
	}
}

func TestSyncInitialCostWins(t *testing.T) {
	repo := memory.New()
	product := domain.Product{ID: "p1", Unit: &pcsUnit, InitialCost: 40}
	repo.AddProduct(product)
	repo.AddReceipt(domain.Receipt{
		Items: []domain.ReceiptItem{
			{Product: &product, Unit: &pcsUnit, Qty: 2, Cost: 100},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Cost != (domain.CostBand{0, 40}) {
		t.Fatalf("cost = %v, want [0 40] from initialCost", got.Cost)
	}
}

func TestSyncDiscountAndBonus(t *testing.T) {
	repo := memory.New()
	product := domain.Product{ID: "p1", Unit: &pcsUnit}
	repo.AddProduct(product)

	// 100 discounted 25% over 10 units: ceil(75/10) = 8.
	repo.AddReceipt(domain.Receipt{
		Items: []domain.ReceiptItem{
			{Product: &product, Unit: &pcsUnit, Qty: 10, Cost: 100, Discount: 25},
		},
	})
	repo.AddSale(domain.Sale{
		Items: []domain.SaleItem{
			{
				Product:  &product,
				SalesQty: domain.ItemQty{Unit: &pcsUnit, Qty: 3},
				BonusQty: &domain.ItemQty{Unit: &pcsUnit, Qty: 1},
			},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Inventory != 6 {
		t.Fatalf("inventory = %v, want 6 (10 in, 3 sold, 1 bonus)", got.Inventory)
	}
	if got.Cost != (domain.CostBand{0, 8}) {
		t.Fatalf("cost = %v, want [0 8]", got.Cost)
	}
}

func TestSyncAppliesBaseline(t *testing.T) {
	repo := memory.New()
	product := domain.Product{ID: "p1", Unit: &pcsUnit}
	repo.AddProduct(product)
	if err := repo.InsertBaseline(context.Background(), []domain.BaselineEntry{
		{ProductID: "p1", Inventory: 30, Cost: 5},
	}); err != nil {
		t.Fatalf("InsertBaseline: %v", err)
	}
	repo.AddReceipt(domain.Receipt{
		Items: []domain.ReceiptItem{
			{Product: &product, Unit: &pcsUnit, Qty: 10, Cost: 50},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Inventory != 40 {
		t.Fatalf("inventory = %v, want 40 (10 delta + 30 baseline)", got.Inventory)
	}
}

func TestSyncNoActivityResetsFromBaseline(t *testing.T) {
	repo := memory.New()
	repo.AddProduct(domain.Product{ID: "p1", Unit: &pcsUnit, Inventory: 999})
	if err := repo.InsertBaseline(context.Background(), []domain.BaselineEntry{
		{ProductID: "p1", Inventory: 25, Cost: 7},
	}); err != nil {
		t.Fatalf("InsertBaseline: %v", err)
	}

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Inventory != 25 {
		t.Fatalf("inventory = %v, want 25 from baseline", got.Inventory)
	}
	if got.Cost != (domain.CostBand{0, 7}) {
		t.Fatalf("cost = %v, want [0 7] from baseline", got.Cost)
	}
}

func TestSyncSalesWithoutReceiptsKeepsBaseline(t *testing.T) {
	repo := memory.New()
	product := domain.Product{ID: "p1", Unit: &pcsUnit}
	repo.AddProduct(product)
	if err := repo.InsertBaseline(context.Background(), []domain.BaselineEntry{
		{ProductID: "p1", Inventory: 20, Cost: 4},
	}); err != nil {
		t.Fatalf("InsertBaseline: %v", err)
	}
	// Outbound activity with no inbound figure to subtract from: the delta
	// is anomalous and coerces to zero.
	repo.AddSale(domain.Sale{
		Items: []domain.SaleItem{
			{Product: &product, SalesQty: domain.ItemQty{Unit: &pcsUnit, Qty: 7}},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("Sync() = false, want true")
	}

	got, _ := repo.Product("p1")
	if got.Inventory != 20 {
		t.Fatalf("inventory = %v, want 20 (baseline kept)", got.Inventory)
	}
}

func TestSyncIdempotent(t *testing.T) {
	repo := memory.New()
	product := bundledProduct("p1", 6)
	repo.AddProduct(product)
	repo.AddReceipt(domain.Receipt{
		Items: []domain.ReceiptItem{
			{Product: &product, Unit: &boxUnit, Qty: 4, Cost: 48},
		},
	})
	repo.AddSale(domain.Sale{
		Items: []domain.SaleItem{
			{Product: &product, SalesQty: domain.ItemQty{Unit: &pcsUnit, Qty: 5}},
		},
	})

	r := NewReconciler(repo)
	if !r.Sync(context.Background()) {
		t.Fatal("first Sync() = false, want true")
	}
	first, _ := repo.Product("p1")

	if !r.Sync(context.Background()) {
		t.Fatal("second Sync() = false, want true")
	}
	second, _ := repo.Product("p1")

	if first.Inventory != second.Inventory || first.Cost != second.Cost {
		t.Fatalf("second run diverged: %v/%v then %v/%v",
			first.Inventory, first.Cost, second.Inventory, second.Cost)
	}
}

func TestSyncStoreFailure(t *testing.T) {
	repo := memory.New()
	repo.Fail(errors.New("connection refused"))

	r := NewReconciler(repo)
	if r.Sync(context.Background()) {
		t.Fatal("Sync() = true with failing store, want false")
	}
}

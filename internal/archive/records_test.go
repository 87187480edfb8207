package archive

import (
	"testing"
	"time"

	"gudangkita/backend/internal/domain"
)

func TestProductRecordClampsInventory(t *testing.T) {
	p := domain.Product{ID: "p1", Name: "kopi", Inventory: -4}

	rec := ProductRecord(p, "Agt-2026", time.Now())
	if rec.Inventory != 0 {
		t.Fatalf("inventory = %v, want 0 (never archived negative)", rec.Inventory)
	}
	if rec.Model != ModelProducts || rec.Period != "Agt-2026" {
		t.Fatalf("tags = %s/%s, want products/Agt-2026", rec.Model, rec.Period)
	}
}

func TestRecordsStripNestedIDs(t *testing.T) {
	product := domain.Product{
		ID:       "p1",
		Name:     "kopi",
		Category: &domain.Category{ID: "cat1", Name: "drinks"},
		Unit:     &domain.Unit{ID: "u1", Name: "pcs"},
	}
	sale := domain.Sale{
		ID:       "s1",
		Customer: &domain.Customer{ID: "c1", Name: "Budi"},
		Items: []domain.SaleItem{
			{Product: &product, SalesQty: domain.ItemQty{Unit: &domain.Unit{ID: "u1", Name: "pcs"}, Qty: 2}},
		},
		Author: domain.Author{
			Created: &domain.ActionLog{By: &domain.User{ID: "user1", Name: "admin"}, Time: time.Now()},
		},
	}

	rec := SaleRecord(sale, "Agt-2026", time.Now())
	if rec.Customer == nil || rec.Customer.Name != "Budi" {
		t.Fatalf("customer = %+v, want embedded Budi", rec.Customer)
	}
	item := rec.Items[0]
	if item.Product == nil || item.Product.Name != "kopi" {
		t.Fatalf("item product = %+v, want embedded kopi", item.Product)
	}
	if item.Product.Category == nil || item.Product.Category.Name != "drinks" {
		t.Fatalf("item category = %+v, want embedded drinks", item.Product.Category)
	}
	if rec.Author.Created == nil || rec.Author.Created.By.Name != "admin" {
		t.Fatalf("author = %+v, want embedded admin", rec.Author.Created)
	}
}

func TestDebitRecordKeepsSides(t *testing.T) {
	d := domain.Debit{
		ID: "d1", Money: 500, Status: domain.DebitUnpaid,
		Loan:        &domain.Loan{Customer: &domain.Customer{ID: "c1", Name: "Sari"}, Reference: "INV-7"},
		Instalments: []domain.Instalment{{Money: 100, Date: time.Now()}},
	}

	rec := DebitRecord(d, "Agt-2026", time.Now())
	if rec.Loan == nil || rec.Loan.Reference != "INV-7" || rec.Loan.Customer.Name != "Sari" {
		t.Fatalf("loan = %+v, want reference INV-7 with Sari", rec.Loan)
	}
	if rec.Debt != nil {
		t.Fatalf("debt = %+v, want nil on a loan record", rec.Debt)
	}
	if len(rec.Instalment) != 1 || rec.Instalment[0].Money != 100 {
		t.Fatalf("instalments = %+v, want single 100 payment", rec.Instalment)
	}
}

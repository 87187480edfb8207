package archive

import (
	"time"

	"gudangkita/backend/internal/domain"
)

// Archived documents embed their related entities without identifier fields.
// The archive store is schemaless and keeps every period's snapshot side by
// side, so carrying the transactional ids of nested entities would collide
// across periods; the types below omit them by construction.

type CategoryDoc struct {
	Name string `json:"name"`
}

type UnitDoc struct {
	Name  string `json:"name"`
	Short string `json:"short,omitempty"`
}

type CustomerDoc struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

type SupplierDoc struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type UserDoc struct {
	Name string `json:"name"`
}

type ActionDoc struct {
	By   *UserDoc  `json:"by,omitempty"`
	Time time.Time `json:"time"`
}

type AuthorDoc struct {
	Created *ActionDoc `json:"created,omitempty"`
	Edited  *ActionDoc `json:"edited,omitempty"`
	Deleted *ActionDoc `json:"deleted,omitempty"`
}

type BundleSideDoc struct {
	Unit   *UnitDoc `json:"unit,omitempty"`
	Amount float64  `json:"amount"`
}

type BundleDoc struct {
	Node    *BundleSideDoc `json:"node,omitempty"`
	Contain *BundleSideDoc `json:"contain,omitempty"`
}

// ProductDoc is a product embedded inside an archived line item: no id, no
// audit trail, references stripped to their values.
type ProductDoc struct {
	Name        string          `json:"name"`
	Category    *CategoryDoc    `json:"category,omitempty"`
	Unit        *UnitDoc        `json:"unit,omitempty"`
	Bundle      *BundleDoc      `json:"bundle,omitempty"`
	Inventory   float64         `json:"inventory"`
	InitialCost float64         `json:"initialCost,omitempty"`
	Cost        domain.CostBand `json:"cost"`
}

func stripCategory(c *domain.Category) *CategoryDoc {
	if c == nil {
		return nil
	}
	return &CategoryDoc{Name: c.Name}
}

func stripUnit(u *domain.Unit) *UnitDoc {
	if u == nil {
		return nil
	}
	return &UnitDoc{Name: u.Name, Short: u.Short}
}

func stripCustomer(c *domain.Customer) *CustomerDoc {
	if c == nil {
		return nil
	}
	return &CustomerDoc{Name: c.Name, Phone: c.Phone, Address: c.Address, City: c.City}
}

func stripSupplier(s *domain.Supplier) *SupplierDoc {
	if s == nil {
		return nil
	}
	return &SupplierDoc{Name: s.Name, Phone: s.Phone, Address: s.Address}
}

func stripAction(a *domain.ActionLog) *ActionDoc {
	if a == nil {
		return nil
	}
	doc := &ActionDoc{Time: a.Time}
	if a.By != nil {
		doc.By = &UserDoc{Name: a.By.Name}
	}
	return doc
}

func stripAuthor(a domain.Author) AuthorDoc {
	return AuthorDoc{
		Created: stripAction(a.Created),
		Edited:  stripAction(a.Edited),
		Deleted: stripAction(a.Deleted),
	}
}

func stripBundle(b *domain.Bundle) *BundleDoc {
	if b == nil {
		return nil
	}
	doc := &BundleDoc{}
	if b.Node != nil {
		doc.Node = &BundleSideDoc{Unit: stripUnit(b.Node.Unit), Amount: b.Node.Amount}
	}
	if b.Contain != nil {
		doc.Contain = &BundleSideDoc{Unit: stripUnit(b.Contain.Unit), Amount: b.Contain.Amount}
	}
	return doc
}

func stripProduct(p *domain.Product) *ProductDoc {
	if p == nil {
		return nil
	}
	return &ProductDoc{
		Name:        p.Name,
		Category:    stripCategory(p.Category),
		Unit:        stripUnit(p.Unit),
		Bundle:      stripBundle(p.Bundle),
		Inventory:   p.Inventory,
		InitialCost: p.InitialCost,
		Cost:        p.Cost,
	}
}

// ArchivedProduct is one product snapshot in the archive. Inventory is
// clamped to zero at construction: a negative figure is a bookkeeping
// artifact and must never be persisted to the archive.
type ArchivedProduct struct {
	Logged      time.Time       `json:"logged"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	InitialCost float64         `json:"initialCost"`
	Cost        domain.CostBand `json:"cost"`
	Inventory   float64         `json:"inventory"`
	Bundle      *BundleDoc      `json:"bundle,omitempty"`
	Category    *CategoryDoc    `json:"category,omitempty"`
	Unit        *UnitDoc        `json:"unit,omitempty"`
	Author      AuthorDoc       `json:"author"`
	Period      string          `json:"period"`
	Model       string          `json:"model"`
}

func ProductRecord(p domain.Product, period string, loggedAt time.Time) ArchivedProduct {
	inventory := p.Inventory
	if inventory < 0 {
		inventory = 0
	}
	return ArchivedProduct{
		Logged:      loggedAt,
		ID:          p.ID,
		Name:        p.Name,
		InitialCost: p.InitialCost,
		Cost:        p.Cost,
		Inventory:   inventory,
		Bundle:      stripBundle(p.Bundle),
		Category:    stripCategory(p.Category),
		Unit:        stripUnit(p.Unit),
		Author:      stripAuthor(p.Author),
		Period:      period,
		Model:       ModelProducts,
	}
}

type ReceiptItemDoc struct {
	Product  *ProductDoc `json:"product,omitempty"`
	Unit     *UnitDoc    `json:"unit,omitempty"`
	Qty      float64     `json:"qty"`
	Cost     float64     `json:"cost"`
	Discount float64     `json:"discount,omitempty"`
}

type ArchivedReceipt struct {
	Logged    time.Time        `json:"logged"`
	ID        string           `json:"id"`
	Reference string           `json:"reference,omitempty"`
	Date      *time.Time       `json:"date,omitempty"`
	Supplier  *SupplierDoc     `json:"supplier,omitempty"`
	Items     []ReceiptItemDoc `json:"products"`
	Author    AuthorDoc        `json:"author"`
	Period    string           `json:"period"`
	Model     string           `json:"model"`
}

func ReceiptRecord(r domain.Receipt, period string, loggedAt time.Time) ArchivedReceipt {
	items := make([]ReceiptItemDoc, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReceiptItemDoc{
			Product:  stripProduct(item.Product),
			Unit:     stripUnit(item.Unit),
			Qty:      item.Qty,
			Cost:     item.Cost,
			Discount: item.Discount,
		})
	}
	return ArchivedReceipt{
		Logged:    loggedAt,
		ID:        r.ID,
		Reference: r.Reference,
		Date:      r.Date,
		Supplier:  stripSupplier(r.Supplier),
		Items:     items,
		Author:    stripAuthor(r.Author),
		Period:    period,
		Model:     ModelReceipts,
	}
}

type ItemQtyDoc struct {
	Unit *UnitDoc `json:"unit,omitempty"`
	Qty  float64  `json:"qty"`
}

type SaleItemDoc struct {
	Product  *ProductDoc `json:"product,omitempty"`
	SalesQty ItemQtyDoc  `json:"salesQty"`
	BonusQty *ItemQtyDoc `json:"bonusQty,omitempty"`
	Price    float64     `json:"price"`
	Discount float64     `json:"discount,omitempty"`
}

type ArchivedSale struct {
	Logged     time.Time     `json:"logged"`
	ID         string        `json:"id"`
	Reference  string        `json:"reference,omitempty"`
	SubPrice   float64       `json:"subPrice"`
	FinalPrice float64       `json:"finalPrice"`
	Paid       float64       `json:"paid"`
	Change     float64       `json:"change"`
	Tax        float64       `json:"tax"`
	Date       *time.Time    `json:"date,omitempty"`
	Customer   *CustomerDoc  `json:"customer,omitempty"`
	Items      []SaleItemDoc `json:"products"`
	Author     AuthorDoc     `json:"author"`
	Period     string        `json:"period"`
	Model      string        `json:"model"`
}

func SaleRecord(s domain.Sale, period string, loggedAt time.Time) ArchivedSale {
	items := make([]SaleItemDoc, 0, len(s.Items))
	for _, item := range s.Items {
		doc := SaleItemDoc{
			Product:  stripProduct(item.Product),
			SalesQty: ItemQtyDoc{Unit: stripUnit(item.SalesQty.Unit), Qty: item.SalesQty.Qty},
			Price:    item.Price,
			Discount: item.Discount,
		}
		if item.BonusQty != nil {
			doc.BonusQty = &ItemQtyDoc{Unit: stripUnit(item.BonusQty.Unit), Qty: item.BonusQty.Qty}
		}
		items = append(items, doc)
	}
	return ArchivedSale{
		Logged:     loggedAt,
		ID:         s.ID,
		Reference:  s.Reference,
		SubPrice:   s.SubPrice,
		FinalPrice: s.FinalPrice,
		Paid:       s.Paid,
		Change:     s.Change,
		Tax:        s.Tax,
		Date:       s.Date,
		Customer:   stripCustomer(s.Customer),
		Items:      items,
		Author:     stripAuthor(s.Author),
		Period:     period,
		Model:      ModelSales,
	}
}

type DebtDoc struct {
	Supplier  *SupplierDoc `json:"supplier,omitempty"`
	Reference string       `json:"reference,omitempty"`
}

type LoanDoc struct {
	Customer  *CustomerDoc `json:"customer,omitempty"`
	Reference string       `json:"reference,omitempty"`
}

type ArchivedDebit struct {
	Logged     time.Time           `json:"logged"`
	ID         string              `json:"id"`
	Money      float64             `json:"money"`
	Status     domain.DebitStatus  `json:"status"`
	Instalment []domain.Instalment `json:"instalment,omitempty"`
	Date       *time.Time          `json:"date,omitempty"`
	Debt       *DebtDoc            `json:"debt,omitempty"`
	Loan       *LoanDoc            `json:"loan,omitempty"`
	Author     AuthorDoc           `json:"author"`
	Period     string              `json:"period"`
	Model      string              `json:"model"`
}

func DebitRecord(d domain.Debit, period string, loggedAt time.Time) ArchivedDebit {
	rec := ArchivedDebit{
		Logged:     loggedAt,
		ID:         d.ID,
		Money:      d.Money,
		Status:     d.Status,
		Instalment: d.Instalments,
		Date:       d.Date,
		Author:     stripAuthor(d.Author),
		Period:     period,
		Model:      ModelDebts,
	}
	if d.Debt != nil {
		rec.Debt = &DebtDoc{Supplier: stripSupplier(d.Debt.Supplier), Reference: d.Debt.Reference}
	}
	if d.Loan != nil {
		rec.Loan = &LoanDoc{Customer: stripCustomer(d.Loan.Customer), Reference: d.Loan.Reference}
	}
	return rec
}

// PeriodMarker flags a period as closed; at most one exists per period.
type PeriodMarker struct {
	Period string    `json:"period"`
	Model  string    `json:"model"`
	Logged time.Time `json:"logged"`
}

func PeriodRecord(period string, loggedAt time.Time) PeriodMarker {
	return PeriodMarker{Period: period, Model: ModelPeriod, Logged: loggedAt}
}

type TaxSummary struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

type SellSummary struct {
	Revenue float64    `json:"revenue"`
	Tax     TaxSummary `json:"tax"`
}

type DebtTotals struct {
	Debt float64 `json:"debt"`
	Loan float64 `json:"loan"`
}

type DebtCounts struct {
	Debt int `json:"debt"`
	Loan int `json:"loan"`
}

type DebtSummary struct {
	Amount DebtTotals `json:"amount"`
	Count  DebtCounts `json:"count"`
}

type AmountSummary struct {
	Receipts float64     `json:"receipts"`
	Sales    SellSummary `json:"sales"`
	Debts    DebtSummary `json:"debts"`
}

type TopSummary struct {
	Product  []domain.RankedEntry `json:"product"`
	Customer []domain.RankedEntry `json:"customer"`
	Category []domain.RankedEntry `json:"category"`
}

type AnalyticsSummary struct {
	Result domain.MonthlySeries `json:"result"`
	Top    TopSummary           `json:"top"`
}

// PeriodSummary is the `sum` document: per-period category counts, monetary
// totals and the analytics snapshot at close time.
type PeriodSummary struct {
	Period    string           `json:"period"`
	Model     string           `json:"model"`
	Logged    time.Time        `json:"logged"`
	Products  int              `json:"products"`
	Receipts  int              `json:"receipts"`
	Sales     int              `json:"sales"`
	Debts     int              `json:"debts"`
	Amount    AmountSummary    `json:"amount"`
	Analytics AnalyticsSummary `json:"analytics"`
}

package domain

import "time"

// DebitStatus tracks how far a debt or loan record has been settled.
type DebitStatus string

const (
	DebitUnpaid     DebitStatus = "unpaid"
	DebitInstalment DebitStatus = "instalment"
	DebitPaid       DebitStatus = "paid"
)

type User struct {
	ID   string `json:"id,omitempty" bson:"_id,omitempty"`
	Name string `json:"name" bson:"name"`
}

// ActionLog records who touched a record and when.
type ActionLog struct {
	By   *User     `json:"by,omitempty" bson:"by,omitempty"`
	Time time.Time `json:"time" bson:"time"`
}

type Author struct {
	Created *ActionLog `json:"created,omitempty" bson:"created,omitempty"`
	Edited  *ActionLog `json:"edited,omitempty" bson:"edited,omitempty"`
	Deleted *ActionLog `json:"deleted,omitempty" bson:"deleted,omitempty"`
}

type Category struct {
	ID   string `json:"id,omitempty" bson:"_id,omitempty"`
	Name string `json:"name" bson:"name"`
}

type Unit struct {
	ID    string `json:"id,omitempty" bson:"_id,omitempty"`
	Name  string `json:"name" bson:"name"`
	Short string `json:"short,omitempty" bson:"short,omitempty"`
}

type Customer struct {
	ID      string `json:"id,omitempty" bson:"_id,omitempty"`
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
}

type Supplier struct {
	ID      string `json:"id,omitempty" bson:"_id,omitempty"`
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
}

// BundleSide is one half of a bundle conversion rule: a unit and how many of
// it the other side represents.
type BundleSide struct {
	Unit   *Unit   `json:"unit,omitempty" bson:"unit,omitempty"`
	Amount float64 `json:"amount" bson:"amount"`
}

// Bundle maps a product's transaction unit (node) onto its canonical base
// unit (contain): one node unit equals Contain.Amount base units.
type Bundle struct {
	Node    *BundleSide `json:"node,omitempty" bson:"node,omitempty"`
	Contain *BundleSide `json:"contain,omitempty" bson:"contain,omitempty"`
}

// CostBand is the [min, max] unit-cost range observed for a product.
type CostBand [2]float64

type Product struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Category    *Category `json:"category,omitempty" bson:"category,omitempty"`
	Unit        *Unit     `json:"unit,omitempty" bson:"unit,omitempty"`
	Bundle      *Bundle   `json:"bundle,omitempty" bson:"bundle,omitempty"`
	Images      []string  `json:"images,omitempty" bson:"images,omitempty"`
	Variant     []string  `json:"variant,omitempty" bson:"variant,omitempty"`
	Inventory   float64   `json:"inventory" bson:"inventory"`
	InitialCost float64   `json:"initialCost,omitempty" bson:"initialCost,omitempty"`
	Cost        CostBand  `json:"cost" bson:"cost"`
	Author      Author    `json:"author" bson:"author"`
}

type ReceiptItem struct {
	Product  *Product `json:"product,omitempty" bson:"product,omitempty"`
	Unit     *Unit    `json:"unit,omitempty" bson:"unit,omitempty"`
	Qty      float64  `json:"qty" bson:"qty"`
	Cost     float64  `json:"cost" bson:"cost"`
	Discount float64  `json:"discount,omitempty" bson:"discount,omitempty"`
}

// Receipt is an inbound transaction: goods received from a supplier.
type Receipt struct {
	ID        string        `json:"id,omitempty" bson:"_id,omitempty"`
	Reference string        `json:"reference,omitempty" bson:"reference,omitempty"`
	Supplier  *Supplier     `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Items     []ReceiptItem `json:"products" bson:"products"`
	Date      *time.Time    `json:"date,omitempty" bson:"date,omitempty"`
	Author    Author        `json:"author" bson:"author"`
}

type ItemQty struct {
	Unit *Unit   `json:"unit,omitempty" bson:"unit,omitempty"`
	Qty  float64 `json:"qty" bson:"qty"`
}

type SaleItem struct {
	Product  *Product `json:"product,omitempty" bson:"product,omitempty"`
	SalesQty ItemQty  `json:"salesQty" bson:"salesQty"`
	BonusQty *ItemQty `json:"bonusQty,omitempty" bson:"bonusQty,omitempty"`
	Price    float64  `json:"price" bson:"price"`
	Discount float64  `json:"discount,omitempty" bson:"discount,omitempty"`
}

// Sale is an outbound transaction: goods sold to a customer.
type Sale struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty"`
	Reference  string     `json:"reference,omitempty" bson:"reference,omitempty"`
	Customer   *Customer  `json:"customer,omitempty" bson:"customer,omitempty"`
	Items      []SaleItem `json:"products" bson:"products"`
	SubPrice   float64    `json:"subPrice" bson:"subPrice"`
	FinalPrice float64    `json:"finalPrice" bson:"finalPrice"`
	Paid       float64    `json:"paid" bson:"paid"`
	Change     float64    `json:"change,omitempty" bson:"change,omitempty"`
	Tax        float64    `json:"tax,omitempty" bson:"tax,omitempty"`
	Date       *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Author     Author     `json:"author" bson:"author"`
}

// When picks the sale's business datetime: the document date when present,
// falling back to the creation time.
func (s Sale) When() *time.Time {
	if s.Date != nil {
		return s.Date
	}
	if s.Author.Created != nil {
		t := s.Author.Created.Time
		return &t
	}
	return nil
}

// Debt is money owed to a supplier; Loan is money a customer owes us. A debit
// record carries at most one of the two.
type Debt struct {
	Supplier  *Supplier `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Reference string    `json:"reference,omitempty" bson:"reference,omitempty"`
}

type Loan struct {
	Customer  *Customer `json:"customer,omitempty" bson:"customer,omitempty"`
	Reference string    `json:"reference,omitempty" bson:"reference,omitempty"`
}

type Instalment struct {
	Money float64   `json:"money" bson:"money"`
	Date  time.Time `json:"date" bson:"date"`
}

type Debit struct {
	ID          string       `json:"id,omitempty" bson:"_id,omitempty"`
	Money       float64      `json:"money" bson:"money"`
	Status      DebitStatus  `json:"status" bson:"status"`
	Debt        *Debt        `json:"debt,omitempty" bson:"debt,omitempty"`
	Loan        *Loan        `json:"loan,omitempty" bson:"loan,omitempty"`
	Instalments []Instalment `json:"instalment,omitempty" bson:"instalment,omitempty"`
	Date        *time.Time   `json:"date,omitempty" bson:"date,omitempty"`
	Author      Author       `json:"author" bson:"author"`
}

// Outstanding is the unsettled money on a debit record: Money minus every
// instalment already paid. Paid records owe nothing.
func (d Debit) Outstanding() float64 {
	if d.Status == DebitPaid {
		return 0
	}
	remaining := d.Money
	for _, ins := range d.Instalments {
		remaining -= ins.Money
	}
	return remaining
}

// BaselineEntry is the carried-over {inventory, cost} snapshot for one
// product, written at the end of a successful period close.
type BaselineEntry struct {
	ProductID string  `json:"product" bson:"product"`
	Inventory float64 `json:"inventory" bson:"inventory"`
	Cost      float64 `json:"cost" bson:"cost"`
}

// RankedEntry is one row of a top-N table: an entity keyed by its canonical
// id with an accumulated count (occurrences, or summed money for customers).
type RankedEntry struct {
	Key    string  `json:"key"`
	Record any     `json:"record,omitempty"`
	Count  float64 `json:"count"`
}

// RecentSale is a sale line item annotated with its parent sale id.
type RecentSale struct {
	SaleItem
	Parent string `json:"parent"`
}

type AnalyticsTotals struct {
	Debt    float64 `json:"debt"`
	Loan    float64 `json:"loan"`
	Revenue float64 `json:"revenue"`
}

type AnalyticsCounts struct {
	Customers int64 `json:"customers"`
	Suppliers int64 `json:"suppliers"`
	Products  int64 `json:"products"`
	Empties   int64 `json:"empties"`
	Sales     int64 `json:"sales"`
	Debts     int64 `json:"debts"`
	Loans     int64 `json:"loans"`
}

type TopTables struct {
	Categories []RankedEntry `json:"categories"`
	Products   []RankedEntry `json:"products"`
	Customers  []RankedEntry `json:"customers"`
}

type SalesRecords struct {
	Recent []RecentSale `json:"recent"`
	All    []Sale       `json:"all"`
}

type AnalyticsRecords struct {
	Sales   SalesRecords `json:"sales"`
	Loans   []Debit      `json:"loans"`
	Highest TopTables    `json:"highest"`
}

// Analytics is the point-in-time snapshot produced by the aggregator and
// cached under a well-known key.
type Analytics struct {
	Calculate AnalyticsTotals  `json:"calculate"`
	Count     AnalyticsCounts  `json:"count"`
	Records   AnalyticsRecords `json:"records"`
}

// MonthlyBucket is one calendar month of the revenue datasheet. Months with
// no sales stay zero-valued rather than being omitted.
type MonthlyBucket struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Revenue float64 `json:"revenue"`
	Nett    float64 `json:"nett"`
	Loan    float64 `json:"loan"`
}

// MonthlyDataset is one chart series over the monthly labels.
type MonthlyDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	Fill            bool      `json:"fill"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	Tension         float64   `json:"tension"`
}

// MonthlyTableRow mirrors MonthlyBucket with currency-formatted values for
// the printable datasheet.
type MonthlyTableRow struct {
	Period  string `json:"period"`
	Income  string `json:"income"`
	Revenue string `json:"revenue"`
	Nett    string `json:"nett"`
	Loan    string `json:"loan"`
}

type MonthlySeries struct {
	Labels   []string          `json:"labels"`
	Datasets []MonthlyDataset  `json:"datasets"`
	Tables   []MonthlyTableRow `json:"tables"`
}

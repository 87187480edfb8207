// Package mongo implements the transactional-store Repository on MongoDB.
// References are dereferenced in-process: the small reference collections
// (categories, units, customers, suppliers, users) are loaded into maps and
// joined onto the transactional records, mirroring a populate query.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/store"
)

type Store struct {
	client      *mongo.Client
	products    *mongo.Collection
	categories  *mongo.Collection
	units       *mongo.Collection
	customers   *mongo.Collection
	suppliers   *mongo.Collection
	users       *mongo.Collection
	receipts    *mongo.Collection
	sales       *mongo.Collection
	debits      *mongo.Collection
	inventories *mongo.Collection
}

func New(ctx context.Context, uri string, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &Store{
		client:      client,
		products:    db.Collection("products"),
		categories:  db.Collection("categories"),
		units:       db.Collection("units"),
		customers:   db.Collection("customers"),
		suppliers:   db.Collection("suppliers"),
		users:       db.Collection("users"),
		receipts:    db.Collection("receipts"),
		sales:       db.Collection("sales"),
		debits:      db.Collection("debits"),
		inventories: db.Collection("inventories"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Raw documents as stored, with object-id references still unresolved.

type rawLog struct {
	By   primitive.ObjectID `bson:"by"`
	Time time.Time          `bson:"time"`
}

type rawAuthor struct {
	Created *rawLog `bson:"created,omitempty"`
	Edited  *rawLog `bson:"edited,omitempty"`
	Deleted *rawLog `bson:"deleted,omitempty"`
}

type rawBundleSide struct {
	Unit   primitive.ObjectID `bson:"unit"`
	Amount float64            `bson:"amount"`
}

type rawBundle struct {
	Node    *rawBundleSide `bson:"node,omitempty"`
	Contain *rawBundleSide `bson:"contain,omitempty"`
}

type rawProduct struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Category    primitive.ObjectID `bson:"category"`
	Unit        primitive.ObjectID `bson:"unit"`
	Bundle      *rawBundle         `bson:"bundle,omitempty"`
	Images      []string           `bson:"images,omitempty"`
	Variant     []string           `bson:"variant,omitempty"`
	Inventory   float64            `bson:"inventory"`
	InitialCost float64            `bson:"initialCost,omitempty"`
	Cost        []float64          `bson:"cost,omitempty"`
	Author      rawAuthor          `bson:"author"`
}

type rawReceiptItem struct {
	Product  primitive.ObjectID `bson:"product"`
	Unit     primitive.ObjectID `bson:"unit"`
	Qty      float64            `bson:"qty"`
	Cost     float64            `bson:"cost,omitempty"`
	Discount float64            `bson:"discount,omitempty"`
}

type rawReceipt struct {
	ID        primitive.ObjectID  `bson:"_id"`
	Reference string              `bson:"reference,omitempty"`
	Supplier  *primitive.ObjectID `bson:"supplier,omitempty"`
	Items     []rawReceiptItem    `bson:"products"`
	Date      *time.Time          `bson:"date,omitempty"`
	Author    rawAuthor           `bson:"author"`
}

type rawItemQty struct {
	Unit primitive.ObjectID `bson:"unit"`
	Qty  float64            `bson:"qty"`
}

type rawSaleItem struct {
	Product  primitive.ObjectID `bson:"product"`
	SalesQty rawItemQty         `bson:"salesQty"`
	BonusQty *rawItemQty        `bson:"bonusQty,omitempty"`
	Price    float64            `bson:"price"`
	Discount float64            `bson:"discount,omitempty"`
}

type rawSale struct {
	ID         primitive.ObjectID  `bson:"_id"`
	Reference  string              `bson:"reference,omitempty"`
	Customer   *primitive.ObjectID `bson:"customer,omitempty"`
	Items      []rawSaleItem       `bson:"products"`
	SubPrice   float64             `bson:"subPrice"`
	FinalPrice float64             `bson:"finalPrice"`
	Paid       float64             `bson:"paid"`
	Change     float64             `bson:"change,omitempty"`
	Tax        float64             `bson:"tax,omitempty"`
	Date       *time.Time          `bson:"date,omitempty"`
	Author     rawAuthor           `bson:"author"`
}

type rawDebtSide struct {
	Supplier  *primitive.ObjectID `bson:"supplier,omitempty"`
	Customer  *primitive.ObjectID `bson:"customer,omitempty"`
	Reference string              `bson:"reference,omitempty"`
}

type rawDebit struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Money       float64             `bson:"money"`
	Status      domain.DebitStatus  `bson:"status"`
	Debt        *rawDebtSide        `bson:"debt,omitempty"`
	Loan        *rawDebtSide        `bson:"loan,omitempty"`
	Instalments []domain.Instalment `bson:"instalment,omitempty"`
	Date        *time.Time          `bson:"date,omitempty"`
	Author      rawAuthor           `bson:"author"`
}

type rawBaseline struct {
	Product   primitive.ObjectID `bson:"product"`
	Inventory float64            `bson:"inventory"`
	Cost      float64            `bson:"cost"`
}

// refSets holds the dereference targets keyed by hex id.
type refSets struct {
	categories map[string]*domain.Category
	units      map[string]*domain.Unit
	customers  map[string]*domain.Customer
	suppliers  map[string]*domain.Supplier
	users      map[string]*domain.User
}

func (s *Store) loadRefs(ctx context.Context) (*refSets, error) {
	refs := &refSets{
		categories: map[string]*domain.Category{},
		units:      map[string]*domain.Unit{},
		customers:  map[string]*domain.Customer{},
		suppliers:  map[string]*domain.Supplier{},
		users:      map[string]*domain.User{},
	}

	var categories []domain.Category
	if err := findAll(ctx, s.categories, nil, &categories); err != nil {
		return nil, err
	}
	for i := range categories {
		refs.categories[categories[i].ID] = &categories[i]
	}

	var units []domain.Unit
	if err := findAll(ctx, s.units, nil, &units); err != nil {
		return nil, err
	}
	for i := range units {
		refs.units[units[i].ID] = &units[i]
	}

	var customers []domain.Customer
	if err := findAll(ctx, s.customers, nil, &customers); err != nil {
		return nil, err
	}
	for i := range customers {
		refs.customers[customers[i].ID] = &customers[i]
	}

	var suppliers []domain.Supplier
	if err := findAll(ctx, s.suppliers, nil, &suppliers); err != nil {
		return nil, err
	}
	for i := range suppliers {
		refs.suppliers[suppliers[i].ID] = &suppliers[i]
	}

	var users []domain.User
	if err := findAll(ctx, s.users, nil, &users); err != nil {
		return nil, err
	}
	for i := range users {
		refs.users[users[i].ID] = &users[i]
	}

	return refs, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, sortSpec bson.D, out *[]T) error {
	opts := options.Find()
	if sortSpec != nil {
		opts.SetSort(sortSpec)
	}
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (r *refSets) author(raw rawAuthor) domain.Author {
	toLog := func(l *rawLog) *domain.ActionLog {
		if l == nil {
			return nil
		}
		return &domain.ActionLog{By: r.users[l.By.Hex()], Time: l.Time}
	}
	return domain.Author{Created: toLog(raw.Created), Edited: toLog(raw.Edited), Deleted: toLog(raw.Deleted)}
}

func (r *refSets) product(raw rawProduct) domain.Product {
	p := domain.Product{
		ID:          raw.ID.Hex(),
		Name:        raw.Name,
		Category:    r.categories[raw.Category.Hex()],
		Unit:        r.units[raw.Unit.Hex()],
		Images:      raw.Images,
		Variant:     raw.Variant,
		Inventory:   raw.Inventory,
		InitialCost: raw.InitialCost,
		Author:      r.author(raw.Author),
	}
	if len(raw.Cost) > 0 {
		p.Cost[0] = raw.Cost[0]
		if len(raw.Cost) > 1 {
			p.Cost[1] = raw.Cost[1]
		} else {
			p.Cost[1] = raw.Cost[0]
		}
	}
	if raw.Bundle != nil {
		bundle := &domain.Bundle{}
		if raw.Bundle.Node != nil {
			bundle.Node = &domain.BundleSide{Unit: r.units[raw.Bundle.Node.Unit.Hex()], Amount: raw.Bundle.Node.Amount}
		}
		if raw.Bundle.Contain != nil {
			bundle.Contain = &domain.BundleSide{Unit: r.units[raw.Bundle.Contain.Unit.Hex()], Amount: raw.Bundle.Contain.Amount}
		}
		p.Bundle = bundle
	}
	return p
}

func (s *Store) loadProducts(ctx context.Context, refs *refSets, sortSpec bson.D) (map[string]*domain.Product, []domain.Product, error) {
	var raws []rawProduct
	if err := findAll(ctx, s.products, sortSpec, &raws); err != nil {
		return nil, nil, err
	}

	products := make([]domain.Product, 0, len(raws))
	byID := make(map[string]*domain.Product, len(raws))
	for _, raw := range raws {
		products = append(products, refs.product(raw))
	}
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, products, nil
}

var nameAsc = bson.D{{Key: "name", Value: 1}}

func recencySort() bson.D {
	return bson.D{
		{Key: "date", Value: -1},
		{Key: "author.edited.time", Value: -1},
		{Key: "author.created.time", Value: -1},
	}
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	refs, err := s.loadRefs(ctx)
	if err != nil {
		return nil, err
	}
	_, products, err := s.loadProducts(ctx, refs, nameAsc)
	return products, err
}

func (s *Store) listReceipts(ctx context.Context, sortSpec bson.D) ([]domain.Receipt, error) {
	refs, err := s.loadRefs(ctx)
	if err != nil {
		return nil, err
	}
	productsByID, _, err := s.loadProducts(ctx, refs, nameAsc)
	if err != nil {
		return nil, err
	}

	var raws []rawReceipt
	if err := findAll(ctx, s.receipts, sortSpec, &raws); err != nil {
		return nil, err
	}

	receipts := make([]domain.Receipt, 0, len(raws))
	for _, raw := range raws {
		receipt := domain.Receipt{
			ID:        raw.ID.Hex(),
			Reference: raw.Reference,
			Date:      raw.Date,
			Author:    refs.author(raw.Author),
		}
		if raw.Supplier != nil {
			receipt.Supplier = refs.suppliers[raw.Supplier.Hex()]
		}
		for _, item := range raw.Items {
			product := productsByID[item.Product.Hex()]
			if product == nil {
				// Orphaned reference; the product was deleted out from
				// under this line item.
				continue
			}
			receipt.Items = append(receipt.Items, domain.ReceiptItem{
				Product:  product,
				Unit:     refs.units[item.Unit.Hex()],
				Qty:      item.Qty,
				Cost:     item.Cost,
				Discount: item.Discount,
			})
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

func (s *Store) ListReceipts(ctx context.Context) ([]domain.Receipt, error) {
	return s.listReceipts(ctx, bson.D{{Key: "date", Value: 1}})
}

func (s *Store) ListReceiptsRecentFirst(ctx context.Context) ([]domain.Receipt, error) {
	return s.listReceipts(ctx, recencySort())
}

func (s *Store) listSales(ctx context.Context, sortSpec bson.D) ([]domain.Sale, error) {
	refs, err := s.loadRefs(ctx)
	if err != nil {
		return nil, err
	}
	productsByID, _, err := s.loadProducts(ctx, refs, nameAsc)
	if err != nil {
		return nil, err
	}

	var raws []rawSale
	if err := findAll(ctx, s.sales, sortSpec, &raws); err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(raws))
	for _, raw := range raws {
		sale := domain.Sale{
			ID:         raw.ID.Hex(),
			Reference:  raw.Reference,
			SubPrice:   raw.SubPrice,
			FinalPrice: raw.FinalPrice,
			Paid:       raw.Paid,
			Change:     raw.Change,
			Tax:        raw.Tax,
			Date:       raw.Date,
			Author:     refs.author(raw.Author),
		}
		if raw.Customer != nil {
			sale.Customer = refs.customers[raw.Customer.Hex()]
		}
		for _, item := range raw.Items {
			product := productsByID[item.Product.Hex()]
			if product == nil {
				continue
			}
			saleItem := domain.SaleItem{
				Product:  product,
				SalesQty: domain.ItemQty{Unit: refs.units[item.SalesQty.Unit.Hex()], Qty: item.SalesQty.Qty},
				Price:    item.Price,
				Discount: item.Discount,
			}
			if item.BonusQty != nil {
				saleItem.BonusQty = &domain.ItemQty{Unit: refs.units[item.BonusQty.Unit.Hex()], Qty: item.BonusQty.Qty}
			}
			sale.Items = append(sale.Items, saleItem)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.listSales(ctx, bson.D{{Key: "date", Value: 1}})
}

func (s *Store) ListSalesRecentFirst(ctx context.Context) ([]domain.Sale, error) {
	return s.listSales(ctx, recencySort())
}

func (s *Store) listDebits(ctx context.Context, filter bson.M) ([]domain.Debit, error) {
	refs, err := s.loadRefs(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := s.debits.Find(ctx, filter, options.Find().SetSort(recencySort()))
	if err != nil {
		return nil, err
	}
	var raws []rawDebit
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, err
	}

	debits := make([]domain.Debit, 0, len(raws))
	for _, raw := range raws {
		debit := domain.Debit{
			ID:          raw.ID.Hex(),
			Money:       raw.Money,
			Status:      raw.Status,
			Instalments: raw.Instalments,
			Date:        raw.Date,
			Author:      refs.author(raw.Author),
		}
		if raw.Debt != nil {
			debt := &domain.Debt{Reference: raw.Debt.Reference}
			if raw.Debt.Supplier != nil {
				debt.Supplier = refs.suppliers[raw.Debt.Supplier.Hex()]
			}
			debit.Debt = debt
		}
		if raw.Loan != nil {
			loan := &domain.Loan{Reference: raw.Loan.Reference}
			if raw.Loan.Customer != nil {
				loan.Customer = refs.customers[raw.Loan.Customer.Hex()]
			}
			debit.Loan = loan
		}
		debits = append(debits, debit)
	}
	return debits, nil
}

func (s *Store) ListDebitsRecentFirst(ctx context.Context) ([]domain.Debit, error) {
	return s.listDebits(ctx, bson.M{})
}

func (s *Store) ListPaidDebitsRecentFirst(ctx context.Context) ([]domain.Debit, error) {
	return s.listDebits(ctx, bson.M{"status": domain.DebitPaid})
}

func (s *Store) CountCustomers(ctx context.Context) (int64, error) {
	return s.customers.CountDocuments(ctx, bson.M{})
}

func (s *Store) CountSuppliers(ctx context.Context) (int64, error) {
	return s.suppliers.CountDocuments(ctx, bson.M{})
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{})
}

func (s *Store) CountOutOfStock(ctx context.Context) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{"inventory": bson.M{"$lte": 0}})
}

func (s *Store) UpdateProductStock(ctx context.Context, productID string, inventory float64, cost domain.CostBand) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return store.ErrNotFound
	}

	result, err := s.products.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"inventory": inventory, "cost": []float64{cost[0], cost[1]}},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListBaseline(ctx context.Context) ([]domain.BaselineEntry, error) {
	var raws []rawBaseline
	if err := findAll(ctx, s.inventories, nil, &raws); err != nil {
		return nil, err
	}

	entries := make([]domain.BaselineEntry, 0, len(raws))
	for _, raw := range raws {
		entries = append(entries, domain.BaselineEntry{
			ProductID: raw.Product.Hex(),
			Inventory: raw.Inventory,
			Cost:      raw.Cost,
		})
	}
	return entries, nil
}

func (s *Store) PurgeBaseline(ctx context.Context) error {
	_, err := s.inventories.DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) InsertBaseline(ctx context.Context, entries []domain.BaselineEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, 0, len(entries))
	for _, entry := range entries {
		oid, err := primitive.ObjectIDFromHex(entry.ProductID)
		if err != nil {
			continue
		}
		docs = append(docs, rawBaseline{Product: oid, Inventory: entry.Inventory, Cost: entry.Cost})
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.inventories.InsertMany(ctx, docs)
	return err
}

func (s *Store) PurgeReceipts(ctx context.Context) error {
	_, err := s.receipts.DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) PurgeSales(ctx context.Context) error {
	_, err := s.sales.DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) PurgePaidDebits(ctx context.Context) error {
	_, err := s.debits.DeleteMany(ctx, bson.M{"status": domain.DebitPaid})
	return err
}

package archive

import (
	"context"
	"errors"
)

// Models discriminating the archived document variants.
const (
	ModelProducts  = "products"
	ModelReceipts  = "receipts"
	ModelSales     = "sales"
	ModelDebts     = "debts"
	ModelPeriod    = "period"
	ModelSum       = "sum"
	ModelAnalytics = "analytics"
)

var ErrUnavailable = errors.New("archive unavailable")

// Query is a Mango-style find request: equality selector plus optional sort
// and limit.
type Query struct {
	Selector map[string]any      `json:"selector"`
	Sort     []map[string]string `json:"sort,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
}

// Index names a secondary index over the given (possibly dotted) fields.
type Index struct {
	Name   string
	Fields []string
}

// Archiver is the append-only archive store contract: insert one document at
// a time (success or failure per document), query by selector, and create
// secondary indexes for the queried field sets.
type Archiver interface {
	Insert(ctx context.Context, doc any) error
	Find(ctx context.Context, q Query) ([]map[string]any, error)
	EnsureIndex(ctx context.Context, idx Index) error
}

package archive

import (
	"context"
	"log"
)

// Per-model sort orders and the secondary indexes backing them.
var (
	modelSorts = map[string][]map[string]string{
		ModelProducts: {{"inventory": "desc"}},
		ModelReceipts: {{"date": "desc"}, {"author.created.time": "desc"}, {"reference": "desc"}},
		ModelSales:    {{"date": "desc"}, {"author.created.time": "desc"}, {"reference": "desc"}},
		ModelDebts:    {{"date": "desc"}, {"author.created.time": "desc"}, {"money": "desc"}},
	}

	modelIndexes = map[string]Index{
		ModelProducts: {Name: "inventory_index", Fields: []string{"inventory"}},
		ModelReceipts: {Name: "transaction_index", Fields: []string{"date", "author.created.time", "reference"}},
		ModelSales:    {Name: "transaction_index", Fields: []string{"date", "author.created.time", "reference"}},
		ModelDebts:    {Name: "debt_index", Fields: []string{"date", "author.created.time", "money"}},
	}
)

// Fetcher answers archived-record queries over an Archiver.
type Fetcher struct {
	db Archiver
}

func NewFetcher(db Archiver) *Fetcher {
	return &Fetcher{db: db}
}

// Records returns the archived documents for a model. Without a period it
// returns every document of that model. With a period it looks up the
// period's `sum` document first: `analytics` returns the sum itself, other
// models are queried with the per-model sort and a result-size hint of twice
// the sum's category count. Store failures are logged and yield an empty
// list.
func (f *Fetcher) Records(ctx context.Context, model string, period string) []map[string]any {
	if period == "" {
		docs, err := f.db.Find(ctx, Query{Selector: map[string]any{"model": model}})
		if err != nil {
			log.Printf("[archive] WARN: listing %s records: %v", model, err)
			return nil
		}
		return docs
	}

	limiter, err := f.db.Find(ctx, Query{
		Selector: map[string]any{"model": ModelSum, "period": period},
		Limit:    1,
	})
	if err != nil {
		log.Printf("[archive] WARN: looking up %s summary: %v", period, err)
		return nil
	}

	if model == ModelAnalytics {
		return limiter
	}

	count := 1.0
	if len(limiter) > 0 {
		if n, ok := limiter[0][model].(float64); ok && n > 0 {
			count = n
		}
	}

	if idx, ok := modelIndexes[model]; ok {
		if err := f.db.EnsureIndex(ctx, idx); err != nil {
			log.Printf("[archive] WARN: ensuring %s index: %v", model, err)
		}
	}

	docs, err := f.db.Find(ctx, Query{
		Selector: map[string]any{"model": model, "period": period},
		Sort:     modelSorts[model],
		Limit:    int(count) * 2,
	})
	if err != nil {
		log.Printf("[archive] WARN: fetching %s records for %s: %v", model, period, err)
		return nil
	}
	return docs
}

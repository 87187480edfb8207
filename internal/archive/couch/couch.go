// Package couch implements the archive store on CouchDB through its Mango
// query interface.
package couch

import (
	"context"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"gudangkita/backend/internal/archive"
)

type Archive struct {
	client *kivik.Client
	db     *kivik.DB
}

// Connect opens the archive database, creating it on first use, and makes
// sure the base {model, period} index exists so period queries stay cheap.
func Connect(ctx context.Context, url string, name string) (*Archive, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, err
	}

	exists, err := client.DBExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.CreateDB(ctx, name); err != nil {
			return nil, err
		}
	}

	db := client.DB(name)
	if err := db.CreateIndex(ctx, "", "archive_index", map[string]any{
		"fields": []string{"model", "period"},
	}); err != nil {
		return nil, err
	}

	return &Archive{client: client, db: db}, nil
}

func (a *Archive) Close() error {
	return a.client.Close()
}

func (a *Archive) Insert(ctx context.Context, doc any) error {
	_, _, err := a.db.CreateDoc(ctx, doc)
	return err
}

func (a *Archive) Find(ctx context.Context, q archive.Query) ([]map[string]any, error) {
	rs := a.db.Find(ctx, q)
	defer rs.Close()

	var docs []map[string]any
	for rs.Next() {
		var doc map[string]any
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (a *Archive) EnsureIndex(ctx context.Context, idx archive.Index) error {
	return a.db.CreateIndex(ctx, "", idx.Name, map[string]any{"fields": idx.Fields})
}

// Package memory is an in-process archive store used in tests and when no
// COUCH_URL is configured. Documents are normalized through JSON so that
// queries see the same shapes a real document store would.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"gudangkita/backend/internal/archive"
	"gudangkita/backend/internal/xid"
)

type Archive struct {
	mu        sync.Mutex
	docs      []map[string]any
	failAfter int
	inserted  int
}

func New() *Archive {
	return &Archive{failAfter: -1}
}

// FailAfter makes every Insert beyond the first n fail, simulating an archive
// store that becomes unreachable partway through a run.
func (a *Archive) FailAfter(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failAfter = n
}

// Len reports how many documents have been stored.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.docs)
}

func (a *Archive) Insert(_ context.Context, doc any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failAfter >= 0 && a.inserted >= a.failAfter {
		return archive.ErrUnavailable
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var normalized map[string]any
	if err := json.Unmarshal(payload, &normalized); err != nil {
		return err
	}
	if _, ok := normalized["_id"]; !ok {
		normalized["_id"] = xid.New("doc")
	}

	a.docs = append(a.docs, normalized)
	a.inserted++
	return nil
}

func (a *Archive) Find(_ context.Context, q archive.Query) ([]map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var matched []map[string]any
	for _, doc := range a.docs {
		if matches(doc, q.Selector) {
			matched = append(matched, doc)
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, spec := range q.Sort {
				for field, dir := range spec {
					cmp := compare(lookup(matched[i], field), lookup(matched[j], field))
					if cmp == 0 {
						continue
					}
					if dir == "desc" {
						return cmp > 0
					}
					return cmp < 0
				}
			}
			return false
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (a *Archive) EnsureIndex(_ context.Context, _ archive.Index) error {
	return nil
}

func matches(doc map[string]any, selector map[string]any) bool {
	for field, want := range selector {
		if lookup(doc, field) != want {
			return false
		}
	}
	return true
}

// lookup resolves a dotted field path against a decoded JSON document.
func lookup(doc map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var current any = doc
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[part]
	}
	return current
}

func compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if na, ok := a.(float64); ok {
		if nb, ok := b.(float64); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	sa, sb := toString(a), toString(b)
	return strings.Compare(sa, sb)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	payload, _ := json.Marshal(v)
	return string(payload)
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gudangkita/backend/internal/analytics"
	"gudangkita/backend/internal/archive"
	archmem "gudangkita/backend/internal/archive/memory"
	"gudangkita/backend/internal/cache"
	"gudangkita/backend/internal/closing"
	"gudangkita/backend/internal/domain"
	"gudangkita/backend/internal/stock"
	"gudangkita/backend/internal/store/memory"
)

type testAPI struct {
	api   *API
	repo  *memory.Store
	arch  *archmem.Archive
	cache *cache.Memory
}

// newTestAPI builds a full API over in-memory stores so handler tests
// exercise the complete trigger paths.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo := memory.New()
	arch := archmem.New()
	c := cache.NewMemory()

	stocks := stock.NewReconciler(repo)
	metrics := analytics.NewAggregator(repo, c)
	closer := closing.NewOrchestrator(repo, arch, c, stocks, metrics)

	return &testAPI{
		api:   New(stocks, metrics, closer, archive.NewFetcher(arch), c, "*"),
		repo:  repo,
		arch:  arch,
		cache: c,
	}
}

func (ta *testAPI) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ta.api.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return rec, body
}

func seedSale(repo *memory.Store) {
	date := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	product := domain.Product{ID: "p1", Name: "kopi"}
	repo.AddProduct(product)
	repo.AddSale(domain.Sale{
		ID: "s1", Reference: "INV-001", Date: &date,
		SubPrice: 100, FinalPrice: 110,
		Items: []domain.SaleItem{{Product: &product, SalesQty: domain.ItemQty{Qty: 1}}},
	})
}

func TestHandleRoot(t *testing.T) {
	ta := newTestAPI(t)

	rec, body := ta.do(t, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "Running ..." {
		t.Fatalf("status = %v, want Running ...", body["status"])
	}

	rec, _ = ta.do(t, http.MethodGet, "/nowhere")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestHandleStock(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)

	rec, body := ta.do(t, http.MethodGet, "/stock")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["synced"] != true {
		t.Fatalf("synced = %v, want true", body["synced"])
	}

	ctx := context.Background()
	if syncing, _ := ta.cache.HasFlag(ctx, cache.FlagSyncing); syncing {
		t.Fatal("sync flag still set after run")
	}
	if stop, _ := ta.cache.HasFlag(ctx, cache.FlagStop); !stop {
		t.Fatal("stop flag not set after successful sync")
	}
}

func TestHandleTakeStock(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)

	rec, body := ta.do(t, http.MethodGet, "/take/stock")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["archived"] != true {
		t.Fatalf("archived = %v, want true", body["archived"])
	}
	if body["message"] != "Archived ..." {
		t.Fatalf("message = %v, want Archived ...", body["message"])
	}

	if _, sales, _ := countsOf(ta.repo); sales != 0 {
		t.Fatalf("sales after close = %d, want 0", sales)
	}
}

func countsOf(repo *memory.Store) (int, int, int) {
	return repo.Counts()
}

func TestHandleTakeStockFailure(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)
	ta.arch.FailAfter(0)

	rec, body := ta.do(t, http.MethodGet, "/take/stock")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["archived"] != false || body["message"] != "Failed !!!" {
		t.Fatalf("body = %v, want archived:false with failure message", body)
	}

	if _, sales, _ := countsOf(ta.repo); sales != 1 {
		t.Fatalf("sales after failed close = %d, want 1 intact", sales)
	}
}

func TestHandleAnalytics(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)

	rec, body := ta.do(t, http.MethodGet, "/analytics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	calculate, ok := body["calculate"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v, want analytics snapshot", body)
	}
	if calculate["revenue"] != 110.0 {
		t.Fatalf("revenue = %v, want 110", calculate["revenue"])
	}

	if cached, _ := ta.cache.HasFlag(context.Background(), cache.FlagCached); !cached {
		t.Fatal("cached flag not set after first computation")
	}
}

func TestHandleAnalyticsBlockedByFlag(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)
	if err := ta.cache.SetFlag(context.Background(), cache.FlagArchiving); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}

	rec, _ := ta.do(t, http.MethodGet, "/analytics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "null\n" {
		t.Fatalf("body = %q, want null while archiving", got)
	}
}

func TestHandleHistory(t *testing.T) {
	ta := newTestAPI(t)
	seedSale(ta.repo)

	if rec, _ := ta.do(t, http.MethodGet, "/take/stock"); rec.Code != http.StatusOK {
		t.Fatalf("close failed with %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	ta.api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var markers []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &markers); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(markers) != 1 {
		t.Fatalf("period markers = %d, want 1", len(markers))
	}
	period, _ := markers[0]["period"].(string)

	req = httptest.NewRequest(http.MethodGet, "/history/sales/"+period, nil)
	rec = httptest.NewRecorder()
	ta.api.Handler().ServeHTTP(rec, req)

	var sales []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &sales); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("archived sales = %d, want 1", len(sales))
	}
}

func TestHandleHistoryUnknownModel(t *testing.T) {
	ta := newTestAPI(t)

	rec, _ := ta.do(t, http.MethodGet, "/history/widgets")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown model, got %d", rec.Code)
	}
}

func TestHandleFlags(t *testing.T) {
	ta := newTestAPI(t)
	ctx := context.Background()
	if err := ta.cache.SetFlag(ctx, cache.FlagArchiving); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}

	rec, body := ta.do(t, http.MethodDelete, "/flags/"+cache.FlagArchiving)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["cleared"] != cache.FlagArchiving {
		t.Fatalf("cleared = %v, want %s", body["cleared"], cache.FlagArchiving)
	}
	if set, _ := ta.cache.HasFlag(ctx, cache.FlagArchiving); set {
		t.Fatal("flag still set after delete")
	}

	rec, _ = ta.do(t, http.MethodDelete, "/flags/bogus")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown flag, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ta := newTestAPI(t)

	for _, path := range []string{"/stock", "/take/stock", "/analytics", "/history"} {
		rec, _ := ta.do(t, http.MethodPost, path)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("POST %s = %d, want 405", path, rec.Code)
		}
	}

	rec, _ := ta.do(t, http.MethodGet, "/flags/"+cache.FlagStop)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /flags = %d, want 405", rec.Code)
	}
}

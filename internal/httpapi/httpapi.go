// Package httpapi exposes the pipeline triggers over HTTP: manual
// reconciliation, the analytics snapshot, period close, archive reads and
// operator flag maintenance.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"gudangkita/backend/internal/analytics"
	"gudangkita/backend/internal/archive"
	"gudangkita/backend/internal/cache"
	"gudangkita/backend/internal/closing"
	"gudangkita/backend/internal/stock"
)

type API struct {
	stocks        *stock.Reconciler
	metrics       *analytics.Aggregator
	closer        *closing.Orchestrator
	records       *archive.Fetcher
	cache         cache.Cache
	allowedOrigin string
}

func New(stocks *stock.Reconciler, metrics *analytics.Aggregator, closer *closing.Orchestrator,
	records *archive.Fetcher, c cache.Cache, allowedOrigin string) *API {
	return &API{
		stocks:        stocks,
		metrics:       metrics,
		closer:        closer,
		records:       records,
		cache:         c,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", a.handleRoot)
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/stock", a.handleStock)
	mux.HandleFunc("/take/stock", a.handleTakeStock)
	mux.HandleFunc("/analytics", a.handleAnalytics)
	mux.HandleFunc("/history", a.handleHistory)
	mux.HandleFunc("/history/", a.handleHistoryModel)
	mux.HandleFunc("/flags/", a.handleFlags)

	return a.withMiddleware(mux)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "Running ...",
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStock runs a full inventory reconciliation. The syncing flag blocks
// the scheduled analytics refresh for the duration; the stop flag tells
// connected clients the figures just changed, and the cached analytics flag
// is dropped so the next read recomputes.
func (a *API) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	ctx := r.Context()

	if err := a.cache.SetFlag(ctx, cache.FlagSyncing); err != nil {
		log.Printf("[httpapi] WARN: failed to set sync flag: %v", err)
	}
	synced := a.stocks.Sync(ctx)
	if synced {
		if err := a.cache.SetFlag(ctx, cache.FlagStop); err != nil {
			log.Printf("[httpapi] WARN: failed to set stop flag: %v", err)
		}
	}
	if err := a.cache.ClearFlags(ctx, cache.FlagSyncing, cache.FlagCached); err != nil {
		log.Printf("[httpapi] WARN: failed to clear flags: %v", err)
	}

	status := "Synchronized ..."
	if !synced {
		status = "Failed !!!"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"synced": synced,
		"status": status,
	})
}

// handleTakeStock closes the current period. The archiving flag keeps the
// scheduled analytics refresh out while records are being snapshotted and
// purged.
func (a *API) handleTakeStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	ctx := r.Context()

	if err := a.cache.SetFlag(ctx, cache.FlagArchiving); err != nil {
		log.Printf("[httpapi] WARN: failed to set archiving flag: %v", err)
	}
	archived := a.closer.Close(ctx)
	if err := a.cache.ClearFlags(ctx, cache.FlagArchiving); err != nil {
		log.Printf("[httpapi] WARN: failed to clear archiving flag: %v", err)
	}

	message := "Archived ..."
	if !archived {
		message = "Failed !!!"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archived": archived,
		"message":  message,
	})
}

// handleAnalytics serves the cached snapshot when one exists and recomputes
// otherwise. While a reconciliation or period close is running it returns
// null rather than reading records mid-mutation.
func (a *API) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	ctx := r.Context()

	for _, flag := range []string{cache.FlagSyncing, cache.FlagArchiving} {
		busy, err := a.cache.HasFlag(ctx, flag)
		if err != nil {
			log.Printf("[httpapi] WARN: failed to read flag %s: %v", flag, err)
			break
		}
		if busy {
			writeJSON(w, http.StatusOK, nil)
			return
		}
	}

	if cached, err := a.cache.HasFlag(ctx, cache.FlagCached); err == nil && cached {
		if snapshot, ok, err := a.cache.Analytics(ctx); err == nil && ok {
			writeJSON(w, http.StatusOK, snapshot)
			return
		}
	}

	snapshot := a.metrics.Process(ctx)
	if snapshot == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err := a.cache.SetFlag(ctx, cache.FlagCached); err != nil {
		log.Printf("[httpapi] WARN: failed to set cached flag: %v", err)
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleHistory lists the closed-period markers.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.records.Records(r.Context(), archive.ModelPeriod, ""))
}

// handleHistoryModel serves /history/{model} and /history/{model}/{period}.
func (a *API) handleHistoryModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/history/"), "/")
	if rest == "" {
		writeJSON(w, http.StatusOK, a.records.Records(r.Context(), archive.ModelPeriod, ""))
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	model := parts[0]
	period := ""
	if len(parts) == 2 {
		period = parts[1]
	}

	switch model {
	case archive.ModelProducts, archive.ModelReceipts, archive.ModelSales,
		archive.ModelDebts, archive.ModelPeriod, archive.ModelSum, archive.ModelAnalytics:
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown archive model"))
		return
	}

	writeJSON(w, http.StatusOK, a.records.Records(r.Context(), model, period))
}

// handleFlags lets an operator clear a coordination flag left behind by a
// crashed run.
func (a *API) handleFlags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	flag := strings.Trim(strings.TrimPrefix(r.URL.Path, "/flags/"), "/")
	switch flag {
	case cache.FlagSyncing, cache.FlagArchiving, cache.FlagCached, cache.FlagStop:
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown flag"))
		return
	}

	if err := a.cache.ClearFlags(r.Context(), flag); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": flag})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses carry a generic message so store errors and file paths
	// never leak to clients; 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"gudangkita/backend/internal/analytics"
	"gudangkita/backend/internal/archive"
	couchstore "gudangkita/backend/internal/archive/couch"
	archmem "gudangkita/backend/internal/archive/memory"
	"gudangkita/backend/internal/cache"
	"gudangkita/backend/internal/closing"
	"gudangkita/backend/internal/config"
	"gudangkita/backend/internal/httpapi"
	"gudangkita/backend/internal/stock"
	"gudangkita/backend/internal/store"
	"gudangkita/backend/internal/store/memory"
	mongostore "gudangkita/backend/internal/store/mongo"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	var repo store.Repository
	if cfg.MongoURI != "" {
		mg, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("mongodb unavailable (%v) and MONGO_URI is set; refusing to start with in-memory fallback", err)
		}
		repo = mg
		closers = append(closers, func() error {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			return mg.Close(closeCtx)
		})
		log.Println("repository: mongodb")
	} else {
		repo = memory.New()
		log.Println("repository: in-memory")
	}

	var arch archive.Archiver
	if cfg.CouchURL != "" {
		couch, err := couchstore.Connect(ctx, cfg.CouchURL, cfg.CouchDatabase)
		if err != nil {
			log.Fatalf("couchdb unavailable (%v) and COUCH_URL is set; refusing to start with in-memory fallback", err)
		}
		arch = couch
		closers = append(closers, couch.Close)
		log.Println("archive: couchdb")
	} else {
		arch = archmem.New()
		log.Println("archive: in-memory")
	}

	var coordinator cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory coordination", err)
		} else {
			coordinator = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: in-memory")
	}

	stocks := stock.NewReconciler(repo)
	metrics := analytics.NewAggregator(repo, coordinator)
	closer := closing.NewOrchestrator(repo, arch, coordinator, stocks, metrics)
	records := archive.NewFetcher(arch)
	api := httpapi.New(stocks, metrics, closer, records, coordinator, cfg.AllowedOrigin)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AnalyticsCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(context.Background(), time.Minute)
		defer refreshCancel()
		metrics.Refresh(refreshCtx)
	}); err != nil {
		log.Fatalf("invalid ANALYTICS_CRON %q: %v", cfg.AnalyticsCron, err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("inventory backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"investpulse/internal/api"
	"investpulse/internal/catalog"
	"investpulse/internal/config"
	"investpulse/internal/db"
	"investpulse/internal/ledger"
	"investpulse/internal/logging"
	"investpulse/internal/market"
	"investpulse/internal/models"
	"investpulse/internal/realtime"
	"investpulse/internal/store"
	"investpulse/internal/triggers"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		addr   = flag.String("addr", cfg.Addr, "server listen address")
		dbPath = flag.String("db", cfg.DBPath, "sqlite database file")
	)
	flag.Parse()

	logging.Init(cfg.LogLevel)

	st, closeStore, err := openStore(cfg.Storage, *dbPath)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer closeStore()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := EventBus.New()
	cat, err := catalog.Load(ctx, st, bus, catalog.DefaultSecurities())
	if err != nil {
		log.Fatalf("catalog init failed: %v", err)
	}
	ldg, err := ledger.Load(ctx, cat, st)
	if err != nil {
		log.Fatalf("ledger init failed: %v", err)
	}

	hub := realtime.NewHub()
	apiServer := api.NewServer(cat, ldg, triggers.NewService(ldg, cat), hub)
	if err := subscribePriceUpdates(bus, apiServer.OnPriceUpdated); err != nil {
		log.Fatalf("subscribe price updates: %v", err)
	}

	if cfg.PricePollInterval > 0 {
		feed := market.NewFeed(market.NewProvider(cfg.QuoteBaseURL, cfg.QuoteCacheTTL), cat)
		go feed.Run(ctx, cfg.PricePollInterval)
		log.WithField("interval", cfg.PricePollInterval.String()).Info("price feed started")
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown error")
		}
	}()

	log.WithFields(log.Fields{
		"addr":       *addr,
		"storage":    cfg.Storage,
		"securities": len(cat.List()),
		"operations": ldg.Len(),
	}).Info("investment service listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
	bus.WaitAsync()
}

// subscribePriceUpdates runs handle off the publisher's goroutine. The
// subscription is transactional so handlers run one at a time in publish order.
func subscribePriceUpdates(bus EventBus.Bus, handle func(models.PriceUpdate)) error {
	return bus.SubscribeAsync(catalog.PriceUpdatedTopic, handle, true)
}

func openStore(kind, dbPath string) (store.Store, func(), error) {
	if kind == config.StorageMemory {
		return store.NewMemoryStore(), func() {}, nil
	}
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store.NewSQLiteStore(sqlDB), func() { closeDB(sqlDB) }, nil
}

func closeDB(sqlDB *sql.DB) {
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}

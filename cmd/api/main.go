package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"brightbank.org/internal/bank"
	"brightbank.org/internal/config"
	"brightbank.org/internal/httpapi"
	"brightbank.org/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Optional DB connection so /readyz can ping it. Nothing is persisted;
	// the ledger lives in memory.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ledger := bank.NewLedger()
	if cfg.DemoSeed {
		if err := ledger.Register(bank.SeedAccounts()...); err != nil {
			log.Fatalf("seed accounts: %v", err)
		}
		log.Printf("seeded demo accounts: %v", ledger.Usernames())
	}
	sessions := bank.NewSessionManager(ledger)
	service := bank.NewTransactionService(ledger, sessions)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, ledger, sessions, service)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSecond)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("starting brightbank-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("stopped")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/rowsync/internal/audit"
	"github.com/rpattn/rowsync/internal/config"
	"github.com/rpattn/rowsync/internal/db"
	"github.com/rpattn/rowsync/internal/lock"
	"github.com/rpattn/rowsync/internal/middleware"
	"github.com/rpattn/rowsync/internal/notify"
	"github.com/rpattn/rowsync/internal/tablestore"
	"github.com/rpattn/rowsync/internal/transfer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to resolve timezone: %v", err)
	}

	specs, err := config.LoadSpecs(cfg.SpecsDir)
	if err != nil {
		log.Fatalf("Failed to load transfer specs: %v", err)
	}
	log.Printf("Loaded %d transfer specs from %s", len(specs), cfg.SpecsDir)

	var (
		store tablestore.Store
		locks lock.Manager
		sink  audit.Sink
		pg    *audit.PostgresSink
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()

		if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		store = tablestore.NewPostgresStore(conn.Pool)
		locks = lock.NewPostgresManager(conn.Pool)
		pg = audit.NewPostgresSink(conn.Pool)
		sink = pg
	case config.BackendXLSX:
		xs, err := tablestore.OpenXLSXStore(cfg.WorkbookPath)
		if err != nil {
			log.Fatalf("Failed to open workbook: %v", err)
		}
		defer xs.Close()

		store = xs
		locks = lock.NewMemoryManager()
		sink = audit.NewLogSink()
	default:
		store = tablestore.NewMemoryStore()
		locks = lock.NewMemoryManager()
		sink = audit.NewLogSink()
	}

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
	}

	engine := transfer.NewEngine(store, locks, sink, transfer.NewErrorHandler(notifier), transfer.Config{
		LockTimeout:       cfg.LockTimeout,
		LockAttempts:      cfg.LockAttempts,
		LockRetryPause:    cfg.LockRetryPause,
		RetryAttempts:     cfg.RetryAttempts,
		RetryInitialDelay: cfg.RetryInitialDelay,
		Location:          loc,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/sync", transfer.NewHTTPHandler(engine, specs))
	if pg != nil {
		mux.Handle("/audit", audit.NewHTTPHandler(pg))
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting sync server on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/hostfabriek/orderdesk/internal/adapter/accounting"
	"github.com/hostfabriek/orderdesk/internal/adapter/fsm"
	"github.com/hostfabriek/orderdesk/internal/adapter/hosting"
	"github.com/hostfabriek/orderdesk/internal/adapter/otel"
	"github.com/hostfabriek/orderdesk/internal/adapter/registrar"
	riveradapter "github.com/hostfabriek/orderdesk/internal/adapter/river"
	"github.com/hostfabriek/orderdesk/internal/adapter/sqlite"
	"github.com/hostfabriek/orderdesk/internal/app"
	"github.com/hostfabriek/orderdesk/internal/config"

	handler "github.com/hostfabriek/orderdesk/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.FromEnv()
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	orders := otel.NewTracingOrderRepository(store.Orders)
	validator := fsm.New()

	hostingGW := hosting.NewClient(cfg.HostingURL, cfg.HostingAPIKey)
	registrarGW := registrar.NewClient(cfg.RegistrarURL, cfg.RegistrarAPIKey)
	accountingGW := accounting.NewClient(cfg.AccountingURL, cfg.AccountingToken)

	// --- Async fulfillment ---
	fulfillment := app.NewFulfillmentService(
		orders, store.Customers, store.Domains, validator,
		hostingGW, registrarGW, accountingGW,
	)

	riverClient, err := riveradapter.Setup(ctx, db, fulfillment)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	enqueuer := otel.NewTracingEnqueuer(riveradapter.NewEnqueuer(riverClient))

	// --- Application ---
	svc := app.NewOrderService(
		orders, store.Customers, store.Domains, store.Packages,
		validator, enqueuer, registrarGW,
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("orderdesk", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("orderdesk", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("orderdesk listening on :%s", cfg.Port)
		log.Printf("API docs: http://localhost:%s/docs", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.Printf("river stop: %v", err)
	}

	log.Println("stopped")
	return nil
}

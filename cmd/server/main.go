// Package main is the entry point for the ritel API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ritel/internal/core/id"
	"ritel/internal/domain/auth"
	"ritel/internal/domain/balances"
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/internal/domain/documents/purchase"
	"ritel/internal/domain/documents/sale"
	"ritel/internal/domain/ledger"
	"ritel/internal/domain/trips"
	"ritel/internal/infrastructure/config"
	v1 "ritel/internal/infrastructure/http/v1"
	"ritel/internal/infrastructure/storage/postgres"
	"ritel/internal/infrastructure/storage/postgres/auth_repo"
	"ritel/internal/infrastructure/storage/postgres/catalog_repo"
	"ritel/internal/infrastructure/storage/postgres/document_repo"
	"ritel/internal/infrastructure/storage/postgres/ledger_repo"
	"ritel/internal/infrastructure/storage/postgres/trip_repo"
	"ritel/pkg/logger"
	"ritel/pkg/sequencer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting ritel server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Code sequencer ---
	locker := postgres.NewAdvisoryLocker(txm)
	codes := sequencer.New(func(ctx context.Context) sequencer.Querier {
		return txm.GetQuerier(ctx)
	}, locker)

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	auditor := auditAdapter{svc: auditService}

	// --- Repositories ---
	itemRepo := catalog_repo.NewItemRepo(txm)
	supplierRepo := catalog_repo.NewSupplierRepo(txm)
	customerRepo := catalog_repo.NewCustomerRepo(txm)
	agentRepo := catalog_repo.NewAgentRepo(txm)
	purchaseRepo := document_repo.NewPurchaseRepo(txm)
	saleRepo := document_repo.NewSaleRepo(txm)
	movementRepo := ledger_repo.NewMovementRepo(txm)
	tripRepo := trip_repo.NewTripRepo(txm)
	userRepo := auth_repo.NewUserRepo(txm)

	// --- Domain services ---
	ledgerService := ledger.NewService(itemRepo, movementRepo)
	balanceService := balances.NewService(supplierRepo, customerRepo)

	itemService := item.NewService(itemRepo)
	supplierService := supplier.NewService(supplierRepo)
	customerService := customer.NewService(customerRepo)
	agentService := agent.NewService(agentRepo)

	purchaseService := purchase.NewService(
		txm, purchaseRepo, itemRepo, codes, ledgerService, balanceService, auditor)
	saleService := sale.NewService(
		txm, saleRepo, itemRepo, codes, ledgerService, balanceService, auditor)
	tripService := trips.NewService(
		txm, tripRepo, itemRepo, codes, ledgerService, auditor)

	tokenService := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	})
	authService := auth.NewService(userRepo, tokenService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		TxManager:   txm,
		Logger:      log,
		AuthService: authService,
		Items:       itemService,
		Suppliers:   supplierService,
		Customers:   customerService,
		Agents:      agentService,
		Purchases:   purchaseService,
		Sales:       saleService,
		Trips:       tripService,
		Ledger:      ledgerService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// auditAdapter bridges the domain audit interface to the storage audit
// service, which types its actions.
type auditAdapter struct {
	svc *postgres.AuditService
}

func (a auditAdapter) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return a.svc.LogChange(ctx, entityType, entityID, postgres.AuditAction(action), changes)
}

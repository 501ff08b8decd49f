// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
	"ritel/internal/core/types"
	"ritel/internal/domain/auth"
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/internal/infrastructure/config"
	"ritel/internal/infrastructure/storage/postgres"
	"ritel/internal/infrastructure/storage/postgres/auth_repo"
	"ritel/internal/infrastructure/storage/postgres/catalog_repo"
	"ritel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txm, cfg, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txm, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txm *postgres.TxManager, cfg *config.Config, log *logger.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123!"
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	})
	authService := auth.NewService(auth_repo.NewUserRepo(txm), tokens)

	u, err := authService.CreateUser(ctx, username, password, corectx.RoleAdmin)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeDuplicate) {
			log.Infow("admin user already exists", "username", username)
			return nil
		}
		return err
	}

	log.Infow("admin user created", "username", username, "user_id", u.ID)
	return nil
}

func seedDemoData(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	items := item.NewService(catalog_repo.NewItemRepo(txm))
	suppliers := supplier.NewService(catalog_repo.NewSupplierRepo(txm))
	customers := customer.NewService(catalog_repo.NewCustomerRepo(txm))
	agents := agent.NewService(catalog_repo.NewAgentRepo(txm))

	demoItems := []struct {
		code, name      string
		unitsPerPackage int64
		costPrice       int64
		salePrice       int64
		dailyLimit      int64
	}{
		{"ITM-001", "Drinking Water 600ml", 24, 2500, 4000, 0},
		{"ITM-002", "Instant Noodles", 40, 2800, 3500, 0},
		{"ITM-003", "Cooking Oil 1L", 12, 14000, 17000, 0},
		{"ITM-004", "Granulated Sugar 1kg", 20, 12500, 15000, 100},
		{"ITM-005", "Rice 5kg", 4, 58000, 66000, 0},
	}
	for _, d := range demoItems {
		it := item.NewItem(d.code, d.name, types.Quantity(d.unitsPerPackage))
		it.CostPrice = types.MinorUnits(d.costPrice)
		it.SalePrice = types.MinorUnits(d.salePrice)
		if d.dailyLimit > 0 {
			limit := types.Quantity(d.dailyLimit)
			it.DailySaleLimit = &limit
		}
		if err := items.Create(ctx, it); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	demoSuppliers := []struct{ code, name, phone string }{
		{"SUP-001", "PT Sumber Makmur", "+62-811-555-0101"},
		{"SUP-002", "CV Tirta Jaya", "+62-811-555-0102"},
	}
	for _, d := range demoSuppliers {
		s := supplier.NewSupplier(d.code, d.name)
		s.Phone = d.phone
		if err := suppliers.Create(ctx, s); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	demoCustomers := []struct {
		code, name, phone string
		creditLimit       int64
	}{
		{"CUS-001", "Warung Bu Siti", "+62-812-555-0201", 500000},
		{"CUS-002", "Toko Pak Budi", "+62-812-555-0202", 0},
	}
	for _, d := range demoCustomers {
		c := customer.NewCustomer(d.code, d.name, types.MinorUnits(d.creditLimit))
		c.Phone = d.phone
		if err := customers.Create(ctx, c); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	demoAgents := []struct{ code, name, phone string }{
		{"AGT-001", "Andi", "+62-813-555-0301"},
		{"AGT-002", "Rina", "+62-813-555-0302"},
	}
	for _, d := range demoAgents {
		a := agent.NewAgent(d.code, d.name)
		a.Phone = d.phone
		if err := agents.Create(ctx, a); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	log.Info("demo data seeded")
	return nil
}

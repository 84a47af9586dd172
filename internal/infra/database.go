package infra

import (
	"fmt"
	"time"

	"backoffice/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver. Postgres is
// the production store; sqlite backs local runs and tests.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: an in-memory database lives and dies with it, and
		// SQLite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	return db, nil
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q (supported: postgres, sqlite)", driver)
	}
}

// Migrate creates / updates every table, then applies the postgres-only
// patches GORM cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Unit{},
		&model.Product{},
		&model.StockMovement{},
		&model.Customer{},
		&model.Supplier{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.AdminGroup{},
		&model.GroupPermission{},
		&model.ApplicationUser{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements. Each statement uses
// IF NOT EXISTS semantics so re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// reorder alert query
		`CREATE INDEX IF NOT EXISTS idx_products_reorder
		    ON products (stock_on_hand, reorder_level)
		    WHERE active AND reorder_level > 0`,
		// the ledger is append-only
		`CREATE OR REPLACE FUNCTION stock_movements_immutable() RETURNS trigger AS $$
		BEGIN
		  RAISE EXCEPTION 'stock_movements rows are immutable';
		END $$ LANGUAGE plpgsql`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_stock_movements_immutable') THEN
		    CREATE TRIGGER trg_stock_movements_immutable
		      BEFORE UPDATE OR DELETE ON stock_movements
		      FOR EACH ROW EXECUTE FUNCTION stock_movements_immutable();
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

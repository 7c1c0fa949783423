package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/finledger/ledger-service/internal/config"
	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/pkg/logger"
)

// New opens a pooled GORM connection against the configured PostgreSQL
// instance.
func New(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// WaitForConnection retries pinging the database until it answers or the
// attempts run out, useful when the service starts before its database in
// container environments.
func WaitForConnection(ctx context.Context, db *gorm.DB, maxAttempts int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := sqlDB.PingContext(ctx); err == nil {
			return nil
		}

		logger.Warn("Database not ready, retrying...", logger.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	return fmt.Errorf("database unreachable after %d attempts", maxAttempts)
}

// HealthCheck pings the database once.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the five core tables and layers on the
// constraints GORM's AutoMigrate cannot express: CHECK constraints on every
// enumerated column and on amount, the foreign keys of transactions and
// reconciliation logs, and the composite audit and reconciliation indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.LogicalAccount{},
		&model.LedgerTransaction{},
		&model.AllocationRule{},
		&model.ReconciliationLog{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	statements := []string{
		`ALTER TABLE logical_accounts DROP CONSTRAINT IF EXISTS chk_logical_accounts_type`,
		`ALTER TABLE logical_accounts ADD CONSTRAINT chk_logical_accounts_type
			CHECK (type IN ('ASSET','LIABILITY','EQUITY','REVENUE','EXPENSE'))`,
		`ALTER TABLE ledger_transactions DROP CONSTRAINT IF EXISTS chk_ledger_transactions_type`,
		`ALTER TABLE ledger_transactions ADD CONSTRAINT chk_ledger_transactions_type
			CHECK (type IN ('DEPOSIT','WITHDRAWAL','TRANSFER','ALLOCATION','CORRECTION'))`,
		`ALTER TABLE ledger_transactions DROP CONSTRAINT IF EXISTS chk_ledger_transactions_status`,
		`ALTER TABLE ledger_transactions ADD CONSTRAINT chk_ledger_transactions_status
			CHECK (status IN ('PENDING','COMPLETED','FAILED','CANCELLED'))`,
		`ALTER TABLE ledger_transactions DROP CONSTRAINT IF EXISTS chk_ledger_transactions_amount`,
		`ALTER TABLE ledger_transactions ADD CONSTRAINT chk_ledger_transactions_amount
			CHECK (amount >= 0)`,
		`ALTER TABLE ledger_transactions DROP CONSTRAINT IF EXISTS fk_ledger_transactions_account`,
		`ALTER TABLE ledger_transactions ADD CONSTRAINT fk_ledger_transactions_account
			FOREIGN KEY (logical_account_id) REFERENCES logical_accounts(id)`,
		`ALTER TABLE ledger_transactions DROP CONSTRAINT IF EXISTS fk_ledger_transactions_parent`,
		`ALTER TABLE ledger_transactions ADD CONSTRAINT fk_ledger_transactions_parent
			FOREIGN KEY (parent_transaction_id) REFERENCES ledger_transactions(id)`,
		`ALTER TABLE reconciliation_logs DROP CONSTRAINT IF EXISTS fk_reconciliation_logs_account`,
		`ALTER TABLE reconciliation_logs ADD CONSTRAINT fk_reconciliation_logs_account
			FOREIGN KEY (logical_account_id) REFERENCES logical_accounts(id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_target ON audit_logs (target_type, target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_logs_account_resolved
			ON reconciliation_logs (logical_account_id, resolved)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration statement failed: %w", err)
		}
	}

	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a single-row lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName is returned when an insert or update would violate a
	// unique-name constraint (logical_accounts.name, allocation_rules.name).
	ErrDuplicateName = errors.New("name already in use")
)

// Store is the persistence layer: it owns the database handle and hands
// out a serializable UnitOfWork to callers that need more than one write to
// commit or roll back together. Reads that don't need atomicity go straight
// through the per-entity repositories constructed against the Store's own
// handle.
type Store struct {
	db *gorm.DB

	Accounts        *AccountRepository
	Transactions    *TransactionRepository
	AllocationRules *AllocationRuleRepository
	Reconciliations *ReconciliationRepository
	Audit           *AuditRepository
}

// NewStore wires the Store and its repositories against a single *gorm.DB
// handle (the pooled connection the process opened at startup).
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		Accounts:        NewAccountRepository(db),
		Transactions:    NewTransactionRepository(db),
		AllocationRules: NewAllocationRuleRepository(db),
		Reconciliations: NewReconciliationRepository(db),
		Audit:           NewAuditRepository(db),
	}
}

// DB returns the underlying handle for callers (e.g. health checks) that
// need it directly.
func (s *Store) DB() *gorm.DB { return s.db }

// UnitOfWork is a serializable database transaction: every repository
// reachable from it shares the same underlying *gorm.DB transaction, so
// writes through any of them commit or roll back together.
type UnitOfWork struct {
	Accounts        *AccountRepository
	Transactions    *TransactionRepository
	AllocationRules *AllocationRuleRepository
	Reconciliations *ReconciliationRepository
	Audit           *AuditRepository

	tx *gorm.DB
}

// Atomic runs fn inside a serializable unit of work. If fn returns an error
// or panics, every write performed through the UnitOfWork it was given is
// rolled back; otherwise the unit of work commits as a whole.
func (s *Store) Atomic(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow := &UnitOfWork{
			Accounts:        NewAccountRepository(tx),
			Transactions:    NewTransactionRepository(tx),
			AllocationRules: NewAllocationRuleRepository(tx),
			Reconciliations: NewReconciliationRepository(tx),
			Audit:           NewAuditRepository(tx),
			tx:              tx,
		}
		return fn(uow)
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

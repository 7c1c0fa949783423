package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finledger/ledger-service/internal/model"
)

// TransactionRepository handles database operations for ledger transactions.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository bound to db.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert creates a new ledger transaction.
func (r *TransactionRepository) Insert(ctx context.Context, tx *model.LedgerTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

// InsertMany creates multiple ledger transactions (used by the Allocation
// Engine to persist a parent's children in one round trip).
func (r *TransactionRepository) InsertMany(ctx context.Context, txs []*model.LedgerTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(txs).Error
}

// FindByID fetches one transaction, optionally locking the row for update.
// The transaction service takes this lock on the parent before allocating,
// which prevents double-allocation under concurrent completion attempts.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*model.LedgerTransaction, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var tx model.LedgerTransaction
	if err := q.First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// Update persists a status/metadata change to an existing transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx *model.LedgerTransaction) error {
	tx.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).Where("id = ?", tx.ID).Updates(map[string]interface{}{
		"status":     tx.Status,
		"metadata":   tx.Metadata,
		"updated_at": tx.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ChildrenOf returns every transaction whose parent_transaction_id is
// parentID. The Allocation Engine's idempotence guard relies on this
// returning a non-empty slice once allocation has already run once.
func (r *TransactionRepository) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]*model.LedgerTransaction, error) {
	var children []*model.LedgerTransaction
	if err := r.db.WithContext(ctx).Where("parent_transaction_id = ?", parentID).Order("created_at ASC").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// ListForAccount returns every COMPLETED transaction posted to account,
// at or before asOf when given, in chronological order. Used by the
// Balance Calculator.
func (r *TransactionRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, asOf *time.Time) ([]*model.LedgerTransaction, error) {
	q := r.db.WithContext(ctx).
		Where("logical_account_id = ?", accountID).
		Where("status = ?", model.TransactionStatusCompleted)
	if asOf != nil {
		q = q.Where("created_at <= ?", *asOf)
	}

	var txs []*model.LedgerTransaction
	if err := q.Order("created_at ASC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// List applies the listing filters and returns a page of transactions
// ordered newest first, along with the total matching row count.
func (r *TransactionRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.LedgerTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.LedgerTransaction{})

	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.AccountID != nil {
		q = q.Where("logical_account_id = ?", *filter.AccountID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > model.MaxListLimit {
		limit = model.MaxListLimit
	}

	var txs []*model.LedgerTransaction
	if err := q.Order("created_at DESC").Offset(filter.Skip).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ListRange returns every transaction created within [from, to],
// ascending, for the ledger export.
func (r *TransactionRepository) ListRange(ctx context.Context, from, to time.Time) ([]*model.LedgerTransaction, error) {
	var txs []*model.LedgerTransaction
	err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", from, to).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

// FindByExternalTxHash looks up a transaction by its client-supplied
// idempotency token, used by the transaction service to detect a retried
// write.
func (r *TransactionRepository) FindByExternalTxHash(ctx context.Context, hash string) (*model.LedgerTransaction, error) {
	var tx model.LedgerTransaction
	if err := r.db.WithContext(ctx).First(&tx, "external_tx_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

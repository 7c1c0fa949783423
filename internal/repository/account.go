package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finledger/ledger-service/internal/model"
)

// AccountRepository handles database operations for logical accounts.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository bound to db. Pass
// the Store's handle for standalone reads, or a UnitOfWork's tx to
// participate in an atomic write.
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Insert creates a new logical account. Returns ErrDuplicateName if the name
// is already taken.
func (r *AccountRepository) Insert(ctx context.Context, account *model.LogicalAccount) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// FindByID fetches one account, locking it for update when forUpdate is set
// (used by account updates and by reconciliation corrections).
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*model.LogicalAccount, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account model.LogicalAccount
	if err := q.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByName fetches one account by its unique name.
func (r *AccountRepository) FindByName(ctx context.Context, name string) (*model.LogicalAccount, error) {
	var account model.LogicalAccount
	if err := r.db.WithContext(ctx).First(&account, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// List returns every account, ordered by name, optionally narrowed to a
// single type.
func (r *AccountRepository) List(ctx context.Context, accountType *model.AccountType) ([]*model.LogicalAccount, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if accountType != nil {
		q = q.Where("type = ?", *accountType)
	}

	var accounts []*model.LogicalAccount
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListAutoReconcile returns every account opted into the scheduled
// reconciliation sweep.
func (r *AccountRepository) ListAutoReconcile(ctx context.Context) ([]*model.LogicalAccount, error) {
	var accounts []*model.LogicalAccount
	if err := r.db.WithContext(ctx).Where("auto_reconcile = ?", true).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update persists changes to an existing account (metadata, auto_reconcile,
// cached balance). The account's type is immutable once referenced by a
// posted transaction; callers enforce that at the service layer, not here.
func (r *AccountRepository) Update(ctx context.Context, account *model.LogicalAccount) error {
	account.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.LogicalAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"name":           account.Name,
		"metadata":       account.Metadata,
		"auto_reconcile": account.AutoReconcile,
		"balance":        account.Balance,
		"updated_at":     account.UpdatedAt,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateName
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance atomically adds delta (which may be negative) to an
// account's cached balance. Must be called against a UnitOfWork-scoped
// repository so the adjustment commits with the rest of the write.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.LogicalAccount{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasPostedTransaction reports whether any transaction has ever posted
// against this account, which freezes its type per the LogicalAccount
// invariant.
func (r *AccountRepository) HasPostedTransaction(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Where("logical_account_id = ?", id).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// isUniqueViolation detects a Postgres unique-constraint violation
// (SQLSTATE 23505) regardless of which driver surfaced it, so callers don't
// have to depend on pgconn/lib/pq types directly.
func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var pgErr sqlStater
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

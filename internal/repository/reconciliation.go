package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/model"
)

// ReconciliationRepository handles database operations for reconciliation
// logs.
type ReconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository creates a new reconciliation repository bound
// to db.
func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// Insert creates a new reconciliation log entry.
func (r *ReconciliationRepository) Insert(ctx context.Context, log *model.ReconciliationLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByID fetches one reconciliation log. It takes no row lock on the
// log.
func (r *ReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReconciliationLog, error) {
	var log model.ReconciliationLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// Update persists a log's resolution fields.
func (r *ReconciliationRepository) Update(ctx context.Context, log *model.ReconciliationLog) error {
	result := r.db.WithContext(ctx).Model(&model.ReconciliationLog{}).Where("id = ?", log.ID).Updates(map[string]interface{}{
		"resolved":                  log.Resolved,
		"resolved_at":               log.ResolvedAt,
		"resolved_by":               log.ResolvedBy,
		"resolution_notes":          log.ResolutionNotes,
		"correction_transaction_id": log.CorrectionTransactionID,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRange returns every reconciliation log created within [from, to],
// ascending, for the ledger export.
func (r *ReconciliationRepository) ListRange(ctx context.Context, from, to time.Time) ([]*model.ReconciliationLog, error) {
	var logs []*model.ReconciliationLog
	err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", from, to).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// ListUnresolved returns unresolved logs, optionally narrowed to a single
// account, newest first, capped at limit.
func (r *ReconciliationRepository) ListUnresolved(ctx context.Context, accountID *uuid.UUID, limit int) ([]*model.ReconciliationLog, error) {
	q := r.db.WithContext(ctx).Where("resolved = ?", false)
	if accountID != nil {
		q = q.Where("logical_account_id = ?", *accountID)
	}
	if limit <= 0 || limit > model.MaxListLimit {
		limit = model.MaxListLimit
	}

	var logs []*model.ReconciliationLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

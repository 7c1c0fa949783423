package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/model"
)

// AuditRepository handles database operations for the audit log. It is
// append-only: no Update or Delete method exists on purpose, matching the
// AuditLog entity's invariant.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository bound to db.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one audit row. Runs inside the caller's unit of work so it
// commits or rolls back with the business change it documents.
func (r *AuditRepository) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// LastEntryHash returns the entry_hash of the most recently written audit
// row, or "" if the log is empty — the genesis link for the hash chain.
func (r *AuditRepository) LastEntryHash(ctx context.Context) (string, error) {
	var entry model.AuditLog
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(1).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.EntryHash, nil
}

// AuditListFilter narrows an audit log query by target type and/or target
// id, with skip/limit paging.
type AuditListFilter struct {
	TargetType *string
	TargetID   *uuid.UUID
	Skip       int
	Limit      int
}

// List returns audit rows matching filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter AuditListFilter) ([]*model.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.TargetType != nil {
		q = q.Where("target_type = ?", *filter.TargetType)
	}
	if filter.TargetID != nil {
		q = q.Where("target_id = ?", *filter.TargetID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > model.MaxListLimit {
		limit = model.MaxListLimit
	}

	var entries []*model.AuditLog
	if err := q.Order("created_at DESC").Offset(filter.Skip).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListRange returns every audit row created within [from, to], ascending,
// for the ledger export.
func (r *AuditRepository) ListRange(ctx context.Context, from, to time.Time) ([]*model.AuditLog, error) {
	var entries []*model.AuditLog
	err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", from, to).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

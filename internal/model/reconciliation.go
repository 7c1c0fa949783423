package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationLog records a single comparison between an externally
// reported balance and the ledger's own computed balance for a logical
// account. Discrepancy is always external_balance - internal_balance,
// positive meaning the external source reports more than the ledger does.
type ReconciliationLog struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LogicalAccountID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"logical_account_id"`
	ExternalBalance         decimal.Decimal `gorm:"type:numeric(30,12);not null" json:"external_balance"`
	InternalBalance         decimal.Decimal `gorm:"type:numeric(30,12);not null" json:"internal_balance"`
	Discrepancy             decimal.Decimal `gorm:"type:numeric(30,12);not null" json:"discrepancy"`
	Currency                string          `gorm:"type:text;not null;default:USD" json:"currency"`
	Resolved                bool            `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt              *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy              *string         `gorm:"type:text" json:"resolved_by,omitempty"`
	ResolutionNotes         *string         `gorm:"type:text" json:"resolution_notes,omitempty"`
	CorrectionTransactionID *uuid.UUID      `gorm:"type:uuid" json:"correction_transaction_id,omitempty"`
	CreatedAt               time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// TableName pins the table name to the original source's `reconciliation_logs`.
func (ReconciliationLog) TableName() string { return "reconciliation_logs" }

// IsDiscrepant reports whether the logged discrepancy falls outside the
// tolerance that the Reconciliation Service treats as a match.
func (r *ReconciliationLog) IsDiscrepant(tolerance decimal.Decimal) bool {
	return r.Discrepancy.Abs().GreaterThan(tolerance)
}

// ComputeDiscrepancy sets Discrepancy from the recorded external and
// internal balances, per the authoritative convention:
// discrepancy = external_balance - internal_balance.
func (r *ReconciliationLog) ComputeDiscrepancy() {
	r.Discrepancy = r.ExternalBalance.Sub(r.InternalBalance)
}

// MarkResolved records a resolution (automatic, manual, or by correction
// transaction when correctionTxID is set), satisfying the invariant that
// resolved_at/resolved_by are set if and only if resolved is true.
func (r *ReconciliationLog) MarkResolved(by string, notes *string, correctionTxID *uuid.UUID, at time.Time) {
	r.Resolved = true
	r.ResolvedAt = &at
	r.ResolvedBy = &by
	r.ResolutionNotes = notes
	r.CorrectionTransactionID = correctionTxID
}

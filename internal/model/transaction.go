package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the typed-movement kind of a LedgerTransaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeAllocation TransactionType = "ALLOCATION"
	TransactionTypeCorrection TransactionType = "CORRECTION"
)

// IsValid reports whether t is one of the five recognised transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeAllocation, TransactionTypeCorrection:
		return true
	}
	return false
}

// SignMultiplier returns the signed effect a COMPLETED transaction of this
// type has on the natural (debit-positive) balance of its logical account.
// TRANSFER and CORRECTION carry no inherent sign — callers resolve the
// direction from the transaction's metadata["direction"] leg instead.
func (t TransactionType) SignMultiplier() decimal.Decimal {
	switch t {
	case TransactionTypeDeposit, TransactionTypeAllocation:
		return decimal.NewFromInt(1)
	case TransactionTypeWithdrawal:
		return decimal.NewFromInt(-1)
	default:
		return decimal.NewFromInt(1)
	}
}

// TransactionStatus is the lifecycle state of a LedgerTransaction. The
// lattice is PENDING -> {COMPLETED, FAILED, CANCELLED}; the latter three are
// terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// IsValid reports whether s is one of the four recognised statuses.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s is a terminal state in the status lattice.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal status
// transition: PENDING may move to any of the three terminal states (or be
// set to PENDING again, a no-op); no terminal state may move anywhere.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.IsValid()
}

// LedgerTransaction is a single financial movement: a deposit, withdrawal,
// transfer, allocation child, or balance correction. Allocation children
// reference their parent via ParentTransactionID.
type LedgerTransaction struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Type                TransactionType   `gorm:"type:text;not null;index" json:"type"`
	Amount              decimal.Decimal   `gorm:"type:numeric(30,12);not null" json:"amount"`
	Currency            string            `gorm:"type:text;not null;default:USD" json:"currency"`
	Status              TransactionStatus `gorm:"type:text;not null;default:PENDING;index" json:"status"`
	LogicalAccountID    *uuid.UUID        `gorm:"type:uuid;index" json:"logical_account_id,omitempty"`
	ParentTransactionID *uuid.UUID        `gorm:"type:uuid;index" json:"parent_transaction_id,omitempty"`
	ExternalTxHash      *string           `gorm:"type:text;index" json:"external_tx_hash,omitempty"`
	Description         *string           `gorm:"type:text" json:"description,omitempty"`
	Metadata            JSONBMap          `gorm:"type:jsonb;not null" json:"metadata"`
	CreatedAt           time.Time         `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name to the original source's `ledger_transactions`.
func (LedgerTransaction) TableName() string { return "ledger_transactions" }

// ListFilter narrows a transaction listing by the API's query parameters.
type ListFilter struct {
	Status    *TransactionStatus
	Type      *TransactionType
	AccountID *uuid.UUID
	Skip      int
	Limit     int
}

// MaxListLimit is the hard ceiling on `limit` enforced at the API layer.
const MaxListLimit = 1000

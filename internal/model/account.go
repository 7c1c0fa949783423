package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates the accounting classification of a LogicalAccount.
// Asset/expense accounts carry a natural debit balance; liability/equity/revenue
// accounts carry a natural credit balance, and the Balance Calculator flips the
// sign for them.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five recognised account types.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// LogicalAccount is an abstract account category (Treasury, Operations,
// Reserve, ...) against which transactions post and balances accrue. Its
// name is globally unique and its type is immutable once a transaction has
// posted against it.
type LogicalAccount struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Type          AccountType     `gorm:"type:text;not null;index" json:"type"`
	Balance       decimal.Decimal `gorm:"type:numeric(30,12);not null;default:0" json:"balance"`
	Currency      string          `gorm:"type:text;not null;default:USD" json:"currency"`
	Metadata      JSONBMap        `gorm:"type:jsonb;not null" json:"metadata"`
	AutoReconcile bool            `gorm:"not null;default:false;column:auto_reconcile" json:"auto_reconcile"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName overrides GORM's pluralization so the schema matches the
// original source's `logical_accounts` table exactly.
func (LogicalAccount) TableName() string { return "logical_accounts" }

// SignMultiplier returns +1 for accounts whose natural balance increases on
// a debit-equivalent posting, and -1 for accounts whose natural balance is a
// credit (liability, equity, revenue).
func (t AccountType) SignMultiplier() decimal.Decimal {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return decimal.NewFromInt(-1)
	default:
		return decimal.NewFromInt(1)
	}
}

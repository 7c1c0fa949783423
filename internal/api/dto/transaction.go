package dto

import (
	"github.com/shopspring/decimal"

	"github.com/finledger/ledger-service/internal/model"
)

// CreateTransactionRequest is the POST /api/v1/transactions payload.
// Amount arrives as a JSON string and is parsed exactly; floats never touch
// the wire. Complete=true posts the transaction immediately, which may
// trigger allocation.
type CreateTransactionRequest struct {
	Type           string                 `json:"type" validate:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER ALLOCATION CORRECTION"`
	Amount         decimal.Decimal        `json:"amount" validate:"decimal_non_negative"`
	Currency       string                 `json:"currency" validate:"omitempty,min=3,max=8"`
	AccountID      *string                `json:"logical_account_id,omitempty" validate:"omitempty,uuid_v4"`
	Description    *string                `json:"description,omitempty" validate:"omitempty,max=500,no_html"`
	ExternalTxHash *string                `json:"external_tx_hash,omitempty" validate:"omitempty,max=128"`
	Complete       bool                   `json:"complete"`
	Direction      string                 `json:"direction,omitempty" validate:"omitempty,oneof=DEBIT CREDIT"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateTransactionRequest is the PATCH /api/v1/transactions/{id} payload.
type UpdateTransactionRequest struct {
	Status   *string                `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED FAILED CANCELLED"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListTransactionsQuery carries the GET /api/v1/transactions filters.
type ListTransactionsQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=PENDING COMPLETED FAILED CANCELLED"`
	Type      string `form:"type" validate:"omitempty,oneof=DEPOSIT WITHDRAWAL TRANSFER ALLOCATION CORRECTION"`
	AccountID string `form:"account_id" validate:"omitempty,uuid_v4"`
	Skip      int    `form:"skip" validate:"omitempty,gte=0"`
	Limit     int    `form:"limit" validate:"omitempty,gte=1,lte=1000"`
}

// TransactionResponse wraps a created or updated transaction together with
// any allocation children produced in the same unit of work.
type TransactionResponse struct {
	Transaction *model.LedgerTransaction   `json:"transaction"`
	Children    []*model.LedgerTransaction `json:"children,omitempty"`
}

package dto

import (
	"github.com/shopspring/decimal"
)

// CreateReconciliationRequest is the POST /api/v1/treasury/reconcile
// payload.
type CreateReconciliationRequest struct {
	AccountID       string          `json:"logical_account_id" validate:"required,uuid_v4"`
	ExternalBalance decimal.Decimal `json:"external_balance"`
	Currency        string          `json:"currency" validate:"omitempty,min=3,max=8"`
}

// ResolveReconciliationRequest is the POST
// /api/v1/treasury/reconciliations/{id}/resolve payload. With
// CreateCorrection set, a CORRECTION transaction is posted that closes the
// discrepancy; without it, the log is signed off manually.
type ResolveReconciliationRequest struct {
	CreateCorrection bool    `json:"create_correction"`
	Notes            *string `json:"notes,omitempty" validate:"omitempty,max=1000,no_html"`
}

// ListReconciliationsQuery carries the unresolved-log listing filters.
type ListReconciliationsQuery struct {
	AccountID string `form:"account_id" validate:"omitempty,uuid_v4"`
	Limit     int    `form:"limit" validate:"omitempty,gte=1,lte=1000"`
}

package dto

import (
	"github.com/shopspring/decimal"
)

// AllocationDestinationRequest is one destination slot in a rule payload.
// Order is significant: the last slot absorbs the truncation residue.
type AllocationDestinationRequest struct {
	DestinationAccountID string          `json:"destination_account_id" validate:"required,uuid_v4"`
	Percentage           decimal.Decimal `json:"percentage" validate:"percentage"`
	Description          string          `json:"description,omitempty" validate:"omitempty,max=200,no_html"`
}

// CreateAllocationRuleRequest is the POST /api/v1/allocation-rules payload.
type CreateAllocationRuleRequest struct {
	Name        string                         `json:"name" validate:"required,min=1,max=120,no_html"`
	Rules       []AllocationDestinationRequest `json:"rules" validate:"required,min=1,dive"`
	Active      bool                           `json:"active"`
	Description *string                        `json:"description,omitempty" validate:"omitempty,max=500,no_html"`
}

// UpdateAllocationRuleRequest is the PUT/PATCH
// /api/v1/allocation-rules/{id} payload. A nil Rules leaves the destination
// list untouched; a non-nil one replaces it wholesale and is re-validated.
type UpdateAllocationRuleRequest struct {
	Name        *string                        `json:"name,omitempty" validate:"omitempty,min=1,max=120,no_html"`
	Rules       []AllocationDestinationRequest `json:"rules,omitempty" validate:"omitempty,min=1,dive"`
	Active      *bool                          `json:"active,omitempty"`
	Description *string                        `json:"description,omitempty" validate:"omitempty,max=500,no_html"`
}

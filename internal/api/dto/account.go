package dto

import (
	"github.com/finledger/ledger-service/internal/model"
)

// CreateAccountRequest is the POST /api/v1/accounts payload.
type CreateAccountRequest struct {
	Name          string                 `json:"name" validate:"required,min=1,max=120,no_html"`
	Type          string                 `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Currency      string                 `json:"currency" validate:"omitempty,min=3,max=8"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	AutoReconcile bool                   `json:"auto_reconcile"`
}

// UpdateAccountRequest is the PATCH /api/v1/accounts/{id} payload. The
// account type is immutable and therefore not patchable.
type UpdateAccountRequest struct {
	Name          *string                `json:"name,omitempty" validate:"omitempty,min=1,max=120,no_html"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	AutoReconcile *bool                  `json:"auto_reconcile,omitempty"`
	Deactivate    bool                   `json:"deactivate"`
}

// TreasuryGroupResponse is one account-type bucket of the treasury status.
type TreasuryGroupResponse struct {
	Accounts []*model.LogicalAccount `json:"accounts"`
	Totals   map[string]string       `json:"totals"`
}

// TreasuryStatusResponse is the GET /api/v1/treasury/status body: accounts
// grouped by type plus per-type and overall totals, keyed by currency and
// serialized as decimal strings.
type TreasuryStatusResponse struct {
	Groups      map[string]TreasuryGroupResponse `json:"groups"`
	GrandTotals map[string]string                `json:"grand_totals"`
}

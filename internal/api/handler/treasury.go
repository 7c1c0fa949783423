package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/ledger-service/internal/api/dto"
	"github.com/finledger/ledger-service/internal/api/middleware"
	"github.com/finledger/ledger-service/internal/model"
	apperrors "github.com/finledger/ledger-service/internal/shared/errors"
	"github.com/finledger/ledger-service/internal/service"
)

// AccountService defines the interface for logical account operations
type AccountService interface {
	Create(ctx context.Context, req service.CreateAccountRequest) (*model.LogicalAccount, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateAccountRequest) (*model.LogicalAccount, error)
	Get(ctx context.Context, id uuid.UUID) (*model.LogicalAccount, error)
	Treasury(ctx context.Context) (*service.TreasuryStatus, error)
}

// ReconciliationService defines the interface for reconciliation operations
type ReconciliationService interface {
	CreateLog(ctx context.Context, accountID uuid.UUID, externalBalance decimal.Decimal, currency, actor string) (*model.ReconciliationLog, error)
	CreateCorrection(ctx context.Context, logID uuid.UUID, approvedBy string, notes *string) (*model.LedgerTransaction, error)
	ResolveManually(ctx context.Context, logID uuid.UUID, resolvedBy string, notes *string) (*model.ReconciliationLog, error)
	ListUnresolved(ctx context.Context, accountID *uuid.UUID, limit int) ([]*model.ReconciliationLog, error)
}

// TreasuryHandler handles HTTP requests for treasury status, account
// management, and reconciliation.
type TreasuryHandler struct {
	accounts        AccountService
	reconciliations ReconciliationService
}

// NewTreasuryHandler creates a new treasury handler.
func NewTreasuryHandler(accounts AccountService, reconciliations ReconciliationService) *TreasuryHandler {
	return &TreasuryHandler{accounts: accounts, reconciliations: reconciliations}
}

// Status handles GET /api/v1/treasury/status (alias GET /api/v1/accounts):
// every account with its cached balance, grouped by type, with totals.
func (h *TreasuryHandler) Status(c *gin.Context) {
	status, err := h.accounts.Treasury(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.TreasuryStatusResponse{
		Groups:      make(map[string]dto.TreasuryGroupResponse, len(status.Groups)),
		GrandTotals: make(map[string]string, len(status.GrandTotals)),
	}
	for accType, group := range status.Groups {
		totals := make(map[string]string, len(group.Totals))
		for currency, total := range group.Totals {
			totals[currency] = total.Amount.String()
		}
		resp.Groups[string(accType)] = dto.TreasuryGroupResponse{
			Accounts: group.Accounts,
			Totals:   totals,
		}
	}
	for currency, total := range status.GrandTotals {
		resp.GrandTotals[currency] = total.Amount.String()
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp))
}

// CreateAccount handles POST /api/v1/accounts
func (h *TreasuryHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), service.CreateAccountRequest{
		Name:          req.Name,
		Type:          model.AccountType(req.Type),
		Currency:      req.Currency,
		Metadata:      model.JSONBMap(req.Metadata),
		AutoReconcile: req.AutoReconcile,
		Actor:         actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(account))
}

// UpdateAccount handles PATCH /api/v1/accounts/:id
func (h *TreasuryHandler) UpdateAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "account id is not a valid UUID"))
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), id, service.UpdateAccountRequest{
		Name:          req.Name,
		Metadata:      model.JSONBMap(req.Metadata),
		AutoReconcile: req.AutoReconcile,
		Deactivate:    req.Deactivate,
		Actor:         actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(account))
}

// Reconcile handles POST /api/v1/treasury/reconcile: create a
// reconciliation log comparing an externally reported balance to the
// ledger's computed one.
func (h *TreasuryHandler) Reconcile(c *gin.Context) {
	var req dto.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "logical_account_id is not a valid UUID"))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	log, err := h.reconciliations.CreateLog(c.Request.Context(), accountID, req.ExternalBalance, currency, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(log))
}

// Resolve handles POST /api/v1/treasury/reconciliations/:id/resolve:
// either post a correction transaction that closes the discrepancy, or
// sign the log off manually.
func (h *TreasuryHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "reconciliation log id is not a valid UUID"))
		return
	}

	var req dto.ResolveReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	actor := actorFrom(c)

	if req.CreateCorrection {
		correction, err := h.reconciliations.CreateCorrection(c.Request.Context(), id, actor, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.SuccessResponse(correction))
		return
	}

	log, err := h.reconciliations.ResolveManually(c.Request.Context(), id, actor, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(log))
}

// ListUnresolved handles GET /api/v1/treasury/reconciliations
func (h *TreasuryHandler) ListUnresolved(c *gin.Context) {
	var query dto.ListReconciliationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid query parameters", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &query) {
		return
	}

	var accountID *uuid.UUID
	if query.AccountID != "" {
		parsed, err := uuid.Parse(query.AccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse(
				string(apperrors.ErrCodeValidation), "account_id is not a valid UUID"))
			return
		}
		accountID = &parsed
	}

	logs, err := h.reconciliations.ListUnresolved(c.Request.Context(), accountID, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(logs))
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finledger/ledger-service/internal/api/dto"
	"github.com/finledger/ledger-service/internal/api/middleware"
	"github.com/finledger/ledger-service/internal/model"
	apperrors "github.com/finledger/ledger-service/internal/shared/errors"
	"github.com/finledger/ledger-service/internal/service"
)

// TransactionService defines the interface for transaction business logic
type TransactionService interface {
	Create(ctx context.Context, req service.CreateTransactionRequest) (*model.LedgerTransaction, []*model.LedgerTransaction, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateTransactionRequest) (*model.LedgerTransaction, []*model.LedgerTransaction, error)
	List(ctx context.Context, filter model.ListFilter) ([]*model.LedgerTransaction, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.LedgerTransaction, error)
}

// TransactionHandler handles HTTP requests for ledger transactions.
type TransactionHandler struct {
	transactions TransactionService
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Create handles POST /api/v1/transactions
// @Summary Create a ledger transaction
// @Description Create a transaction; completing it may trigger allocation
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} dto.APIResponse{data=dto.TransactionResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	serviceReq := service.CreateTransactionRequest{
		Type:           model.TransactionType(req.Type),
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		ExternalTxHash: req.ExternalTxHash,
		Complete:       req.Complete,
		Direction:      req.Direction,
		Metadata:       model.JSONBMap(req.Metadata),
		Actor:          actorFrom(c),
	}
	serviceReq.IPAddress, serviceReq.UserAgent = requestContext(c)

	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse(
				string(apperrors.ErrCodeValidation), "logical_account_id is not a valid UUID"))
			return
		}
		serviceReq.LogicalAccountID = &accountID
	}

	if req.Currency == "" {
		serviceReq.Currency = "USD"
	}

	parent, children, err := h.transactions.Create(ctx, serviceReq)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(dto.TransactionResponse{
		Transaction: parent,
		Children:    children,
	}))
}

// Get handles GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "transaction id is not a valid UUID"))
		return
	}

	tx, err := h.transactions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(tx))
}

// List handles GET /api/v1/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var query dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid query parameters", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &query) {
		return
	}

	filter := model.ListFilter{Skip: query.Skip, Limit: query.Limit}
	if query.Status != "" {
		status := model.TransactionStatus(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		txType := model.TransactionType(query.Type)
		filter.Type = &txType
	}
	if query.AccountID != "" {
		accountID, err := uuid.Parse(query.AccountID)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse(
				string(apperrors.ErrCodeValidation), "account_id is not a valid UUID"))
			return
		}
		filter.AccountID = &accountID
	}

	txs, total, err := h.transactions.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	limit := query.Limit
	if limit <= 0 || limit > model.MaxListLimit {
		limit = model.MaxListLimit
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.ListResponse{
		Data:  txs,
		Total: total,
		Skip:  query.Skip,
		Limit: limit,
	}))
}

// Update handles PATCH /api/v1/transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "transaction id is not a valid UUID"))
		return
	}

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	serviceReq := service.UpdateTransactionRequest{
		Metadata: model.JSONBMap(req.Metadata),
		Actor:    actorFrom(c),
	}
	serviceReq.IPAddress, serviceReq.UserAgent = requestContext(c)
	if req.Status != nil {
		status := model.TransactionStatus(*req.Status)
		serviceReq.Status = &status
	}

	tx, children, err := h.transactions.Update(c.Request.Context(), id, serviceReq)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.TransactionResponse{
		Transaction: tx,
		Children:    children,
	}))
}

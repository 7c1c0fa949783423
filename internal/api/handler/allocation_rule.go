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

// AllocationRuleService defines the interface for allocation rule management
type AllocationRuleService interface {
	Create(ctx context.Context, req service.CreateAllocationRuleRequest) (*model.AllocationRule, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateAllocationRuleRequest) (*model.AllocationRule, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	Get(ctx context.Context, id uuid.UUID) (*model.AllocationRule, error)
	List(ctx context.Context) ([]*model.AllocationRule, error)
}

// AllocationRuleHandler handles HTTP requests for allocation rules.
type AllocationRuleHandler struct {
	rules AllocationRuleService
}

// NewAllocationRuleHandler creates a new allocation rule handler.
func NewAllocationRuleHandler(rules AllocationRuleService) *AllocationRuleHandler {
	return &AllocationRuleHandler{rules: rules}
}

// Create handles POST /api/v1/allocation-rules
func (h *AllocationRuleHandler) Create(c *gin.Context) {
	var req dto.CreateAllocationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	destinations, err := parseDestinations(req.Rules)
	if err != nil {
		respondError(c, err)
		return
	}

	rule, err := h.rules.Create(c.Request.Context(), service.CreateAllocationRuleRequest{
		Name:        req.Name,
		Rules:       destinations,
		Active:      req.Active,
		Description: req.Description,
		Actor:       actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(rule))
}

// List handles GET /api/v1/allocation-rules
func (h *AllocationRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(rules))
}

// Get handles GET /api/v1/allocation-rules/:id
func (h *AllocationRuleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "allocation rule id is not a valid UUID"))
		return
	}

	rule, err := h.rules.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(rule))
}

// Update handles PUT and PATCH /api/v1/allocation-rules/:id
func (h *AllocationRuleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "allocation rule id is not a valid UUID"))
		return
	}

	var req dto.UpdateAllocationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponseWithDetails(
			string(apperrors.ErrCodeValidation), "invalid request body", err.Error()))
		return
	}
	if !middleware.ValidateStruct(c, &req) {
		return
	}

	serviceReq := service.UpdateAllocationRuleRequest{
		Name:        req.Name,
		Active:      req.Active,
		Description: req.Description,
		Actor:       actorFrom(c),
	}
	if req.Rules != nil {
		destinations, err := parseDestinations(req.Rules)
		if err != nil {
			respondError(c, err)
			return
		}
		serviceReq.Rules = destinations
	}

	rule, err := h.rules.Update(c.Request.Context(), id, serviceReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(rule))
}

// Delete handles DELETE /api/v1/allocation-rules/:id
func (h *AllocationRuleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "allocation rule id is not a valid UUID"))
		return
	}

	if err := h.rules.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(gin.H{"deactivated": true}))
}

// parseDestinations converts wire-format destination slots into model
// destinations, preserving their declared order.
func parseDestinations(reqs []dto.AllocationDestinationRequest) ([]model.AllocationDestination, error) {
	destinations := make([]model.AllocationDestination, 0, len(reqs))
	for _, r := range reqs {
		accountID, err := uuid.Parse(r.DestinationAccountID)
		if err != nil {
			return nil, apperrors.Validation("destination_account_id is not a valid UUID")
		}
		destinations = append(destinations, model.AllocationDestination{
			DestinationAccountID: accountID,
			Percentage:           r.Percentage,
			Description:          r.Description,
		})
	}
	return destinations, nil
}

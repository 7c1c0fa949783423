package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
)

// CreateAllocationRuleRequest is the AllocationRuleService's Create input.
type CreateAllocationRuleRequest struct {
	Name        string
	Rules       []model.AllocationDestination
	Active      bool
	Description *string
	Actor       string
}

// UpdateAllocationRuleRequest is the AllocationRuleService's Update input.
// Rules, when present, replaces the whole destination list and is
// re-validated in full.
type UpdateAllocationRuleRequest struct {
	Name        *string
	Rules       []model.AllocationDestination
	Active      *bool
	Description *string
	Actor       string
}

// AllocationRuleService manages allocation rule definitions. It owns the
// rule lifecycle only; applying a rule to a transaction is the Allocation
// Engine's job.
type AllocationRuleService struct {
	store *repository.Store
}

// NewAllocationRuleService builds an AllocationRuleService bound to a
// Store.
func NewAllocationRuleService(store *repository.Store) *AllocationRuleService {
	return &AllocationRuleService{store: store}
}

// Create validates and inserts a new allocation rule. Both the percentage
// arithmetic and the existence of every destination account are checked
// before anything persists.
func (s *AllocationRuleService) Create(ctx context.Context, req CreateAllocationRuleRequest) (*model.AllocationRule, error) {
	if req.Name == "" {
		return nil, apperrors.Validation("allocation rule name is required")
	}

	rule := &model.AllocationRule{
		ID:          uuid.New(),
		Name:        req.Name,
		Rules:       req.Rules,
		Active:      req.Active,
		Description: req.Description,
		CreatedBy:   strPtr(req.Actor),
	}
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		engine := NewAllocationEngine(uow.Accounts, uow.Transactions)
		if err := engine.ValidateDestinations(ctx, rule); err != nil {
			return err
		}

		if err := uow.AllocationRules.Insert(ctx, rule); err != nil {
			if err == repository.ErrDuplicateName {
				return apperrors.Conflict("allocation rule name is already in use")
			}
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "CREATE_ALLOCATION_RULE",
			Actor:      req.Actor,
			TargetID:   &rule.ID,
			TargetType: strPtr("allocation_rule"),
			Details: model.JSONBMap{
				"name":         rule.Name,
				"destinations": len(rule.Rules),
				"active":       rule.Active,
			},
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// Update applies a patch to an existing rule, re-validating the full
// destination list whenever it changes.
func (s *AllocationRuleService) Update(ctx context.Context, id uuid.UUID, req UpdateAllocationRuleRequest) (*model.AllocationRule, error) {
	var updated *model.AllocationRule

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		rule, err := uow.AllocationRules.FindByID(ctx, id)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("allocation rule")
			}
			return apperrors.Internal("").WithError(err)
		}

		if req.Name != nil {
			rule.Name = *req.Name
		}
		if req.Rules != nil {
			rule.Rules = req.Rules
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}
		if req.Description != nil {
			rule.Description = req.Description
		}

		if err := ValidateRule(rule); err != nil {
			return err
		}
		engine := NewAllocationEngine(uow.Accounts, uow.Transactions)
		if err := engine.ValidateDestinations(ctx, rule); err != nil {
			return err
		}

		if err := uow.AllocationRules.Update(ctx, rule); err != nil {
			if err == repository.ErrDuplicateName {
				return apperrors.Conflict("allocation rule name is already in use")
			}
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "UPDATE_ALLOCATION_RULE",
			Actor:      req.Actor,
			TargetID:   &rule.ID,
			TargetType: strPtr("allocation_rule"),
			Details: model.JSONBMap{
				"name":   rule.Name,
				"active": rule.Active,
			},
		}); err != nil {
			return err
		}

		updated = rule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deactivates a rule rather than removing the row, preserving
// the audit trail of past allocations that reference it.
func (s *AllocationRuleService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	return s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		if _, err := uow.AllocationRules.FindByID(ctx, id); err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("allocation rule")
			}
			return apperrors.Internal("").WithError(err)
		}

		if err := uow.AllocationRules.Deactivate(ctx, id); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "DELETE_ALLOCATION_RULE",
			Actor:      actor,
			TargetID:   &id,
			TargetType: strPtr("allocation_rule"),
			Details:    model.JSONBMap{"deactivated": true},
		}); err != nil {
			return err
		}
		return nil
	})
}

// Get fetches one rule by id.
func (s *AllocationRuleService) Get(ctx context.Context, id uuid.UUID) (*model.AllocationRule, error) {
	rule, err := s.store.AllocationRules.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("allocation rule")
		}
		return nil, apperrors.Internal("").WithError(err)
	}
	return rule, nil
}

// List returns every allocation rule, newest first.
func (s *AllocationRuleService) List(ctx context.Context) ([]*model.AllocationRule, error) {
	rules, err := s.store.AllocationRules.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	return rules, nil
}

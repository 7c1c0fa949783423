package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
	"github.com/finledger/ledger-service/internal/shared/types"
)

// CreateAccountRequest is the AccountService's Create input.
type CreateAccountRequest struct {
	Name          string
	Type          model.AccountType
	Currency      string
	Metadata      model.JSONBMap
	AutoReconcile bool
	Actor         string
}

// UpdateAccountRequest is the AccountService's Update input. The account
// type is deliberately absent: it is immutable once a transaction has
// posted against the account, and allowing it here would invite silent
// sign-convention changes. Deactivate soft-deactivates the account via its
// metadata; accounts are never hard-deleted.
type UpdateAccountRequest struct {
	Name          *string
	Metadata      model.JSONBMap
	AutoReconcile *bool
	Deactivate    bool
	Actor         string
}

// AccountService manages logical accounts: creation, metadata updates,
// soft-deactivation, and the treasury status rollup.
type AccountService struct {
	store *repository.Store
}

// NewAccountService builds an AccountService bound to a Store.
func NewAccountService(store *repository.Store) *AccountService {
	return &AccountService{store: store}
}

// Create inserts a new logical account and audits the creation. Fails with
// CONFLICT when the name is already taken.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (*model.LogicalAccount, error) {
	if req.Name == "" {
		return nil, apperrors.Validation("account name is required")
	}
	if !req.Type.IsValid() {
		return nil, apperrors.Validation("unrecognised account type")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = model.JSONBMap{}
	}

	var account *model.LogicalAccount
	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		acc := &model.LogicalAccount{
			ID:            uuid.New(),
			Name:          req.Name,
			Type:          req.Type,
			Currency:      currency,
			Metadata:      metadata,
			AutoReconcile: req.AutoReconcile,
		}
		if err := uow.Accounts.Insert(ctx, acc); err != nil {
			if err == repository.ErrDuplicateName {
				return apperrors.Conflict("account name is already in use")
			}
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "CREATE_ACCOUNT",
			Actor:      req.Actor,
			TargetID:   &acc.ID,
			TargetType: strPtr("logical_account"),
			Details: model.JSONBMap{
				"name":     acc.Name,
				"type":     string(acc.Type),
				"currency": acc.Currency,
			},
		}); err != nil {
			return err
		}

		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Update applies a metadata/name/auto_reconcile patch, or soft-deactivates
// the account. Deactivation is refused with CONFLICT while any active
// allocation rule still names the account as a destination — the operator
// must deactivate the rule first.
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, req UpdateAccountRequest) (*model.LogicalAccount, error) {
	var account *model.LogicalAccount

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		acc, err := uow.Accounts.FindByID(ctx, id, true)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("logical account")
			}
			return apperrors.Internal("").WithError(err)
		}

		if req.Name != nil {
			acc.Name = *req.Name
		}
		if req.Metadata != nil {
			acc.Metadata = req.Metadata
		}
		if req.AutoReconcile != nil {
			acc.AutoReconcile = *req.AutoReconcile
		}

		if req.Deactivate {
			referencing, err := uow.AllocationRules.ListActiveReferencing(ctx, id)
			if err != nil {
				return apperrors.Internal("").WithError(err)
			}
			if len(referencing) > 0 {
				return apperrors.Conflict("account is a destination of an active allocation rule").
					WithDetails("rule_id", referencing[0].ID.String())
			}
			if acc.Metadata == nil {
				acc.Metadata = model.JSONBMap{}
			}
			acc.Metadata["active"] = false
		}

		if err := uow.Accounts.Update(ctx, acc); err != nil {
			if err == repository.ErrDuplicateName {
				return apperrors.Conflict("account name is already in use")
			}
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "UPDATE_ACCOUNT",
			Actor:      req.Actor,
			TargetID:   &acc.ID,
			TargetType: strPtr("logical_account"),
			Details: model.JSONBMap{
				"name":        acc.Name,
				"deactivated": req.Deactivate,
			},
		}); err != nil {
			return err
		}

		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Get fetches one account by id.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*model.LogicalAccount, error) {
	account, err := s.store.Accounts.FindByID(ctx, id, false)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("logical account")
		}
		return nil, apperrors.Internal("").WithError(err)
	}
	return account, nil
}

// TreasuryGroup is one account-type bucket in the treasury status rollup.
type TreasuryGroup struct {
	Accounts []*model.LogicalAccount
	Totals   map[string]types.Money
}

// TreasuryStatus is the full treasury rollup: every account grouped by
// type, with per-type and overall totals keyed by currency.
type TreasuryStatus struct {
	Groups      map[model.AccountType]*TreasuryGroup
	GrandTotals map[string]types.Money
}

// Treasury returns all accounts with their cached balances, grouped by
// account type, with totals per type and overall, keyed by currency so
// differently denominated accounts never sum together.
func (s *AccountService) Treasury(ctx context.Context) (*TreasuryStatus, error) {
	accounts, err := s.store.Accounts.List(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	status := &TreasuryStatus{
		Groups:      make(map[model.AccountType]*TreasuryGroup),
		GrandTotals: make(map[string]types.Money),
	}

	for _, acc := range accounts {
		group, ok := status.Groups[acc.Type]
		if !ok {
			group = &TreasuryGroup{Totals: make(map[string]types.Money)}
			status.Groups[acc.Type] = group
		}
		group.Accounts = append(group.Accounts, acc)

		balance := types.NewMoney(acc.Balance, acc.Currency)
		if existing, ok := group.Totals[acc.Currency]; ok {
			sum, err := existing.Add(balance)
			if err != nil {
				return nil, apperrors.Internal("").WithError(err)
			}
			group.Totals[acc.Currency] = sum
		} else {
			group.Totals[acc.Currency] = balance
		}

		if existing, ok := status.GrandTotals[acc.Currency]; ok {
			sum, err := existing.Add(balance)
			if err != nil {
				return nil, apperrors.Internal("").WithError(err)
			}
			status.GrandTotals[acc.Currency] = sum
		} else {
			status.GrandTotals[acc.Currency] = balance
		}
	}

	return status, nil
}

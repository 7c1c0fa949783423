package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
)

// quantizationPlaces is the fractional width of q in the floor-truncate
// algorithm: every destination but the last is truncated to 12 fractional
// digits, matching the numeric(30,12) column width.
const quantizationPlaces = 12

// AllocationEngine splits completed transactions across accounts: it validates a
// rule, splits a completed parent transaction into child ALLOCATION
// transactions with byte-exact arithmetic, and posts the resulting balance
// changes in the caller's unit of work.
type AllocationEngine struct {
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
}

// NewAllocationEngine builds an AllocationEngine over UnitOfWork-scoped
// repositories — Apply must always run inside the Transaction Service's
// atomic block.
func NewAllocationEngine(accounts *repository.AccountRepository, transactions *repository.TransactionRepository) *AllocationEngine {
	return &AllocationEngine{accounts: accounts, transactions: transactions}
}

// ValidateRule fails when rules is empty, any percentage falls outside
// [0, 100], or the sum of percentages drifts from 100 by more than
// model.PercentageTolerance.
func ValidateRule(rule *model.AllocationRule) error {
	if len(rule.Rules) == 0 {
		return apperrors.Validation("allocation rule must declare at least one destination")
	}

	sum := decimal.Zero
	for i, dest := range rule.Rules {
		if dest.Percentage.IsNegative() || dest.Percentage.GreaterThan(model.Hundred) {
			return apperrors.Validation("destination percentage must be between 0 and 100").
				WithDetails("index", i)
		}
		if dest.DestinationAccountID == uuid.Nil {
			return apperrors.Validation("destination account id is required").WithDetails("index", i)
		}
		sum = sum.Add(dest.Percentage)
	}

	drift := sum.Sub(model.Hundred).Abs()
	if drift.GreaterThan(model.PercentageTolerance) {
		return apperrors.Validation("destination percentages must sum to 100").
			WithDetails("sum", sum.String())
	}
	return nil
}

// ValidateDestinations fails when any destination account referenced by
// rule does not exist.
func (e *AllocationEngine) ValidateDestinations(ctx context.Context, rule *model.AllocationRule) error {
	for i, dest := range rule.Rules {
		if _, err := e.accounts.FindByID(ctx, dest.DestinationAccountID, false); err != nil {
			if err == repository.ErrNotFound {
				return apperrors.Validation("destination account does not exist").
					WithDetails("index", i).
					WithDetails("destination_account_id", dest.DestinationAccountID.String())
			}
			return apperrors.Internal("").WithError(err)
		}
	}
	return nil
}

// SplitAmount divides total across destinations per the floor-truncate
// algorithm: each slot but the last is total * pct / 100 truncated to the
// quantization width, in declared order; the last slot is assigned the
// remainder, so the returned amounts always sum to total byte-exact.
func SplitAmount(total decimal.Decimal, destinations []model.AllocationDestination) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(destinations))
	allocated := decimal.Zero

	last := len(destinations) - 1
	for i, dest := range destinations {
		if i == last {
			amounts[i] = total.Sub(allocated)
			break
		}
		amounts[i] = total.Mul(dest.Percentage).Div(model.Hundred).Truncate(quantizationPlaces)
		allocated = allocated.Add(amounts[i])
	}
	return amounts
}

// Apply splits parent into child ALLOCATION transactions per rule and posts
// the resulting balance changes. parent must already be COMPLETED and must
// not yet have any children; callers are expected to hold a row-level lock
// on parent before calling Apply, per the concurrency model. ALLOCATION and
// CORRECTION parents are rejected outright: corrections bypass the engine,
// and a child allocating further would recurse without bound.
func (e *AllocationEngine) Apply(ctx context.Context, parent *model.LedgerTransaction, rule *model.AllocationRule) ([]*model.LedgerTransaction, error) {
	if parent.Type == model.TransactionTypeAllocation || parent.Type == model.TransactionTypeCorrection {
		return nil, apperrors.Validation("transactions of this type are not eligible for allocation")
	}
	if parent.Status != model.TransactionStatusCompleted {
		return nil, apperrors.Validation("parent transaction must be completed before allocation")
	}

	existing, err := e.transactions.ChildrenOf(ctx, parent.ID)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	if len(existing) > 0 {
		return nil, apperrors.Conflict("parent transaction already has allocation children")
	}

	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	if err := e.ValidateDestinations(ctx, rule); err != nil {
		return nil, err
	}

	amounts := SplitAmount(parent.Amount, rule.Rules)

	children := make([]*model.LedgerTransaction, 0, len(rule.Rules))
	for i, dest := range rule.Rules {
		amount := amounts[i]
		destAccountID := dest.DestinationAccountID
		child := &model.LedgerTransaction{
			ID:                  uuid.New(),
			Type:                model.TransactionTypeAllocation,
			Amount:              amount,
			Currency:            parent.Currency,
			Status:              model.TransactionStatusCompleted,
			LogicalAccountID:    &destAccountID,
			ParentTransactionID: &parent.ID,
			Metadata: model.JSONBMap{
				"allocation_rule_id": rule.ID.String(),
				"percentage":         dest.Percentage.String(),
			},
		}
		children = append(children, child)
	}

	if err := e.transactions.InsertMany(ctx, children); err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	for _, child := range children {
		destination, err := e.accounts.FindByID(ctx, *child.LogicalAccountID, false)
		if err != nil {
			return nil, apperrors.Internal("").WithError(err)
		}
		delta := child.Amount.Mul(destination.Type.SignMultiplier())
		if err := e.accounts.AdjustBalance(ctx, *child.LogicalAccountID, delta); err != nil {
			return nil, apperrors.Internal("").WithError(err)
		}
	}

	return children, nil
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/repository"
)

// CreateTransactionRequest is the Transaction Service's Create input. When
// Complete is true the transaction is inserted directly in COMPLETED status
// and, if a matching active allocation rule exists, immediately split into
// children within the same unit of work.
type CreateTransactionRequest struct {
	Type             model.TransactionType
	Amount           decimal.Decimal
	Currency         string
	LogicalAccountID *uuid.UUID
	Description      *string
	ExternalTxHash   *string
	Complete         bool
	Direction        string // "DEBIT" or "CREDIT"; only meaningful for TRANSFER/CORRECTION
	Metadata         model.JSONBMap
	Actor            string
	IPAddress        *string
	UserAgent        *string
}

// UpdateTransactionRequest is the Transaction Service's Update input. Only
// Status and Metadata may change; a PENDING to COMPLETED transition runs
// the allocation step exactly as Create does.
type UpdateTransactionRequest struct {
	Status    *model.TransactionStatus
	Metadata  model.JSONBMap
	Actor     string
	IPAddress *string
	UserAgent *string
}

// TransactionService orchestrates the transactional write path. It
// orchestrates the Store, Allocation Engine, and Audit Log Writer so a
// caller observes either a fully posted transaction (parent plus any
// children, balances updated, audit row present) or nothing at all.
type TransactionService struct {
	store *repository.Store
}

// NewTransactionService builds a TransactionService bound to a Store. Every
// public method opens its own unit of work.
func NewTransactionService(store *repository.Store) *TransactionService {
	return &TransactionService{store: store}
}

// Create verifies the referenced account exists, inserts the transaction,
// and — when the request completes it and a matching active allocation
// rule exists — runs the Allocation Engine before returning.
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*model.LedgerTransaction, []*model.LedgerTransaction, error) {
	if req.Amount.IsNegative() {
		return nil, nil, apperrors.Validation("amount must be non-negative")
	}
	if !req.Type.IsValid() {
		return nil, nil, apperrors.Validation("unrecognised transaction type")
	}

	var parent *model.LedgerTransaction
	var children []*model.LedgerTransaction

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		if req.LogicalAccountID != nil {
			if _, err := uow.Accounts.FindByID(ctx, *req.LogicalAccountID, false); err != nil {
				if err == repository.ErrNotFound {
					return apperrors.NotFound("logical account")
				}
				return apperrors.Internal("").WithError(err)
			}
		}

		if req.ExternalTxHash != nil {
			if existing, err := uow.Transactions.FindByExternalTxHash(ctx, *req.ExternalTxHash); err == nil {
				parent = existing
				return nil
			} else if err != repository.ErrNotFound {
				return apperrors.Internal("").WithError(err)
			}
		}

		metadata := req.Metadata
		if metadata == nil {
			metadata = model.JSONBMap{}
		}
		if req.Direction != "" {
			metadata["direction"] = req.Direction
		}

		status := model.TransactionStatusPending
		if req.Complete {
			status = model.TransactionStatusCompleted
		}

		tx := &model.LedgerTransaction{
			ID:               uuid.New(),
			Type:             req.Type,
			Amount:           req.Amount,
			Currency:         req.Currency,
			Status:           status,
			LogicalAccountID: req.LogicalAccountID,
			ExternalTxHash:   req.ExternalTxHash,
			Description:      req.Description,
			Metadata:         metadata,
		}
		if err := uow.Transactions.Insert(ctx, tx); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		if req.Complete && req.LogicalAccountID != nil {
			if err := uow.Accounts.AdjustBalance(ctx, *req.LogicalAccountID, signedEffect(tx).Mul(accountSign(ctx, uow, *req.LogicalAccountID))); err != nil {
				return apperrors.Internal("").WithError(err)
			}
		}

		auditSvc := NewAuditService(uow.Audit)
		if _, err := auditSvc.Log(ctx, LogEntryRequest{
			Action:     "CREATE_TRANSACTION",
			Actor:      req.Actor,
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
			TargetID:   &tx.ID,
			TargetType: strPtr("ledger_transaction"),
			Details: model.JSONBMap{
				"type":   string(tx.Type),
				"amount": tx.Amount.String(),
				"status": string(tx.Status),
			},
		}); err != nil {
			return err
		}

		parent = tx

		if req.Complete {
			kids, err := s.maybeAllocate(ctx, uow, tx, req.Actor)
			if err != nil {
				return err
			}
			children = kids
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	accountID := ""
	if parent.LogicalAccountID != nil {
		accountID = parent.LogicalAccountID.String()
	}
	logger.LogTransactionCreated(ctx, parent.ID.String(), accountID, string(parent.Type), parent.Amount.String())
	return parent, children, nil
}

// accountSign looks up accountID's type within uow and returns its natural
// sign multiplier, so a completed parent's direct balance post (DEPOSIT,
// WITHDRAWAL) lands with the right sign for liability/equity/revenue
// accounts. Allocation children are adjusted separately by the Allocation
// Engine, which applies each destination account's own type sign.
func accountSign(ctx context.Context, uow *repository.UnitOfWork, accountID uuid.UUID) decimal.Decimal {
	account, err := uow.Accounts.FindByID(ctx, accountID, false)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return account.Type.SignMultiplier()
}

// maybeAllocate looks for a first active allocation rule and, if found,
// takes a row lock on parent and runs the Allocation Engine. Returns (nil,
// nil) when no active rule exists — allocation is opportunistic, not
// required, for a completed transaction.
func (s *TransactionService) maybeAllocate(ctx context.Context, uow *repository.UnitOfWork, parent *model.LedgerTransaction, actor string) ([]*model.LedgerTransaction, error) {
	// Corrections bypass the engine, and allocation children never allocate
	// further.
	if parent.Type == model.TransactionTypeAllocation || parent.Type == model.TransactionTypeCorrection {
		return nil, nil
	}

	rule, err := uow.AllocationRules.FindFirstActive(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, apperrors.Internal("").WithError(err)
	}

	locked, err := uow.Transactions.FindByID(ctx, parent.ID, true)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	engine := NewAllocationEngine(uow.Accounts, uow.Transactions)
	children, err := engine.Apply(ctx, locked, rule)
	if err != nil {
		return nil, err
	}
	logger.LogAllocationApplied(ctx, rule.ID.String(), parent.ID.String(), len(children))

	auditSvc := NewAuditService(uow.Audit)
	for _, child := range children {
		if _, err := auditSvc.Log(ctx, LogEntryRequest{
			Action:     "CREATE_TRANSACTION",
			Actor:      actor,
			TargetID:   &child.ID,
			TargetType: strPtr("ledger_transaction"),
			Details: model.JSONBMap{
				"type":                  string(child.Type),
				"amount":                child.Amount.String(),
				"parent_transaction_id": parent.ID.String(),
			},
		}); err != nil {
			return nil, err
		}
	}

	return children, nil
}

// Update applies a status/metadata patch. A PENDING to COMPLETED transition
// runs the same allocation step as Create.
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*model.LedgerTransaction, []*model.LedgerTransaction, error) {
	var tx *model.LedgerTransaction
	var children []*model.LedgerTransaction
	var fromStatus model.TransactionStatus

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		current, err := uow.Transactions.FindByID(ctx, id, true)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("ledger transaction")
			}
			return apperrors.Internal("").WithError(err)
		}

		fromStatus = current.Status

		becameCompleted := false
		if req.Status != nil {
			if !current.Status.CanTransitionTo(*req.Status) {
				return apperrors.Conflict("illegal transaction status transition")
			}
			becameCompleted = current.Status == model.TransactionStatusPending && *req.Status == model.TransactionStatusCompleted
			current.Status = *req.Status
		}
		if req.Metadata != nil {
			current.Metadata = req.Metadata
		}

		if err := uow.Transactions.Update(ctx, current); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		if becameCompleted && current.LogicalAccountID != nil {
			if err := uow.Accounts.AdjustBalance(ctx, *current.LogicalAccountID,
				signedEffect(current).Mul(accountSign(ctx, uow, *current.LogicalAccountID))); err != nil {
				return apperrors.Internal("").WithError(err)
			}
		}

		auditSvc := NewAuditService(uow.Audit)
		if _, err := auditSvc.Log(ctx, LogEntryRequest{
			Action:     "UPDATE_TRANSACTION",
			Actor:      req.Actor,
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
			TargetID:   &current.ID,
			TargetType: strPtr("ledger_transaction"),
			Details: model.JSONBMap{
				"status": string(current.Status),
			},
		}); err != nil {
			return err
		}

		tx = current

		if becameCompleted {
			kids, err := s.maybeAllocate(ctx, uow, current, req.Actor)
			if err != nil {
				return err
			}
			children = kids
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.LogTransactionUpdated(ctx, tx.ID.String(), string(fromStatus), string(tx.Status))
	return tx, children, nil
}

// List returns a page of transactions matching filter.
func (s *TransactionService) List(ctx context.Context, filter model.ListFilter) ([]*model.LedgerTransaction, int64, error) {
	txs, total, err := s.store.Transactions.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal("").WithError(err)
	}
	return txs, total, nil
}

// Get fetches one transaction by id.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*model.LedgerTransaction, error) {
	tx, err := s.store.Transactions.FindByID(ctx, id, false)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("ledger transaction")
		}
		return nil, apperrors.Internal("").WithError(err)
	}
	return tx, nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/repository"
)

// ReconciliationEpsilon is the tolerance below which a discrepancy is
// treated as a match and the log is auto-resolved.
var ReconciliationEpsilon = decimal.New(1, -6)

// ReconciliationService keeps internal balances honest against external sources: it
// compares an externally reported balance against the ledger's own
// computed balance, logs the discrepancy, and can resolve it either by
// posting a correction transaction or by manual sign-off. Every mutating
// method opens its own unit of work so the log, any resulting correction
// transaction, the balance adjustment, and the audit record commit
// together or not at all.
type ReconciliationService struct {
	store *repository.Store
}

// NewReconciliationService builds a ReconciliationService bound to a Store.
func NewReconciliationService(store *repository.Store) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// CreateLog computes the account's current internal balance, records a new
// reconciliation log comparing it to externalBalance, and auto-resolves the
// log when the discrepancy falls within ReconciliationEpsilon.
func (s *ReconciliationService) CreateLog(ctx context.Context, accountID uuid.UUID, externalBalance decimal.Decimal, currency, actor string) (*model.ReconciliationLog, error) {
	var log *model.ReconciliationLog

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		if _, err := uow.Accounts.FindByID(ctx, accountID, false); err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("logical account")
			}
			return apperrors.Internal("").WithError(err)
		}

		balances := NewBalanceCalculator(uow.Accounts, uow.Transactions)
		internal, err := balances.Balance(ctx, accountID, nil)
		if err != nil {
			return err
		}

		entry := &model.ReconciliationLog{
			ID:               uuid.New(),
			LogicalAccountID: accountID,
			ExternalBalance:  externalBalance,
			InternalBalance:  internal,
			Currency:         currency,
		}
		entry.ComputeDiscrepancy()

		if !entry.IsDiscrepant(ReconciliationEpsilon) {
			entry.MarkResolved(actor, nil, nil, time.Now().UTC())
		}

		if err := uow.Reconciliations.Insert(ctx, entry); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "CREATE_RECONCILIATION",
			Actor:      actor,
			TargetID:   &entry.ID,
			TargetType: strPtr("reconciliation_log"),
			Details: model.JSONBMap{
				"logical_account_id": accountID.String(),
				"external_balance":   externalBalance.String(),
				"internal_balance":   internal.String(),
				"discrepancy":        entry.Discrepancy.String(),
			},
		}); err != nil {
			return err
		}

		log = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if log.IsDiscrepant(ReconciliationEpsilon) {
		logger.LogReconciliationDiscrepancy(ctx, log.ID.String(), accountID.String(), log.Discrepancy.String())
	}
	return log, nil
}

// CreateCorrection posts a CORRECTION transaction that brings the
// account's computed balance to log.ExternalBalance, and marks the log
// resolved. Fails with CONFLICT if the log is already resolved or its
// discrepancy is within tolerance, and with STALE_RECONCILIATION if the
// account's balance has moved since the log was created.
func (s *ReconciliationService) CreateCorrection(
	ctx context.Context,
	logID uuid.UUID,
	approvedBy string,
	notes *string,
) (*model.LedgerTransaction, error) {
	var correction *model.LedgerTransaction

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		log, err := uow.Reconciliations.FindByID(ctx, logID)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("reconciliation log")
			}
			return apperrors.Internal("").WithError(err)
		}

		if log.Resolved {
			return apperrors.Conflict("reconciliation log is already resolved")
		}
		if !log.IsDiscrepant(ReconciliationEpsilon) {
			return apperrors.Conflict("reconciliation log has no discrepancy to correct")
		}

		account, err := uow.Accounts.FindByID(ctx, log.LogicalAccountID, true)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("logical account")
			}
			return apperrors.Internal("").WithError(err)
		}

		balances := NewBalanceCalculator(uow.Accounts, uow.Transactions)
		current, err := balances.Balance(ctx, log.LogicalAccountID, nil)
		if err != nil {
			return err
		}
		if !current.Equal(log.InternalBalance) {
			return apperrors.StaleReconciliation("")
		}

		// The transaction log records the correction's effect before the
		// account-type sign flip; the discrepancy itself is already expressed
		// in real (post-flip) balance terms, so undo the flip once here.
		naturalEffect := log.Discrepancy.Mul(account.Type.SignMultiplier())
		direction := directionDebit
		if naturalEffect.IsNegative() {
			direction = directionCredit
		}

		accountID := log.LogicalAccountID
		tx := &model.LedgerTransaction{
			ID:               uuid.New(),
			Type:             model.TransactionTypeCorrection,
			Amount:           log.Discrepancy.Abs(),
			Currency:         log.Currency,
			Status:           model.TransactionStatusCompleted,
			LogicalAccountID: &accountID,
			Metadata: model.JSONBMap{
				"reconciliation_log_id": log.ID.String(),
				"direction":             direction,
			},
		}
		if err := uow.Transactions.Insert(ctx, tx); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		if err := uow.Accounts.AdjustBalance(ctx, accountID, log.Discrepancy); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		log.MarkResolved(approvedBy, notes, &tx.ID, time.Now().UTC())
		if err := uow.Reconciliations.Update(ctx, log); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "CREATE_CORRECTION",
			Actor:      approvedBy,
			TargetID:   &tx.ID,
			TargetType: strPtr("ledger_transaction"),
			Details: model.JSONBMap{
				"reconciliation_log_id": log.ID.String(),
				"amount":                tx.Amount.String(),
				"direction":             direction,
			},
		}); err != nil {
			return err
		}

		correction = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogReconciliationResolved(ctx, logID.String(), approvedBy)
	return correction, nil
}

// ResolveManually closes an unresolved log without posting a correction,
// used when the external source is judged incorrect.
func (s *ReconciliationService) ResolveManually(ctx context.Context, logID uuid.UUID, resolvedBy string, notes *string) (*model.ReconciliationLog, error) {
	var resolved *model.ReconciliationLog

	err := s.store.Atomic(ctx, func(uow *repository.UnitOfWork) error {
		log, err := uow.Reconciliations.FindByID(ctx, logID)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperrors.NotFound("reconciliation log")
			}
			return apperrors.Internal("").WithError(err)
		}
		if log.Resolved {
			return apperrors.Conflict("reconciliation log is already resolved")
		}

		log.MarkResolved(resolvedBy, notes, nil, time.Now().UTC())
		if err := uow.Reconciliations.Update(ctx, log); err != nil {
			return apperrors.Internal("").WithError(err)
		}

		audit := NewAuditService(uow.Audit)
		if _, err := audit.Log(ctx, LogEntryRequest{
			Action:     "RESOLVE_RECONCILIATION",
			Actor:      resolvedBy,
			TargetID:   &log.ID,
			TargetType: strPtr("reconciliation_log"),
			Details: model.JSONBMap{
				"resolution_notes": notesOrEmpty(notes),
			},
		}); err != nil {
			return err
		}

		resolved = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogReconciliationResolved(ctx, logID.String(), resolvedBy)
	return resolved, nil
}

// ListUnresolved returns open reconciliation logs, optionally scoped to one
// account.
func (s *ReconciliationService) ListUnresolved(ctx context.Context, accountID *uuid.UUID, limit int) ([]*model.ReconciliationLog, error) {
	logs, err := s.store.Reconciliations.ListUnresolved(ctx, accountID, limit)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	return logs, nil
}

func strPtr(s string) *string { return &s }

func notesOrEmpty(notes *string) string {
	if notes == nil {
		return ""
	}
	return *notes
}

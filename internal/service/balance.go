package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
)

// BalanceCalculator derives an
// account's balance from its posted transaction log rather than trusting
// the cached column. The cached balance is an optimization that must be
// kept in sync by every writer, never the source of truth.
type BalanceCalculator struct {
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
}

// NewBalanceCalculator builds a BalanceCalculator over the given
// repositories. Pass Store-scoped repositories for plain reads, or
// UnitOfWork-scoped repositories to read inside an in-flight transaction
// (as the Reconciliation Service does when re-verifying staleness).
func NewBalanceCalculator(accounts *repository.AccountRepository, transactions *repository.TransactionRepository) *BalanceCalculator {
	return &BalanceCalculator{accounts: accounts, transactions: transactions}
}

// Balance computes account's internal balance as of asOf (or now, if nil)
// by summing every COMPLETED transaction posted to it: natural
// debit accounts (asset, expense) accrue deposits and allocations positive
// and withdrawals negative; natural credit accounts (liability, equity,
// revenue) have the overall sign flipped.
func (b *BalanceCalculator) Balance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	account, err := b.accounts.FindByID(ctx, accountID, false)
	if err != nil {
		if err == repository.ErrNotFound {
			return decimal.Zero, apperrors.NotFound("logical account")
		}
		return decimal.Zero, apperrors.Internal("").WithError(err)
	}

	txs, err := b.transactions.ListForAccount(ctx, accountID, asOf)
	if err != nil {
		return decimal.Zero, apperrors.Internal("").WithError(err)
	}

	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(signedEffect(tx))
	}

	return total.Mul(account.Type.SignMultiplier()), nil
}

// signedEffect returns a transaction's contribution to its account's
// natural (debit-positive) balance, before the account-type sign flip.
// DEPOSIT and ALLOCATION always credit the account; WITHDRAWAL always
// debits it. TRANSFER and CORRECTION carry no inherent sign — the writer
// records the leg's direction in metadata.direction ("DEBIT" or "CREDIT"),
// defaulting to DEBIT when absent.
func signedEffect(tx *model.LedgerTransaction) decimal.Decimal {
	switch tx.Type {
	case model.TransactionTypeWithdrawal:
		return tx.Amount.Neg()
	case model.TransactionTypeTransfer, model.TransactionTypeCorrection:
		if dir, ok := tx.Metadata["direction"].(string); ok && dir == directionCredit {
			return tx.Amount.Neg()
		}
		return tx.Amount
	default: // DEPOSIT, ALLOCATION
		return tx.Amount
	}
}

// Leg directions for TRANSFER and CORRECTION transactions, recorded in
// Metadata["direction"] since those types carry no inherent sign.
const (
	directionDebit  = "DEBIT"
	directionCredit = "CREDIT"
)

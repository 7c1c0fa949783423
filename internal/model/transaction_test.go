package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	terminal := []TransactionStatus{
		TransactionStatusCompleted,
		TransactionStatusFailed,
		TransactionStatusCancelled,
	}

	t.Run("pending may reach any terminal state", func(t *testing.T) {
		for _, next := range terminal {
			assert.True(t, TransactionStatusPending.CanTransitionTo(next),
				"PENDING -> %s should be legal", next)
		}
	})

	t.Run("terminal states are final", func(t *testing.T) {
		all := append([]TransactionStatus{TransactionStatusPending}, terminal...)
		for _, from := range terminal {
			for _, next := range all {
				assert.False(t, from.CanTransitionTo(next),
					"%s -> %s should be illegal", from, next)
			}
		}
	})

	t.Run("unknown target is rejected", func(t *testing.T) {
		assert.False(t, TransactionStatusPending.CanTransitionTo(TransactionStatus("ARCHIVED")))
	})
}

func TestTransactionType_IsValid(t *testing.T) {
	valid := []TransactionType{
		TransactionTypeDeposit,
		TransactionTypeWithdrawal,
		TransactionTypeTransfer,
		TransactionTypeAllocation,
		TransactionTypeCorrection,
	}
	for _, txType := range valid {
		assert.True(t, txType.IsValid(), "%s should be valid", txType)
	}

	assert.False(t, TransactionType("REFUND").IsValid())
	assert.False(t, TransactionType("").IsValid())
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.True(t, TransactionStatusCompleted.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusCancelled.IsTerminal())
}

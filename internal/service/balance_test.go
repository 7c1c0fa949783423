package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finledger/ledger-service/internal/model"
)

func TestSignedEffect(t *testing.T) {
	amount := decimal.RequireFromString("42.50")

	tests := []struct {
		name     string
		txType   model.TransactionType
		metadata model.JSONBMap
		expected string
	}{
		{
			name:     "deposit credits",
			txType:   model.TransactionTypeDeposit,
			expected: "42.5",
		},
		{
			name:     "allocation credits",
			txType:   model.TransactionTypeAllocation,
			expected: "42.5",
		},
		{
			name:     "withdrawal debits",
			txType:   model.TransactionTypeWithdrawal,
			expected: "-42.5",
		},
		{
			name:     "transfer defaults to debit leg",
			txType:   model.TransactionTypeTransfer,
			expected: "42.5",
		},
		{
			name:     "transfer credit leg",
			txType:   model.TransactionTypeTransfer,
			metadata: model.JSONBMap{"direction": "CREDIT"},
			expected: "-42.5",
		},
		{
			name:     "correction debit leg",
			txType:   model.TransactionTypeCorrection,
			metadata: model.JSONBMap{"direction": "DEBIT"},
			expected: "42.5",
		},
		{
			name:     "correction credit leg",
			txType:   model.TransactionTypeCorrection,
			metadata: model.JSONBMap{"direction": "CREDIT"},
			expected: "-42.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &model.LedgerTransaction{
				Type:     tt.txType,
				Amount:   amount,
				Metadata: tt.metadata,
			}
			effect := signedEffect(tx)
			assert.True(t, effect.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, effect)
		})
	}
}

func TestAccountTypeSignMultiplier(t *testing.T) {
	positive := []model.AccountType{model.AccountTypeAsset, model.AccountTypeExpense}
	negative := []model.AccountType{model.AccountTypeLiability, model.AccountTypeEquity, model.AccountTypeRevenue}

	for _, accType := range positive {
		assert.True(t, accType.SignMultiplier().Equal(decimal.NewFromInt(1)), "%s should be debit-positive", accType)
	}
	for _, accType := range negative {
		assert.True(t, accType.SignMultiplier().Equal(decimal.NewFromInt(-1)), "%s should be credit-natural", accType)
	}
}

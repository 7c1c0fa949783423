package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/ledger-service/internal/model"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "long value keeps first 4 and last 3",
			input:    "0x1234567890abcdef",
			expected: "0x12***def",
		},
		{
			name:     "short value fully masked",
			input:    "secret",
			expected: "***",
		},
		{
			name:     "boundary length fully masked",
			input:    "1234567",
			expected: "***",
		},
		{
			name:     "just over boundary",
			input:    "12345678",
			expected: "1234***678",
		},
		{
			name:     "empty value",
			input:    "",
			expected: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskValue(tt.input))
		})
	}
}

func TestObfuscate(t *testing.T) {
	details := model.JSONBMap{
		"external_tx_hash": "5KJp89mVx3qWnR7TzYd238fLpQ",
		"amount":           "100.00",
		"ip_address":       "203.0.113.42",
		"count":            3,
	}

	masked := obfuscate(details)

	assert.Equal(t, "5KJp***LpQ", masked["external_tx_hash"])
	assert.Equal(t, "100.00", masked["amount"])
	assert.Equal(t, "203.***.42", masked["ip_address"])
	assert.Equal(t, 3, masked["count"])

	// The input map is never mutated.
	assert.Equal(t, "5KJp89mVx3qWnR7TzYd238fLpQ", details["external_tx_hash"])
}

func TestComputeEntryHash_Deterministic(t *testing.T) {
	id := uuid.New()
	targetID := uuid.New()
	targetType := "ledger_transaction"

	entry := &model.AuditLog{
		ID:         id,
		Action:     "CREATE_TRANSACTION",
		Actor:      "alice",
		TargetID:   &targetID,
		TargetType: &targetType,
		Details:    model.JSONBMap{"amount": "100.00", "type": "DEPOSIT"},
	}

	first := computeEntryHash(entry)
	second := computeEntryHash(entry)
	assert.Equal(t, first, second, "hash must be stable across map iteration orders")
	assert.Len(t, first, 64)

	entry.Actor = "mallory"
	assert.NotEqual(t, first, computeEntryHash(entry))
}

func chainedEntries(t *testing.T, n int) []*model.AuditLog {
	t.Helper()

	entries := make([]*model.AuditLog, 0, n)
	prevHash := ""
	for i := 0; i < n; i++ {
		entry := &model.AuditLog{
			ID:      uuid.New(),
			Action:  "CREATE_TRANSACTION",
			Actor:   "alice",
			Details: model.JSONBMap{"seq": float64(i)},
		}
		if prevHash != "" {
			ph := prevHash
			entry.PrevHash = &ph
		}
		entry.EntryHash = computeEntryHash(entry)
		prevHash = entry.EntryHash
		entries = append(entries, entry)
	}
	return entries
}

func TestVerifyChain(t *testing.T) {
	t.Run("intact chain verifies", func(t *testing.T) {
		entries := chainedEntries(t, 5)
		assert.Nil(t, VerifyChain(entries))
	})

	t.Run("empty chain verifies", func(t *testing.T) {
		assert.Nil(t, VerifyChain(nil))
	})

	t.Run("tampered details detected", func(t *testing.T) {
		entries := chainedEntries(t, 5)
		entries[2].Details["seq"] = float64(99)

		tampered := VerifyChain(entries)
		require.NotNil(t, tampered)
		assert.Equal(t, entries[2].ID, *tampered)
	})

	t.Run("removed entry detected", func(t *testing.T) {
		entries := chainedEntries(t, 5)
		truncated := append([]*model.AuditLog{}, entries[:2]...)
		truncated = append(truncated, entries[3:]...)

		tampered := VerifyChain(truncated)
		require.NotNil(t, tampered)
		assert.Equal(t, entries[3].ID, *tampered)
	})

	t.Run("forged genesis detected", func(t *testing.T) {
		entries := chainedEntries(t, 3)
		entries[1].PrevHash = nil
		entries[1].EntryHash = computeEntryHash(entries[1])

		tampered := VerifyChain(entries)
		require.NotNil(t, tampered)
		assert.Equal(t, entries[1].ID, *tampered)
	})
}

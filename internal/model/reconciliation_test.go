package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationLog_ComputeDiscrepancy(t *testing.T) {
	log := &ReconciliationLog{
		ExternalBalance: decimal.RequireFromString("1000.00"),
		InternalBalance: decimal.RequireFromString("950.00"),
	}
	log.ComputeDiscrepancy()
	assert.True(t, log.Discrepancy.Equal(decimal.RequireFromString("50.00")))

	log.ExternalBalance = decimal.RequireFromString("900.00")
	log.ComputeDiscrepancy()
	assert.True(t, log.Discrepancy.Equal(decimal.RequireFromString("-50.00")))
}

func TestReconciliationLog_IsDiscrepant(t *testing.T) {
	tolerance := decimal.New(1, -6)

	tests := []struct {
		name        string
		discrepancy string
		expected    bool
	}{
		{"zero", "0", false},
		{"within tolerance", "0.0000005", false},
		{"at tolerance", "0.000001", false},
		{"beyond tolerance", "0.000002", true},
		{"negative beyond tolerance", "-0.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &ReconciliationLog{Discrepancy: decimal.RequireFromString(tt.discrepancy)}
			assert.Equal(t, tt.expected, log.IsDiscrepant(tolerance))
		})
	}
}

func TestReconciliationLog_MarkResolved(t *testing.T) {
	log := &ReconciliationLog{ID: uuid.New()}
	notes := "external source confirmed"
	correctionID := uuid.New()
	now := time.Now().UTC()

	log.MarkResolved("operator-1", &notes, &correctionID, now)

	assert.True(t, log.Resolved)
	require.NotNil(t, log.ResolvedAt)
	assert.Equal(t, now, *log.ResolvedAt)
	require.NotNil(t, log.ResolvedBy)
	assert.Equal(t, "operator-1", *log.ResolvedBy)
	require.NotNil(t, log.CorrectionTransactionID)
	assert.Equal(t, correctionID, *log.CorrectionTransactionID)
}

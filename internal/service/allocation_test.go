package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/ledger-service/internal/model"
)

func destinations(percentages ...string) []model.AllocationDestination {
	dests := make([]model.AllocationDestination, 0, len(percentages))
	for _, p := range percentages {
		dests = append(dests, model.AllocationDestination{
			DestinationAccountID: uuid.New(),
			Percentage:           decimal.RequireFromString(p),
		})
	}
	return dests
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name        string
		total       string
		percentages []string
		expected    []string
	}{
		{
			name:        "60/30/10 of 1000.00",
			total:       "1000.00",
			percentages: []string{"60", "30", "10"},
			expected:    []string{"600", "300", "100"},
		},
		{
			name:        "33.33/33.33/33.34 of 100.00, last slot absorbs residue",
			total:       "100.00",
			percentages: []string{"33.33", "33.33", "33.34"},
			expected:    []string{"33.33", "33.33", "33.34"},
		},
		{
			name:        "one destination takes everything",
			total:       "250.50",
			percentages: []string{"100"},
			expected:    []string{"250.50"},
		},
		{
			name:        "thirds of an indivisible amount",
			total:       "0.01",
			percentages: []string{"33.33", "33.33", "33.34"},
			expected:    []string{"0.003333", "0.003333", "0.003334"},
		},
		{
			name:        "zero-percentage slot yields zero",
			total:       "100.00",
			percentages: []string{"0", "100"},
			expected:    []string{"0", "100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			amounts := SplitAmount(total, destinations(tt.percentages...))

			require.Len(t, amounts, len(tt.expected))
			sum := decimal.Zero
			for i, amount := range amounts {
				assert.True(t, amount.Equal(decimal.RequireFromString(tt.expected[i])),
					"slot %d: expected %s, got %s", i, tt.expected[i], amount)
				sum = sum.Add(amount)
			}
			assert.True(t, sum.Equal(total), "expected sum %s, got %s", total, sum)
		})
	}
}

func TestSplitAmount_SumExactAndBounded(t *testing.T) {
	// One quantum at 12 fractional digits; each non-last slot truncates, so
	// its error against the ideal share is below q, and the last slot
	// absorbs at most (n-1) quanta of residue on top of its own share.
	quantum := decimal.New(1, -12)

	totals := []string{"1000.00", "100.00", "0.01", "999999999999.999999999999", "123456.789012345678", "7", "0.000000000001"}
	ruleSets := [][]string{
		{"60", "30", "10"},
		{"33.33", "33.33", "33.34"},
		{"50", "50"},
		{"12.5", "12.5", "25", "25", "25"},
		{"99.99", "0.01"},
		{"100"},
		{"0.01", "0.02", "99.97"},
	}

	for _, totalStr := range totals {
		total := decimal.RequireFromString(totalStr)
		for _, percentages := range ruleSets {
			dests := destinations(percentages...)
			amounts := SplitAmount(total, dests)

			sum := decimal.Zero
			for _, amount := range amounts {
				sum = sum.Add(amount)
			}
			require.True(t, sum.Equal(total),
				"total %s rule %v: sum %s drifted", totalStr, percentages, sum)

			residueBound := quantum.Mul(decimal.NewFromInt(int64(len(dests))))
			for i, amount := range amounts {
				ideal := total.Mul(dests[i].Percentage).Div(model.Hundred)
				diff := amount.Sub(ideal).Abs()
				assert.True(t, diff.LessThanOrEqual(residueBound),
					"total %s rule %v slot %d: |%s - %s| exceeds bound", totalStr, percentages, i, amount, ideal)
			}
		}
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		name        string
		percentages []string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid 60/30/10",
			percentages: []string{"60", "30", "10"},
		},
		{
			name:        "valid rounding split",
			percentages: []string{"33.33", "33.33", "33.34"},
		},
		{
			name:        "sum within tolerance low",
			percentages: []string{"49.995", "49.995"},
		},
		{
			name:        "sum within tolerance high",
			percentages: []string{"50.005", "50.005"},
		},
		{
			name:        "sum far below 100",
			percentages: []string{"50", "30"},
			wantErr:     true,
			errContains: "100",
		},
		{
			name:        "sum just outside tolerance",
			percentages: []string{"50", "50.011"},
			wantErr:     true,
			errContains: "100",
		},
		{
			name:        "sum above 100",
			percentages: []string{"60", "60"},
			wantErr:     true,
			errContains: "100",
		},
		{
			name:        "negative percentage",
			percentages: []string{"-10", "110"},
			wantErr:     true,
			errContains: "between 0 and 100",
		},
		{
			name:        "single percentage above 100",
			percentages: []string{"101"},
			wantErr:     true,
			errContains: "between 0 and 100",
		},
		{
			name:        "no destinations",
			percentages: nil,
			wantErr:     true,
			errContains: "at least one destination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &model.AllocationRule{
				ID:    uuid.New(),
				Name:  "test-rule",
				Rules: destinations(tt.percentages...),
			}

			err := ValidateRule(rule)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "VALIDATION")
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateRule_MissingDestinationAccount(t *testing.T) {
	rule := &model.AllocationRule{
		ID:   uuid.New(),
		Name: "test-rule",
		Rules: []model.AllocationDestination{
			{DestinationAccountID: uuid.Nil, Percentage: decimal.NewFromInt(100)},
		},
	}

	err := ValidateRule(rule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination account id is required")
}

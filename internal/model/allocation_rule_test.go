package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationRule_EncodeDecodeRules(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	rule := &AllocationRule{
		ID:   uuid.New(),
		Name: "operating-split",
		Rules: []AllocationDestination{
			{DestinationAccountID: ids[0], Percentage: decimal.RequireFromString("60"), Description: "operations"},
			{DestinationAccountID: ids[1], Percentage: decimal.RequireFromString("30"), Description: "development"},
			{DestinationAccountID: ids[2], Percentage: decimal.RequireFromString("10")},
		},
	}

	rule.EncodeRules()
	require.NotNil(t, rule.RulesJSON["items"])

	// Simulate the round trip through jsonb: Scan hands back generic maps.
	raw, err := rule.RulesJSON.Value()
	require.NoError(t, err)
	var reloaded JSONBMap
	require.NoError(t, reloaded.Scan(raw))

	decoded := &AllocationRule{RulesJSON: reloaded}
	require.NoError(t, decoded.DecodeRules())

	require.Len(t, decoded.Rules, 3)
	for i, dest := range decoded.Rules {
		assert.Equal(t, ids[i], dest.DestinationAccountID, "declaration order must survive the round trip")
		assert.True(t, dest.Percentage.Equal(rule.Rules[i].Percentage))
		assert.Equal(t, rule.Rules[i].Description, dest.Description)
	}
}

func TestAllocationRule_DecodeRules_Empty(t *testing.T) {
	rule := &AllocationRule{RulesJSON: JSONBMap{}}
	require.NoError(t, rule.DecodeRules())
	assert.Empty(t, rule.Rules)
}

func TestAllocationRule_DecodeRules_BadAccountID(t *testing.T) {
	rule := &AllocationRule{RulesJSON: JSONBMap{
		"items": []interface{}{
			map[string]interface{}{
				"destination_account_id": "not-a-uuid",
				"percentage":             "100",
			},
		},
	}}
	assert.Error(t, rule.DecodeRules())
}

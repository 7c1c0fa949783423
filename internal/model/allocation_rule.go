package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationDestination is one destination slot in an AllocationRule: a
// fraction of the parent amount, expressed as a percentage, routed to a
// single logical account. Order is significant — the last destination in
// declaration order absorbs the truncation residue.
type AllocationDestination struct {
	DestinationAccountID uuid.UUID       `json:"destination_account_id"`
	Percentage           decimal.Decimal `json:"percentage"`
	Description          string          `json:"description,omitempty"`
}

// AllocationRule is a named, ordered list of destination percentages that
// must sum to 100 (within a 0.01 tolerance). A rule must be `active` to be
// picked up by the Transaction Service when a parent transaction completes.
type AllocationRule struct {
	ID          uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                   `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Rules       []AllocationDestination  `gorm:"-" json:"rules"`
	RulesJSON   JSONBMap                 `gorm:"type:jsonb;not null;column:rules" json:"-"`
	Active      bool                     `gorm:"not null;default:true;index" json:"active"`
	Description *string                  `gorm:"type:text" json:"description,omitempty"`
	CreatedBy   *string                  `gorm:"type:text" json:"created_by,omitempty"`
	CreatedAt   time.Time                `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name to the original source's `allocation_rules`.
func (AllocationRule) TableName() string { return "allocation_rules" }

// PercentageTolerance is the maximum allowed absolute drift of the summed
// destination percentages from 100.
var PercentageTolerance = decimal.NewFromFloat(0.01)

// Hundred is the exact target sum for a rule's destination percentages.
var Hundred = decimal.NewFromInt(100)

// EncodeRules packs the in-memory destination slice into RulesJSON for
// persistence as a jsonb object whose "items" key holds the
// `[{destination_account_id, percentage, description}]` array.
func (r *AllocationRule) EncodeRules() {
	items := make([]interface{}, 0, len(r.Rules))
	for _, d := range r.Rules {
		items = append(items, map[string]interface{}{
			"destination_account_id": d.DestinationAccountID.String(),
			"percentage":             d.Percentage.String(),
			"description":            d.Description,
		})
	}
	r.RulesJSON = JSONBMap{"items": items}
}

// DecodeRules unpacks RulesJSON (as loaded from storage) back into Rules.
func (r *AllocationRule) DecodeRules() error {
	raw, ok := r.RulesJSON["items"]
	if !ok {
		r.Rules = nil
		return nil
	}

	list, ok := raw.([]interface{})
	if !ok {
		r.Rules = nil
		return nil
	}

	rules := make([]AllocationDestination, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		idStr, _ := m["destination_account_id"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			return err
		}

		pctStr, _ := m["percentage"].(string)
		pct, err := decimal.NewFromString(pctStr)
		if err != nil {
			return err
		}

		desc, _ := m["description"].(string)

		rules = append(rules, AllocationDestination{
			DestinationAccountID: id,
			Percentage:           pct,
			Description:          desc,
		})
	}

	r.Rules = rules
	return nil
}

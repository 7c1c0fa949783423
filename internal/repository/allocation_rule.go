package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/model"
)

// AllocationRuleRepository handles database operations for allocation rules.
type AllocationRuleRepository struct {
	db *gorm.DB
}

// NewAllocationRuleRepository creates a new allocation rule repository
// bound to db.
func NewAllocationRuleRepository(db *gorm.DB) *AllocationRuleRepository {
	return &AllocationRuleRepository{db: db}
}

// Insert creates a new allocation rule. It calls rule.EncodeRules itself so
// RulesJSON reflects rule.Rules.
func (r *AllocationRuleRepository) Insert(ctx context.Context, rule *model.AllocationRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.EncodeRules()
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// FindByID fetches one rule and decodes its destination list.
func (r *AllocationRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AllocationRule, error) {
	var rule model.AllocationRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := rule.DecodeRules(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindFirstActive returns the oldest active rule (creation order). The
// Transaction Service treats this as "the" active rule; several rules may
// be active at once, and only the oldest of them is ever returned.
func (r *AllocationRuleRepository) FindFirstActive(ctx context.Context) (*model.AllocationRule, error) {
	var rule model.AllocationRule
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("created_at ASC").First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := rule.DecodeRules(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns every allocation rule, newest first, decoding each
// destination list.
func (r *AllocationRuleRepository) List(ctx context.Context) ([]*model.AllocationRule, error) {
	var rules []*model.AllocationRule
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if err := rule.DecodeRules(); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// Update persists a rule's destinations/active flag/description. It calls
// rule.EncodeRules itself before writing.
func (r *AllocationRuleRepository) Update(ctx context.Context, rule *model.AllocationRule) error {
	rule.EncodeRules()
	rule.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&model.AllocationRule{}).Where("id = ?", rule.ID).Updates(map[string]interface{}{
		"name":        rule.Name,
		"rules":       rule.RulesJSON,
		"active":      rule.Active,
		"description": rule.Description,
		"updated_at":  rule.UpdatedAt,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateName
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate flips a rule's active flag to false; rules are soft-deleted
// so past allocations keep a resolvable reference.
func (r *AllocationRuleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.AllocationRule{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveReferencing returns every active rule that names accountID as a
// destination, used to block deactivating an account still in use by a
// live rule.
func (r *AllocationRuleRepository) ListActiveReferencing(ctx context.Context, accountID uuid.UUID) ([]*model.AllocationRule, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*model.AllocationRule
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		for _, dest := range rule.Rules {
			if dest.DestinationAccountID == accountID {
				matches = append(matches, rule)
				break
			}
		}
	}
	return matches, nil
}

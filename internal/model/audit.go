package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is a tamper-evident, append-only record of a state-changing
// action. Entries form a hash chain: EntryHash commits to the entry's own
// fields plus PrevHash, so altering or removing a historical entry breaks
// the chain for every entry after it.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string     `gorm:"type:text;not null;index" json:"action"`
	Actor      string     `gorm:"type:text;not null;index" json:"actor"`
	TargetID   *uuid.UUID `gorm:"type:uuid;index" json:"target_id,omitempty"`
	TargetType *string    `gorm:"type:text" json:"target_type,omitempty"`
	Details    JSONBMap   `gorm:"type:jsonb;not null" json:"details"`
	IPAddress  *string    `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent  *string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime;index" json:"created_at"`
	PrevHash   *string    `gorm:"type:text;column:prev_hash" json:"prev_hash,omitempty"`
	EntryHash  string     `gorm:"type:text;not null;uniqueIndex;column:entry_hash" json:"entry_hash"`
}

// TableName pins the table name to the original source's `audit_logs`.
func (AuditLog) TableName() string { return "audit_logs" }

// SensitiveDetailKeys lists Details keys the Audit Service obfuscates
// before persisting — kept here so both the writer and any future reader
// agree on what counts as sensitive.
var SensitiveDetailKeys = map[string]bool{
	"external_tx_hash": true,
	"resolution_notes": true,
	"ip_address":       true,
}

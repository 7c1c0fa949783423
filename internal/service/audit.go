package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
)

// maskValue keeps the first four and last three characters of s and
// replaces everything between with a fixed sentinel, so a reader can
// still recognize a value without recovering it in full.
func maskValue(s string) string {
	const sentinel = "***"
	if len(s) <= 7 {
		return sentinel
	}
	return s[:4] + sentinel + s[len(s)-3:]
}

// obfuscate returns a copy of details with every key in
// model.SensitiveDetailKeys masked via maskValue. Non-string values under a
// sensitive key are left alone — masking only applies to text.
func obfuscate(details model.JSONBMap) model.JSONBMap {
	masked := make(model.JSONBMap, len(details))
	for k, v := range details {
		if model.SensitiveDetailKeys[k] {
			if s, ok := v.(string); ok {
				masked[k] = maskValue(s)
				continue
			}
		}
		masked[k] = v
	}
	return masked
}

// LogEntryRequest carries everything needed to append one audit row.
type LogEntryRequest struct {
	Action     string
	Actor      string
	TargetID   *uuid.UUID
	TargetType *string
	Details    model.JSONBMap
	IPAddress  *string
	UserAgent  *string
}

// AuditService is the audit log writer: it obfuscates
// sensitive fields, links each new entry to the previous one by hash, and
// appends the result. It never updates or deletes a row.
type AuditService struct {
	audit *repository.AuditRepository
}

// NewAuditService builds an AuditService over the given repository. Pass a
// UnitOfWork-scoped repository so the audit row commits atomically with the
// business change it documents.
func NewAuditService(audit *repository.AuditRepository) *AuditService {
	return &AuditService{audit: audit}
}

// Log appends one entry to the hash chain.
func (s *AuditService) Log(ctx context.Context, req LogEntryRequest) (*model.AuditLog, error) {
	prevHash, err := s.audit.LastEntryHash(ctx)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		Action:     req.Action,
		Actor:      req.Actor,
		TargetID:   req.TargetID,
		TargetType: req.TargetType,
		Details:    obfuscate(req.Details),
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}
	if prevHash != "" {
		entry.PrevHash = &prevHash
	}
	entry.EntryHash = computeEntryHash(entry)

	if err := s.audit.Insert(ctx, entry); err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	return entry, nil
}

// computeEntryHash commits to every field of entry except EntryHash itself,
// so the chain breaks detectably if any historical row is altered.
func computeEntryHash(entry *model.AuditLog) string {
	h := sha256.New()

	if entry.PrevHash != nil {
		h.Write([]byte(*entry.PrevHash))
	}
	h.Write([]byte("|"))
	h.Write([]byte(entry.ID.String()))
	h.Write([]byte("|"))
	h.Write([]byte(entry.Action))
	h.Write([]byte("|"))
	h.Write([]byte(entry.Actor))
	h.Write([]byte("|"))
	if entry.TargetID != nil {
		h.Write([]byte(entry.TargetID.String()))
	}
	h.Write([]byte("|"))
	if entry.TargetType != nil {
		h.Write([]byte(*entry.TargetType))
	}
	h.Write([]byte("|"))
	h.Write([]byte(canonicalJSON(entry.Details)))

	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON serializes details with keys in sorted order so the hash is
// stable regardless of Go map iteration order.
func canonicalJSON(details model.JSONBMap) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		encodedKey, _ := json.Marshal(k)
		encodedVal, _ := json.Marshal(details[k])
		b.Write(encodedKey)
		b.WriteByte(':')
		b.Write(encodedVal)
	}
	b.WriteByte('}')
	return b.String()
}

// VerifyChain recomputes every entry's hash against its stored value and
// confirms each PrevHash matches its predecessor's EntryHash, returning the
// id of the first tampered entry found, or nil if the chain is intact.
func VerifyChain(entries []*model.AuditLog) *uuid.UUID {
	var prevHash string
	for _, entry := range entries {
		if entry.PrevHash == nil {
			if prevHash != "" {
				id := entry.ID
				return &id
			}
		} else if *entry.PrevHash != prevHash {
			id := entry.ID
			return &id
		}

		if computeEntryHash(entry) != entry.EntryHash {
			id := entry.ID
			return &id
		}
		prevHash = entry.EntryHash
	}
	return nil
}

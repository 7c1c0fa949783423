package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/service"
)

// systemActor is the audit actor recorded for unattended operations.
const systemActor = "system"

// handleReconcileAccount reconciles one account against the external
// balance source: fetch the external figure, then write a reconciliation
// log through the same service the API uses.
func (s *Server) handleReconcileAccount(ctx context.Context, task *asynq.Task) error {
	var payload ReconcileAccountPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w: %w", err, asynq.SkipRetry)
	}

	if s.source == nil {
		return fmt.Errorf("no external balance source configured: %w", asynq.SkipRetry)
	}

	account, err := s.store.Accounts.FindByID(ctx, payload.AccountID, false)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}

	external, err := s.source.FetchBalance(ctx, account)
	if err != nil {
		return fmt.Errorf("external balance fetch failed: %w", err)
	}

	log, err := s.reconciliations.CreateLog(ctx, account.ID, external, account.Currency, systemActor)
	if err != nil {
		return fmt.Errorf("reconciliation log failed: %w", err)
	}

	logger.Info("Swept account reconciliation", logger.Fields{
		"account_id":  account.ID.String(),
		"log_id":      log.ID.String(),
		"discrepancy": log.Discrepancy.String(),
		"resolved":    log.Resolved,
	})
	return nil
}

// handleBulkCorrection posts a correction for every unresolved discrepant
// log of the listed accounts. Each correction runs in its own unit of
// work; one stale or conflicting log does not abort the rest.
func (s *Server) handleBulkCorrection(ctx context.Context, task *asynq.Task) error {
	var payload BulkCorrectionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w: %w", err, asynq.SkipRetry)
	}

	notes := payload.Notes
	corrected, skipped := 0, 0

	for _, accountID := range payload.AccountIDs {
		id := accountID
		logs, err := s.reconciliations.ListUnresolved(ctx, &id, 0)
		if err != nil {
			return fmt.Errorf("listing unresolved logs failed: %w", err)
		}

		for _, log := range logs {
			if !log.IsDiscrepant(service.ReconciliationEpsilon) {
				continue
			}
			if _, err := s.reconciliations.CreateCorrection(ctx, log.ID, payload.ApprovedBy, &notes); err != nil {
				skipped++
				logger.Warn("Bulk correction skipped log", logger.Fields{
					"log_id": log.ID.String(),
					"reason": err.Error(),
				})
				continue
			}
			corrected++
		}
	}

	logger.Info("Bulk correction finished", logger.Fields{
		"corrected": corrected,
		"skipped":   skipped,
	})
	return nil
}

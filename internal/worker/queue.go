package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/finledger/ledger-service/internal/pkg/logger"
)

// Job type constants
const (
	TypeReconcileAccount = "reconcile:account"
	TypeBulkCorrection   = "reconcile:bulk_correction"
)

// Queue manages job queue operations
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// QueueConfig holds configuration for the job queue
type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewQueue creates a new job queue client
func NewQueue(cfg *QueueConfig) (*Queue, error) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return &Queue{
		client:    asynq.NewClient(redisOpts),
		inspector: asynq.NewInspector(redisOpts),
	}, nil
}

// Close closes the queue client
func (q *Queue) Close() error {
	return q.client.Close()
}

// ReconcileAccountPayload is the payload for a single-account
// reconciliation job, one per auto_reconcile account per sweep.
type ReconcileAccountPayload struct {
	AccountID uuid.UUID `json:"account_id"`
}

// BulkCorrectionPayload is the payload for a bulk correction job: apply a
// correction to every unresolved discrepant log of the listed accounts.
type BulkCorrectionPayload struct {
	AccountIDs []uuid.UUID `json:"account_ids"`
	ApprovedBy string      `json:"approved_by"`
	Notes      string      `json:"notes"`
}

// EnqueueReconcileAccount schedules reconciliation of one account.
func (q *Queue) EnqueueReconcileAccount(accountID uuid.UUID) error {
	payload, err := json.Marshal(ReconcileAccountPayload{AccountID: accountID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeReconcileAccount, payload)
	info, err := q.client.Enqueue(task,
		asynq.Queue("reconciliation"),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue reconcile task: %w", err)
	}

	logger.Debug("Enqueued account reconciliation", logger.Fields{
		"task_id":    info.ID,
		"account_id": accountID.String(),
	})
	return nil
}

// EnqueueBulkCorrection schedules correction of every open discrepancy
// across the given accounts.
func (q *Queue) EnqueueBulkCorrection(accountIDs []uuid.UUID, approvedBy, notes string) error {
	payload, err := json.Marshal(BulkCorrectionPayload{
		AccountIDs: accountIDs,
		ApprovedBy: approvedBy,
		Notes:      notes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeBulkCorrection, payload)
	info, err := q.client.Enqueue(task,
		asynq.Queue("reconciliation"),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue bulk correction task: %w", err)
	}

	logger.Info("Enqueued bulk correction", logger.Fields{
		"task_id":  info.ID,
		"accounts": len(accountIDs),
	})
	return nil
}

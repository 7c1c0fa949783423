package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/repository"
	"github.com/finledger/ledger-service/internal/service"
)

// Server is the background worker process: an asynq consumer for queued
// reconciliation jobs plus a cron-scheduled sweep that feeds it.
type Server struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	cron            *cron.Cron
	queue           *Queue
	store           *repository.Store
	reconciliations *service.ReconciliationService
	source          ExternalBalanceSource
	sweepSpec       string
	sweepEnabled    bool
}

// ServerConfig holds configuration for the worker server
type ServerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DB            *gorm.DB
	Source        ExternalBalanceSource
	Concurrency   int
	SweepSpec     string
	SweepEnabled  bool
}

// NewServer creates a new worker server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"reconciliation": 5,
				"default":        1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(1<<uint(n)) * time.Second
			},
			LogLevel: asynq.InfoLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task processing failed", err, logger.Fields{
					"task_type": task.Type(),
				})
			}),
		},
	)

	queue, err := NewQueue(&QueueConfig{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(cfg.DB)

	s := &Server{
		server:          srv,
		mux:             asynq.NewServeMux(),
		cron:            cron.New(),
		queue:           queue,
		store:           store,
		reconciliations: service.NewReconciliationService(store),
		source:          cfg.Source,
		sweepSpec:       cfg.SweepSpec,
		sweepEnabled:    cfg.SweepEnabled,
	}

	s.mux.HandleFunc(TypeReconcileAccount, s.handleReconcileAccount)
	s.mux.HandleFunc(TypeBulkCorrection, s.handleBulkCorrection)

	return s, nil
}

// Start launches the asynq consumer and, when enabled, the reconciliation
// sweep schedule.
func (s *Server) Start() error {
	if s.sweepEnabled {
		if _, err := s.cron.AddFunc(s.sweepSpec, s.runSweep); err != nil {
			return err
		}
		s.cron.Start()
		logger.Info("Reconciliation sweep scheduled", logger.Fields{
			"interval": s.sweepSpec,
		})
	}

	return s.server.Start(s.mux)
}

// Shutdown stops the cron schedule and drains the asynq consumer.
func (s *Server) Shutdown() {
	if s.sweepEnabled {
		<-s.cron.Stop().Done()
	}
	s.server.Shutdown()
	if err := s.queue.Close(); err != nil {
		logger.Error("Failed to close queue client", err)
	}
}

// runSweep enqueues one reconciliation job per auto_reconcile account. The
// fan-out goes through the queue rather than running inline so a slow
// external source cannot stall the schedule.
func (s *Server) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	accounts, err := s.store.Accounts.ListAutoReconcile(ctx)
	if err != nil {
		logger.Error("Sweep account listing failed", err)
		return
	}

	enqueued := 0
	for _, account := range accounts {
		if err := s.queue.EnqueueReconcileAccount(account.ID); err != nil {
			logger.Error("Sweep enqueue failed", err, logger.Fields{
				"account_id": account.ID.String(),
			})
			continue
		}
		enqueued++
	}

	logger.Info("Reconciliation sweep dispatched", logger.Fields{
		"accounts": enqueued,
	})
}

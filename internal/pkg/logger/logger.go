package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// Fields type for structured logging
type Fields map[string]interface{}

// ContextKey type for context values
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation ID
	CorrelationIDKey contextKey = "correlation_id"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

var (
	// defaultLogger is the global logger instance
	defaultLogger *Logger
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     io.Writer
	ReportCaller bool
}

// New creates a new logger instance
func New(cfg Config) *Logger {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	// Set output format
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "caller",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	// Set output
	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	} else {
		log.SetOutput(os.Stdout)
	}

	// Set caller reporting
	log.SetReportCaller(cfg.ReportCaller)

	return &Logger{Logger: log}
}

// Init initializes the default logger
func Init(cfg Config) {
	defaultLogger = New(cfg)
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		// Initialize with default config if not set
		Init(Config{
			Level:  "info",
			Format: "json",
		})
	}
	return defaultLogger
}

// WithFields creates a new logger entry with fields
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithContext creates a new logger entry with context values
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx)

	// Add correlation ID if present
	if correlationID := ctx.Value(CorrelationIDKey); correlationID != nil {
		entry = entry.WithField("correlation_id", correlationID)
	}

	// Add request ID if present
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}

	return entry
}

// WithError creates a new logger entry with error
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Helper methods for structured logging

// Debug logs a debug message
func Debug(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Debug(msg)
}

// Info logs an info message
func Info(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Info(msg)
}

// Warn logs a warning message
func Warn(msg string, fields ...Fields) {
	entry := logrus.NewEntry(GetLogger().Logger)
	if len(fields) > 0 {
		entry = GetLogger().WithFields(fields[0])
	}
	entry.Warn(msg)
}

// Error logs an error message
func Error(msg string, err error, fields ...Fields) {
	entry := GetLogger().WithError(err)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, err error, fields ...Fields) {
	entry := GetLogger().WithError(err)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Fatal(msg)
}

// WithContext logs with context
func WithContext(ctx context.Context) *logrus.Entry {
	return GetLogger().WithContext(ctx)
}

// WithFields logs with fields
func WithFields(fields Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// Security-related logging helpers

// LogAuthFailure logs authentication failures
func LogAuthFailure(ctx context.Context, reason string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event"] = "auth_failure"
	fields["reason"] = reason
	GetLogger().WithContext(ctx).WithFields(logrus.Fields(fields)).Warn("Authentication failed")
}

// LogAuthSuccess logs successful authentication
func LogAuthSuccess(ctx context.Context, userID string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event"] = "auth_success"
	fields["user_id"] = userID
	GetLogger().WithContext(ctx).WithFields(logrus.Fields(fields)).Info("Authentication successful")
}

// LogTransactionCreated logs the creation of a ledger transaction.
func LogTransactionCreated(ctx context.Context, transactionID, logicalAccountID, txType, amount string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":              "transaction_created",
		"transaction_id":     transactionID,
		"logical_account_id": logicalAccountID,
		"type":               txType,
		"amount":             amount,
	}).Info("Transaction created")
}

// LogTransactionUpdated logs a status or metadata update on an existing transaction.
func LogTransactionUpdated(ctx context.Context, transactionID, fromStatus, toStatus string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":          "transaction_updated",
		"transaction_id": transactionID,
		"from_status":    fromStatus,
		"to_status":      toStatus,
	}).Info("Transaction updated")
}

// LogAllocationApplied logs a completed allocation run against a rule.
func LogAllocationApplied(ctx context.Context, ruleID, sourceTransactionID string, destinationCount int) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":                 "allocation_applied",
		"allocation_rule_id":    ruleID,
		"source_transaction_id": sourceTransactionID,
		"destination_count":     destinationCount,
	}).Info("Allocation applied")
}

// LogAllocationSkipped logs an allocation rule that did not fire (idempotence guard, no match, etc).
func LogAllocationSkipped(ctx context.Context, ruleID, sourceTransactionID, reason string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":                 "allocation_skipped",
		"allocation_rule_id":    ruleID,
		"source_transaction_id": sourceTransactionID,
		"reason":                reason,
	}).Warn("Allocation skipped")
}

// LogReconciliationDiscrepancy logs a reconciliation log whose external and
// internal balances disagree.
func LogReconciliationDiscrepancy(ctx context.Context, logID, logicalAccountID, discrepancy string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":               "reconciliation_discrepancy",
		"reconciliation_log_id": logID,
		"logical_account_id":  logicalAccountID,
		"discrepancy":         discrepancy,
	}).Warn("Reconciliation discrepancy detected")
}

// LogReconciliationResolved logs the manual or automatic resolution of a
// reconciliation log.
func LogReconciliationResolved(ctx context.Context, logID, resolvedBy string) {
	GetLogger().WithContext(ctx).WithFields(logrus.Fields{
		"event":                  "reconciliation_resolved",
		"reconciliation_log_id":  logID,
		"resolved_by":            resolvedBy,
	}).Info("Reconciliation resolved")
}

// LogAuditChainBroken logs detection of a broken audit hash chain — the
// entry_hash recomputed from a row's fields no longer matches the stored
// value, or prev_hash does not match the preceding entry's entry_hash.
func LogAuditChainBroken(ctx context.Context, auditLogID string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event"] = "audit_chain_broken"
	fields["audit_log_id"] = auditLogID
	GetLogger().WithContext(ctx).WithFields(logrus.Fields(fields)).Error("Audit hash chain integrity check failed")
}

// SanitizeFields removes sensitive data from log fields
func SanitizeFields(fields Fields) Fields {
	sanitized := make(Fields)
	sensitiveKeys := []string{
		"password", "private_key", "secret", "token", "api_key",
		"credit_card", "ssn", "tax_id",
	}

	for k, v := range fields {
		// Check if key contains sensitive information
		isSensitive := false
		for _, sensitive := range sensitiveKeys {
			if contains(k, sensitive) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// contains checks if a string contains a substring (case-insensitive)
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

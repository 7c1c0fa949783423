package service

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/finledger/ledger-service/internal/shared/errors"

	"github.com/finledger/ledger-service/internal/model"
	"github.com/finledger/ledger-service/internal/repository"
)

// ReportService produces the on-demand XLSX ledger export: three sheets
// (Transactions, Reconciliations, Audit) over a caller-supplied window.
// Strictly read-only — it never opens a unit of work.
type ReportService struct {
	store *repository.Store
}

// NewReportService builds a ReportService bound to a Store.
func NewReportService(store *repository.Store) *ReportService {
	return &ReportService{store: store}
}

// LedgerExport builds the workbook for [from, to]. Callers own closing the
// returned file.
func (s *ReportService) LedgerExport(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	if !from.Before(to) {
		return nil, apperrors.Validation("from must precede to")
	}

	txs, err := s.store.Transactions.ListRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	recs, err := s.store.Reconciliations.ListRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	audits, err := s.store.Audit.ListRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	f := excelize.NewFile()

	if err := s.writeTransactionsSheet(f, txs); err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	if err := s.writeReconciliationsSheet(f, recs); err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}
	if err := s.writeAuditSheet(f, audits); err != nil {
		return nil, apperrors.Internal("").WithError(err)
	}

	// Drop excelize's default sheet once the real ones exist.
	f.DeleteSheet("Sheet1")
	return f, nil
}

func (s *ReportService) writeTransactionsSheet(f *excelize.File, txs []*model.LedgerTransaction) error {
	const sheet = "Transactions"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"ID", "Type", "Amount", "Currency", "Status", "Account", "Parent", "Created At"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i, tx := range txs {
		row := i + 2
		account := ""
		if tx.LogicalAccountID != nil {
			account = tx.LogicalAccountID.String()
		}
		parent := ""
		if tx.ParentTransactionID != nil {
			parent = tx.ParentTransactionID.String()
		}
		values := []interface{}{
			tx.ID.String(),
			string(tx.Type),
			tx.Amount.String(),
			tx.Currency,
			string(tx.Status),
			account,
			parent,
			tx.CreatedAt.Format(time.RFC3339),
		}
		if err := writeDataRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReportService) writeReconciliationsSheet(f *excelize.File, recs []*model.ReconciliationLog) error {
	const sheet = "Reconciliations"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"ID", "Account", "External", "Internal", "Discrepancy", "Currency", "Resolved", "Resolved By", "Correction", "Created At"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i, rec := range recs {
		row := i + 2
		resolvedBy := ""
		if rec.ResolvedBy != nil {
			resolvedBy = *rec.ResolvedBy
		}
		correction := ""
		if rec.CorrectionTransactionID != nil {
			correction = rec.CorrectionTransactionID.String()
		}
		values := []interface{}{
			rec.ID.String(),
			rec.LogicalAccountID.String(),
			rec.ExternalBalance.String(),
			rec.InternalBalance.String(),
			rec.Discrepancy.String(),
			rec.Currency,
			rec.Resolved,
			resolvedBy,
			correction,
			rec.CreatedAt.Format(time.RFC3339),
		}
		if err := writeDataRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReportService) writeAuditSheet(f *excelize.File, audits []*model.AuditLog) error {
	const sheet = "Audit"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"ID", "Action", "Actor", "Target Type", "Target ID", "Entry Hash", "Created At"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i, entry := range audits {
		row := i + 2
		targetType := ""
		if entry.TargetType != nil {
			targetType = *entry.TargetType
		}
		targetID := ""
		if entry.TargetID != nil {
			targetID = entry.TargetID.String()
		}
		values := []interface{}{
			entry.ID.String(),
			entry.Action,
			entry.Actor,
			targetType,
			targetID,
			entry.EntryHash,
			entry.CreatedAt.Format(time.RFC3339),
		}
		if err := writeDataRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

func writeDataRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/finledger/ledger-service/internal/api/dto"
	apperrors "github.com/finledger/ledger-service/internal/shared/errors"
)

// ReportService defines the interface for report generation
type ReportService interface {
	LedgerExport(ctx context.Context, from, to time.Time) (*excelize.File, error)
}

// ReportHandler handles HTTP requests for ledger exports.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// LedgerExport handles GET /api/v1/reports/ledger-export?from=&to=
// and streams an XLSX workbook with Transactions, Reconciliations, and
// Audit sheets for the window.
func (h *ReportHandler) LedgerExport(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "from must be an RFC 3339 timestamp or YYYY-MM-DD date"))
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(
			string(apperrors.ErrCodeValidation), "to must be an RFC 3339 timestamp or YYYY-MM-DD date"))
		return
	}

	file, err := h.reports.LedgerExport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("ledger-export-%s-%s.xlsx",
		from.Format("20060102"), to.Format("20060102"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := file.Write(c.Writer); err != nil {
		c.Error(err)
	}
}

// parseDateParam accepts either a full RFC 3339 timestamp or a bare date.
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

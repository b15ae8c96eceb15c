package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
	"github.com/FinTechTonic/creditnexus/internal/repository"
)

// Service is a tiny façade over the staging repository that produces XLSX
// bytes for the review log.
type Service struct {
	stagingRepo *repository.StagingRepository
	logger      *slog.Logger
}

func NewService(stagingRepo *repository.StagingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stagingRepo: stagingRepo, logger: logger}
}

// ExportReviewsXLSX returns an XLSX workbook (as bytes) of staged extractions,
// optionally filtered by review status.
func (s *Service) ExportReviewsXLSX(ctx context.Context, status *constants.ReviewStatus) ([]byte, error) {
	start := time.Now()

	rows, err := s.stagingRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("query staged extractions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Reviews"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document ID",
		"Source File",
		"Review Status",
		"Agreement Date",
		"Governing Law",
		"Borrower",
		"Facilities",
		"Reviewed By",
		"Rejection Reason",
		"Staged At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range rows {
		var ag cdm.CreditAgreement
		if err := json.Unmarshal(r.AgreementData, &ag); err != nil {
			s.logger.Warn("export.decode_agreement_failed", "doc_id", r.DocID, "error", err)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.DocID.String())
		write(2, r.SourceFilename)
		write(3, string(r.Status))
		write(4, ag.AgreementDate)
		write(5, ag.GoverningLaw)
		write(6, borrowerName(&ag))
		write(7, facilitySummary(&ag))
		write(8, r.ReviewedBy)
		write(9, truncate(r.RejectionReason, 140))
		write(10, r.CreatedAt.UTC().Format(time.RFC3339))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // document id
	_ = f.SetColWidth(sheet, "B", "B", 28) // source file
	_ = f.SetColWidth(sheet, "F", "G", 40) // borrower, facilities

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.reviews.done",
		"rows", row-2,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func borrowerName(ag *cdm.CreditAgreement) string {
	for _, p := range ag.Parties {
		if strings.Contains(strings.ToLower(p.Role), "borrower") {
			return p.Name
		}
	}
	return ""
}

func facilitySummary(ag *cdm.CreditAgreement) string {
	parts := make([]string, 0, len(ag.Facilities))
	for _, fac := range ag.Facilities {
		parts = append(parts, fmt.Sprintf("%s: %s %s (matures %s)",
			fac.FacilityName, fac.CommitmentAmount.Amount, fac.CommitmentAmount.Currency, fac.MaturityDate))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Package review keeps the audit trail of the review workflow: every staged
// extraction and the decision taken on it. Nothing here feeds dissemination;
// the bus is only ever fed by the workflow controller.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
	"github.com/FinTechTonic/creditnexus/internal/entity"
	"github.com/FinTechTonic/creditnexus/internal/repository"
)

// Service records staging and disposition events. It satisfies the workflow
// controller's Recorder dependency.
type Service struct {
	repo   *repository.StagingRepository
	logger *slog.Logger
}

func NewService(repo *repository.StagingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// StageExtraction stores a pending row for a freshly extracted document.
func (s *Service) StageExtraction(ctx context.Context, docID uuid.UUID, filename, originalText string, agreement *cdm.CreditAgreement) error {
	data, err := json.Marshal(agreement)
	if err != nil {
		return fmt.Errorf("review: encode agreement: %w", err)
	}

	e := &entity.StagedExtraction{
		DocID:          docID,
		Status:         constants.ReviewPending,
		AgreementData:  data,
		OriginalText:   originalText,
		SourceFilename: filename,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return err
	}
	s.logger.Info("review.staged", "doc_id", docID, "filename", filename)
	return nil
}

// RecordDecision marks the staged row approved or rejected.
func (s *Service) RecordDecision(ctx context.Context, docID uuid.UUID, status constants.ReviewStatus, reason, reviewedBy string) error {
	if err := s.repo.UpdateDecision(ctx, docID, status, reason, reviewedBy); err != nil {
		return err
	}
	s.logger.Info("review.decision", "doc_id", docID, "status", string(status), "reviewed_by", reviewedBy)
	return nil
}

// ListReviews returns staged extractions, optionally filtered by status.
func (s *Service) ListReviews(ctx context.Context, status *constants.ReviewStatus) ([]*entity.StagedExtraction, error) {
	return s.repo.List(ctx, status)
}

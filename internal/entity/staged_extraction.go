package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
)

// StagedExtraction is one extraction staged for review, for data transfer
// between layers. AgreementData holds the extracted agreement as JSON exactly
// as it was reviewed.
type StagedExtraction struct {
	ID              uuid.UUID              `json:"id"`
	DocID           uuid.UUID              `json:"doc_id"`
	Status          constants.ReviewStatus `json:"status"`
	AgreementData   []byte                 `json:"agreement_data"`
	OriginalText    string                 `json:"original_text,omitempty"`
	SourceFilename  string                 `json:"source_filename,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	ReviewedBy      string                 `json:"reviewed_by,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

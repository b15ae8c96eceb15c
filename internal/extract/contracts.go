package extract

import (
	"context"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
)

// Request carries one document's text to the extraction endpoint.
type Request struct {
	Text           string
	ForceMapReduce bool
}

// Result is the extraction envelope. Agreement is nil when the document was
// refused (irrelevant_document); Message carries the refusal reason.
type Result struct {
	Status    constants.ExtractionStatus `json:"status"`
	Agreement *cdm.CreditAgreement       `json:"agreement,omitempty"`
	Message   string                     `json:"message,omitempty"`
}

// Extractor is the interface the workflow depends on.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}

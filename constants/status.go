package constants

// ExtractionStatus is the canonical status tag on an extracted agreement.
type ExtractionStatus string

// Stable values (these exact strings travel on the extraction wire).
const (
	ExtractionSuccess    ExtractionStatus = "success"
	ExtractionPartial    ExtractionStatus = "partial_data_missing"
	ExtractionIrrelevant ExtractionStatus = "irrelevant_document"
	ExtractionUnset      ExtractionStatus = ""
)

// ReviewStatus is the canonical status for rows in staged_extractions.
type ReviewStatus string

// Stable values (store these exact strings in DB).
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

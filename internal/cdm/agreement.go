// Package cdm holds the FINOS CDM-shaped representation of a credit
// agreement: the internal model an extraction run produces and a review
// decision is taken against. Values are immutable once produced; a new
// extraction run supersedes, never mutates.
package cdm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/common"
)

// Money is a monetary amount with an ISO 4217 currency code. Amount stays a
// json.Number so the literal from the extraction wire survives round-trips
// without float drift.
type Money struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// Frequency is a payment or calculation frequency.
type Frequency struct {
	Period           string `json:"period"` // Day, Week, Month, Year
	PeriodMultiplier int    `json:"period_multiplier"`
}

// FloatingRateOption is the floating rate index and spread.
type FloatingRateOption struct {
	Benchmark string  `json:"benchmark"`
	SpreadBPS float64 `json:"spread_bps"`
}

// InterestRatePayout is the interest structure for one facility.
type InterestRatePayout struct {
	RateOption       FloatingRateOption `json:"rate_option"`
	PaymentFrequency Frequency          `json:"payment_frequency"`
}

// Party is a legal entity named in the agreement.
type Party struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role"` // Borrower, Lender, Administrative Agent, ...
}

// LoanFacility is a single facility within the agreement.
type LoanFacility struct {
	FacilityName     string              `json:"facility_name"`
	CommitmentAmount Money               `json:"commitment_amount"`
	InterestTerms    *InterestRatePayout `json:"interest_terms,omitempty"`
	MaturityDate     string              `json:"maturity_date"` // YYYY-MM-DD
}

// CreditAgreement is the root object for one extracted document.
type CreditAgreement struct {
	ExtractionStatus constants.ExtractionStatus `json:"extraction_status"`
	AgreementDate    string                     `json:"agreement_date,omitempty"` // YYYY-MM-DD
	Parties          []Party                    `json:"parties,omitempty"`
	Facilities       []LoanFacility             `json:"facilities,omitempty"`
	GoverningLaw     string                     `json:"governing_law,omitempty"`
}

// ParseYMD parses a DATE-semantics string to midnight UTC.
func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Validate enforces the hard domain rules. Irrelevant documents skip them:
// there is no agreement content to check.
func (a *CreditAgreement) Validate() error {
	if a.ExtractionStatus == constants.ExtractionIrrelevant {
		return nil
	}

	var agreementDate time.Time
	if a.AgreementDate != "" {
		d, err := ParseYMD(a.AgreementDate)
		if err != nil {
			return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("agreement_date %q is not YYYY-MM-DD", a.AgreementDate))
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if d.After(today) {
			return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("agreement_date %s cannot be in the future", a.AgreementDate))
		}
		agreementDate = d
	}

	var firstCurrency string
	for _, f := range a.Facilities {
		cur := strings.ToUpper(strings.TrimSpace(f.CommitmentAmount.Currency))
		if !constants.IsSupportedCurrency(cur) {
			return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("facility %q has unsupported currency %q", f.FacilityName, f.CommitmentAmount.Currency))
		}
		if firstCurrency == "" {
			firstCurrency = cur
		} else if cur != firstCurrency {
			return common.WrapError(common.ErrValidationFailed,
				fmt.Sprintf("currency mismatch: facility %q uses %s, expected %s", f.FacilityName, cur, firstCurrency))
		}

		if f.MaturityDate != "" {
			m, err := ParseYMD(f.MaturityDate)
			if err != nil {
				return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("facility %q maturity_date %q is not YYYY-MM-DD", f.FacilityName, f.MaturityDate))
			}
			if !agreementDate.IsZero() && !m.After(agreementDate) {
				return common.WrapError(common.ErrValidationFailed,
					fmt.Sprintf("maturity_date %s must be after agreement_date %s for facility %q", f.MaturityDate, a.AgreementDate, f.FacilityName))
			}
		}

		if f.InterestTerms != nil {
			if s := f.InterestTerms.RateOption.SpreadBPS; s < -10000 || s > 10000 {
				return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("facility %q spread_bps %v out of range", f.FacilityName, s))
			}
			if f.InterestTerms.PaymentFrequency.PeriodMultiplier <= 0 {
				return common.WrapError(common.ErrValidationFailed, fmt.Sprintf("facility %q period_multiplier must be greater than 0", f.FacilityName))
			}
		}
	}
	return nil
}

// Normalize applies the soft completeness rules: a success extraction missing
// core fields, or missing a Borrower party, downgrades to partial_data_missing.
// Returns the effective status; the receiver is not mutated.
func (a *CreditAgreement) Normalize() constants.ExtractionStatus {
	if a.ExtractionStatus != constants.ExtractionSuccess {
		return a.ExtractionStatus
	}
	if a.AgreementDate == "" || len(a.Parties) == 0 || len(a.Facilities) == 0 || a.GoverningLaw == "" {
		return constants.ExtractionPartial
	}
	for _, p := range a.Parties {
		if strings.Contains(strings.ToLower(p.Role), "borrower") {
			return constants.ExtractionSuccess
		}
	}
	return constants.ExtractionPartial
}

// HasAgreementContent reports whether any extracted field is populated.
func (a *CreditAgreement) HasAgreementContent() bool {
	return a.AgreementDate != "" || len(a.Parties) > 0 || len(a.Facilities) > 0 || a.GoverningLaw != ""
}

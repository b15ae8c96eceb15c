package interop

import "github.com/FinTechTonic/creditnexus/internal/cdm"

// ToWireContext maps an extracted agreement to the bus payload. Pure rename,
// array order preserved; this is the only place the wire shape is constructed,
// so it is the only place a regulatory-relevant field could be dropped.
// A nil agreement maps to nil.
func ToWireContext(a *cdm.CreditAgreement) *LoanContext {
	if a == nil {
		return nil
	}

	parties := make([]LoanParty, 0, len(a.Parties))
	for _, p := range a.Parties {
		parties = append(parties, LoanParty{Name: p.Name, Role: p.Role})
	}

	facilities := make([]LoanFacility, 0, len(a.Facilities))
	for _, f := range a.Facilities {
		facilities = append(facilities, LoanFacility{
			Name:     f.FacilityName,
			Amount:   f.CommitmentAmount.Amount,
			Currency: f.CommitmentAmount.Currency,
		})
	}

	return &LoanContext{
		Type: ContextTypeLoan,
		Loan: &LoanDetails{
			AgreementDate: a.AgreementDate,
			Parties:       parties,
			Facilities:    facilities,
		},
	}
}

package interop_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
	"github.com/FinTechTonic/creditnexus/internal/interop"
)

func TestToWireContext_Nil(t *testing.T) {
	assert.Nil(t, interop.ToWireContext(nil))
}

func TestToWireContext_PreservesFieldsAndOrder(t *testing.T) {
	agreement := &cdm.CreditAgreement{
		ExtractionStatus: constants.ExtractionSuccess,
		AgreementDate:    "2024-03-01",
		Parties: []cdm.Party{
			{ID: "p1", Name: "GLOBEX CORP", Role: "Borrower"},
			{ID: "p2", Name: "FIRST NATIONAL BANK", Role: "Lender"},
			{ID: "p3", Name: "TRUSTY AGENTS LLC", Role: "Administrative Agent"},
		},
		Facilities: []cdm.LoanFacility{
			{
				FacilityName:     "Term Loan B",
				CommitmentAmount: cdm.Money{Amount: json.Number("250000000"), Currency: "USD"},
				MaturityDate:     "2031-03-01",
			},
			{
				FacilityName:     "Revolving Credit Facility",
				CommitmentAmount: cdm.Money{Amount: json.Number("75000000.50"), Currency: "USD"},
				MaturityDate:     "2029-03-01",
			},
		},
		GoverningLaw: "English Law",
	}

	wc := interop.ToWireContext(agreement)
	require.NotNil(t, wc)
	require.NotNil(t, wc.Loan)

	assert.Equal(t, interop.ContextTypeLoan, wc.Type)
	assert.Equal(t, "2024-03-01", wc.Loan.AgreementDate)

	require.Len(t, wc.Loan.Parties, 3)
	for i, p := range agreement.Parties {
		assert.Equal(t, p.Name, wc.Loan.Parties[i].Name)
		assert.Equal(t, p.Role, wc.Loan.Parties[i].Role)
	}

	require.Len(t, wc.Loan.Facilities, 2)
	for i, f := range agreement.Facilities {
		assert.Equal(t, f.FacilityName, wc.Loan.Facilities[i].Name)
		assert.Equal(t, f.CommitmentAmount.Amount, wc.Loan.Facilities[i].Amount)
		assert.Equal(t, f.CommitmentAmount.Currency, wc.Loan.Facilities[i].Currency)
	}
}

// The exact wire shape is a compatibility contract with downstream consumers.
func TestToWireContext_WireShape(t *testing.T) {
	agreement := &cdm.CreditAgreement{
		ExtractionStatus: constants.ExtractionSuccess,
		AgreementDate:    "2023-10-15",
		Parties:          []cdm.Party{{Name: "ACME INDUSTRIES INC.", Role: "Borrower"}},
		Facilities: []cdm.LoanFacility{
			{
				FacilityName:     "Term Loan Facility",
				CommitmentAmount: cdm.Money{Amount: json.Number("500000000"), Currency: "USD"},
				MaturityDate:     "2028-10-15",
			},
		},
		GoverningLaw: "State of New York",
	}

	raw, err := json.Marshal(interop.ToWireContext(agreement))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "interop.loan",
		"loan": {
			"agreementDate": "2023-10-15",
			"parties": [{"name": "ACME INDUSTRIES INC.", "role": "Borrower"}],
			"facilities": [{"name": "Term Loan Facility", "amount": 500000000, "currency": "USD"}]
		}
	}`, string(raw))
}

func TestToWireContext_EmptyCollections(t *testing.T) {
	wc := interop.ToWireContext(&cdm.CreditAgreement{
		ExtractionStatus: constants.ExtractionPartial,
		AgreementDate:    "2024-01-01",
	})
	require.NotNil(t, wc)
	require.NotNil(t, wc.Loan)

	// Empty, not null: downstream consumers expect arrays.
	raw, err := json.Marshal(wc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parties":[]`)
	assert.Contains(t, string(raw), `"facilities":[]`)
}

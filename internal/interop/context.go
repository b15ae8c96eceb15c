// Package interop is the client-side adapter to the desktop context bus:
// capability detection, subscription lifecycle, and publishing of typed loan
// contexts. The bus itself is external and optional at runtime; when it is
// absent every operation degrades to logged no-op ("mock") behavior.
package interop

import "encoding/json"

// ContextTypeLoan is the discriminant for loan contexts on the bus. The full
// wire shape is a compatibility contract with downstream consumers; field
// names and nesting must not drift.
const ContextTypeLoan = "interop.loan"

// LoanContext is the bus-facing payload. Loan may be nil only on inbound
// contexts of unknown shape; outbound contexts always carry it.
type LoanContext struct {
	Type string       `json:"type"`
	Loan *LoanDetails `json:"loan,omitempty"`
}

// LoanDetails is the loan body of a context payload.
type LoanDetails struct {
	AgreementDate string         `json:"agreementDate"`
	Parties       []LoanParty    `json:"parties"`
	Facilities    []LoanFacility `json:"facilities"`
}

// LoanParty is one party entry on the wire.
type LoanParty struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// LoanFacility is one facility entry on the wire.
type LoanFacility struct {
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// BuildLoanContextJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// outbound loan contexts. Publish validates against it before touching the bus.
func BuildLoanContextJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type": map[string]any{"const": ContextTypeLoan},
			"loan": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"agreementDate": map[string]any{"type": "string"},
					"parties": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":                 "object",
							"additionalProperties": false,
							"properties": map[string]any{
								"name": map[string]any{"type": "string", "minLength": 1},
								"role": map[string]any{"type": "string"},
							},
							"required": []string{"name", "role"},
						},
					},
					"facilities": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":                 "object",
							"additionalProperties": false,
							"properties": map[string]any{
								"name":     map[string]any{"type": "string", "minLength": 1},
								"amount":   map[string]any{"type": "number"},
								"currency": map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
							},
							"required": []string{"name", "amount", "currency"},
						},
					},
				},
				"required": []string{"agreementDate", "parties", "facilities"},
			},
		},
		"required": []string{"type", "loan"},
	}
}

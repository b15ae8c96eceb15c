package extract

import "github.com/FinTechTonic/creditnexus/constants"

// BuildAgreementJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// agreement payload inside an extraction response. We validate locally before
// accepting a result into the workflow.
func BuildAgreementJSONSchema() map[string]any {
	datePattern := `^\d{4}-\d{2}-\d{2}$`

	money := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"amount":   map[string]any{"type": "number"},
			"currency": map[string]any{"type": "string", "enum": constants.Currencies},
		},
		"required": []string{"amount", "currency"},
	}

	party := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"id":   map[string]any{"type": "string"},
			"name": map[string]any{"type": "string", "minLength": 1},
			"role": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"name", "role"},
	}

	facility := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"facility_name":     map[string]any{"type": "string", "minLength": 1},
			"commitment_amount": money,
			"maturity_date":     map[string]any{"type": "string", "pattern": datePattern},
			"interest_terms": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"rate_option": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"benchmark":  map[string]any{"type": "string"},
							"spread_bps": map[string]any{"type": "number", "minimum": -10000.0, "maximum": 10000.0},
						},
					},
					"payment_frequency": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"period":            map[string]any{"type": "string", "enum": []string{"Day", "Week", "Month", "Year"}},
							"period_multiplier": map[string]any{"type": "integer", "minimum": 1},
						},
					},
				},
			},
		},
		"required": []string{"facility_name", "commitment_amount", "maturity_date"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"extraction_status": map[string]any{
				"type": "string",
				"enum": []string{
					string(constants.ExtractionSuccess),
					string(constants.ExtractionPartial),
					string(constants.ExtractionIrrelevant),
				},
			},
			"agreement_date": map[string]any{"type": "string", "pattern": datePattern},
			"parties":        map[string]any{"type": "array", "items": party},
			"facilities":     map[string]any{"type": "array", "items": facility},
			"governing_law":  map[string]any{"type": "string"},
		},
		"required": []string{"extraction_status"},
	}
}

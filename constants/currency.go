package constants

import "strings"

// Currencies holds the commitment currencies the extraction schema accepts.
var Currencies = []string{"USD", "EUR", "GBP", "JPY"}

// IsSupportedCurrency reports whether code is one of the accepted ISO 4217 codes.
func IsSupportedCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

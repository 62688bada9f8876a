package domain

import (
	"github.com/shopspring/decimal"
)

// Placeholder is rendered instead of a number when a value is missing or
// not meaningful (non-breaking spaces keep the dash from wrapping).
const Placeholder = " - "

// FormatAmount renders a monetary amount for display: nil shows the
// placeholder, whole numbers drop the fraction, everything else keeps two
// decimal places.
func FormatAmount(v *decimal.Decimal) string {
	if v == nil {
		return Placeholder
	}
	if v.IsZero() {
		return "0"
	}
	if v.IsInteger() {
		return v.String()
	}
	return v.StringFixed(2)
}

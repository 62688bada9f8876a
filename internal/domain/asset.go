package domain

import (
	"github.com/shopspring/decimal"
)

// Asset is a named bucket taking a percentage share of its wallet's target value.
type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Percentage   decimal.Decimal `json:"percentage"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// TargetValue returns the monetary amount the asset should hold given
// the owning wallet's target value.
func (a Asset) TargetValue(walletTarget decimal.Decimal) decimal.Decimal {
	return walletTarget.Mul(a.Percentage).Div(hundred)
}

// Balance returns target value minus current value. Positive means buy,
// negative means sell.
func (a Asset) Balance(walletTarget decimal.Decimal) decimal.Decimal {
	return a.TargetValue(walletTarget).Sub(a.CurrentValue)
}

package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Wallet is a named bucket taking a percentage share of the portfolio's
// total capital. Its assets split the wallet's target value the same way.
type Wallet struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Percentage   decimal.Decimal `json:"percentage"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Assets       []Asset         `json:"assets"`
}

// TargetValue returns the monetary amount the wallet should hold given the
// portfolio's total capital. An unset capital is treated as zero.
func (w Wallet) TargetValue(totalCapital *decimal.Decimal) decimal.Decimal {
	if totalCapital == nil {
		return decimal.Zero
	}
	return totalCapital.Mul(w.Percentage).Div(hundred)
}

// Balance returns target value minus current value.
func (w Wallet) Balance(totalCapital *decimal.Decimal) decimal.Decimal {
	return w.TargetValue(totalCapital).Sub(w.CurrentValue)
}

// AssetPercentageSum sums the percentage shares of all assets.
func (w Wallet) AssetPercentageSum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range w.Assets {
		sum = sum.Add(a.Percentage)
	}
	return sum
}

// AssetsValid reports whether the asset percentages split the wallet exactly.
// A wallet without assets is trivially valid.
func (w Wallet) AssetsValid() bool {
	if len(w.Assets) == 0 {
		return true
	}
	return w.AssetPercentageSum().Equal(hundred)
}

// AssetValueSum sums the current values of all assets.
func (w Wallet) AssetValueSum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range w.Assets {
		sum = sum.Add(a.CurrentValue)
	}
	return sum
}

// Asset returns a pointer to the asset with the given id, or nil.
func (w *Wallet) Asset(id string) *Asset {
	for i := range w.Assets {
		if w.Assets[i].ID == id {
			return &w.Assets[i]
		}
	}
	return nil
}

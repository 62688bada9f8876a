// Package validator computes the soft allocation checks: percentage sums
// that drift from 100% produce dismissible warnings, never hard errors.
package validator

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/b3ncr0w/financial-tools/internal/domain"
)

// Messages holds the locale-specific warning templates. {value} receives the
// absolute deviation with one decimal place, {wallet} the wallet name.
type Messages struct {
	WalletsExceedTotal string
	WalletsBelowTotal  string
	AssetsExceedTotal  string
	AssetsBelowTotal   string
}

// Keys identifying where an issue comes from. One portfolio-level key plus
// one key per offending wallet keeps notifications stable across recomputes.
const (
	KeyPortfolio    = "portfolio"
	keyWalletPrefix = "wallet:"
)

// Issue is a single active warning with a stable identity key.
type Issue struct {
	Key     string
	Message string
}

var hundred = decimal.NewFromInt(100)

// Check computes all active warnings for a portfolio: the wallet-percentage
// deviation at portfolio level and the asset-percentage deviation for every
// wallet holding at least one asset.
func Check(p *domain.Portfolio, msgs Messages) []Issue {
	var issues []Issue

	if len(p.Wallets) > 0 {
		if sum := p.WalletPercentageSum(); !sum.Equal(hundred) {
			tmpl := msgs.WalletsBelowTotal
			if sum.GreaterThan(hundred) {
				tmpl = msgs.WalletsExceedTotal
			}
			issues = append(issues, Issue{
				Key:     KeyPortfolio,
				Message: render(tmpl, "", sum),
			})
		}
	}

	for _, w := range p.Wallets {
		if len(w.Assets) == 0 {
			continue
		}
		sum := w.AssetPercentageSum()
		if sum.Equal(hundred) {
			continue
		}
		tmpl := msgs.AssetsBelowTotal
		if sum.GreaterThan(hundred) {
			tmpl = msgs.AssetsExceedTotal
		}
		issues = append(issues, Issue{
			Key:     keyWalletPrefix + w.ID,
			Message: render(tmpl, w.Name, sum),
		})
	}

	return issues
}

// render substitutes the placeholders. Plain string replacement only.
func render(tmpl, wallet string, sum decimal.Decimal) string {
	deviation := sum.Sub(hundred).Abs().StringFixed(1)
	out := strings.ReplaceAll(tmpl, "{value}", deviation)
	return strings.ReplaceAll(out, "{wallet}", wallet)
}

package modeler

import (
	"github.com/shopspring/decimal"

	"github.com/b3ncr0w/financial-tools/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// applyAutoSync runs one upward propagation pass over the portfolio.
// Values flow assets → wallet → capital and never back down, so a single
// pass reaches the fixed point. Writes are change-detected: a step that
// would store the value already present is skipped.
//
// preSum is the wallet-value sum before the triggering mutation; the
// capital step only fires when the sum actually moved, so edits that do
// not touch wallet values (renames, percentage tweaks) leave a manually
// preserved capital alone.
func applyAutoSync(p *domain.Portfolio, preSum decimal.Decimal) {
	if p.AutoWallet {
		for i := range p.Wallets {
			w := &p.Wallets[i]
			if len(w.Assets) == 0 {
				// manual entry retained for asset-less wallets
				continue
			}
			if sum := w.AssetValueSum(); !w.CurrentValue.Equal(sum) {
				w.CurrentValue = sum
			}
		}
	}

	if p.AutoCapital {
		sum := p.WalletValueSum()
		if !sum.Equal(preSum) && (p.TotalCapital == nil || !p.TotalCapital.Equal(sum)) {
			p.TotalCapital = &sum
		}
	}
}

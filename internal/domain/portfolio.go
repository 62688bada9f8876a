package domain

import (
	"github.com/shopspring/decimal"
)

// Portfolio is one allocation scenario: a set of wallets splitting a total
// capital figure, plus the two auto-sync flags. It is the body of a tab;
// the user-facing tab name lives in TabMeta.
type Portfolio struct {
	Wallets      []Wallet         `json:"wallets"`
	TotalCapital *decimal.Decimal `json:"totalCapital"`
	AutoCapital  bool             `json:"autoCapital"`
	AutoWallet   bool             `json:"autoWallet"`
}

// WalletPercentageSum sums the percentage shares of all wallets.
func (p Portfolio) WalletPercentageSum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range p.Wallets {
		sum = sum.Add(w.Percentage)
	}
	return sum
}

// WalletValueSum sums the current values of all wallets.
func (p Portfolio) WalletValueSum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range p.Wallets {
		sum = sum.Add(w.CurrentValue)
	}
	return sum
}

// PercentagesValid reports whether the wallet percentages split the capital
// exactly. Target values and balances are only meaningful when they do.
func (p Portfolio) PercentagesValid() bool {
	return p.WalletPercentageSum().Equal(hundred)
}

// Wallet returns a pointer to the wallet with the given id, or nil.
func (p *Portfolio) Wallet(id string) *Wallet {
	for i := range p.Wallets {
		if p.Wallets[i].ID == id {
			return &p.Wallets[i]
		}
	}
	return nil
}

package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetTemplate seeds one asset of a default wallet.
type AssetTemplate struct {
	Name         string
	Percentage   decimal.Decimal
	CurrentValue decimal.Decimal
}

// WalletTemplate seeds one default wallet with its assets.
type WalletTemplate struct {
	Name       string
	Percentage decimal.Decimal
	Assets     []AssetTemplate
}

// TabTemplate seeds a whole default portfolio tab.
type TabTemplate struct {
	Name    string
	Wallets []WalletTemplate
}

// Defaults is the caller-supplied seed for a fresh session: the default
// tabs plus the starting capital and auto-flag settings applied to each.
type Defaults struct {
	Capital     *decimal.Decimal
	AutoCapital bool
	AutoWallet  bool
	Tabs        []TabTemplate
}

// Instantiate builds a fresh asset with a generated id. Current value
// defaults to zero unless the template carries one.
func (t AssetTemplate) Instantiate() Asset {
	return Asset{
		ID:           uuid.NewString(),
		Name:         t.Name,
		Percentage:   t.Percentage,
		CurrentValue: t.CurrentValue,
	}
}

// Instantiate builds a fresh wallet with a generated id, zero current
// value and freshly instantiated assets.
func (t WalletTemplate) Instantiate() Wallet {
	assets := make([]Asset, 0, len(t.Assets))
	for _, a := range t.Assets {
		assets = append(assets, a.Instantiate())
	}
	return Wallet{
		ID:           uuid.NewString(),
		Name:         t.Name,
		Percentage:   t.Percentage,
		CurrentValue: decimal.Zero,
		Assets:       assets,
	}
}

// Instantiate builds a tab entry and its portfolio body from the template.
func (t TabTemplate) Instantiate(d Defaults) (TabMeta, *Portfolio) {
	wallets := make([]Wallet, 0, len(t.Wallets))
	for _, w := range t.Wallets {
		wallets = append(wallets, w.Instantiate())
	}
	meta := TabMeta{ID: uuid.NewString(), Name: t.Name}
	body := &Portfolio{
		Wallets:      wallets,
		TotalCapital: d.Capital,
		AutoCapital:  d.AutoCapital,
		AutoWallet:   d.AutoWallet,
	}
	return meta, body
}

// NewSession builds the initial session from the default tab templates.
// The first template becomes the active tab. Without templates the session
// starts with a single empty portfolio.
func NewSession(d Defaults) *Session {
	if len(d.Tabs) == 0 {
		d.Tabs = []TabTemplate{{Name: "Portfolio 1"}}
	}
	s := &Session{TabsData: make(map[string]*Portfolio, len(d.Tabs))}
	for _, t := range d.Tabs {
		meta, body := t.Instantiate(d)
		s.Tabs = append(s.Tabs, meta)
		s.TabsData[meta.ID] = body
	}
	s.ActiveTab = s.Tabs[0].ID
	return s
}

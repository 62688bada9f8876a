package modeler

import (
	"github.com/shopspring/decimal"

	"github.com/b3ncr0w/financial-tools/internal/domain"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
)

// AssetView is an asset with its derived figures, ready for display.
type AssetView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Percentage     decimal.Decimal  `json:"percentage"`
	CurrentValue   decimal.Decimal  `json:"currentValue"`
	TargetValue    *decimal.Decimal `json:"targetValue"`
	TargetDisplay  string           `json:"targetDisplay"`
	Balance        *decimal.Decimal `json:"balance"`
	BalanceDisplay string           `json:"balanceDisplay"`
	Signal         string           `json:"signal,omitempty"`
}

// WalletView is a wallet with its derived figures and asset views.
type WalletView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Percentage     decimal.Decimal  `json:"percentage"`
	CurrentValue   decimal.Decimal  `json:"currentValue"`
	TargetValue    *decimal.Decimal `json:"targetValue"`
	TargetDisplay  string           `json:"targetDisplay"`
	Balance        *decimal.Decimal `json:"balance"`
	BalanceDisplay string           `json:"balanceDisplay"`
	Signal         string           `json:"signal,omitempty"`
	AssetSum       decimal.Decimal  `json:"assetPercentageSum"`
	AssetsValid    bool             `json:"assetsValid"`
	Assets         []AssetView      `json:"assets"`
}

// PortfolioView is the active portfolio with everything derived.
type PortfolioView struct {
	Wallets        []WalletView     `json:"wallets"`
	TotalCapital   *decimal.Decimal `json:"totalCapital"`
	CapitalDisplay string           `json:"capitalDisplay"`
	AutoCapital    bool             `json:"autoCapital"`
	AutoWallet     bool             `json:"autoWallet"`
	PercentageSum  decimal.Decimal  `json:"walletPercentageSum"`
	Valid          bool             `json:"valid"`
}

// SessionView is the full read model served to the widget.
type SessionView struct {
	Tabs          []domain.TabMeta         `json:"tabs"`
	ActiveTab     string                   `json:"activeTab"`
	Portfolio     PortfolioView            `json:"portfolio"`
	Notifications []validator.Notification `json:"notifications"`
}

// View builds the derived read model for the active portfolio. Target
// values and balances are only populated while the wallet percentages sum
// to exactly 100; otherwise the display fields carry the placeholder dash.
func (s *Service) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.session.Active()
	valid := p.PercentagesValid()

	wallets := make([]WalletView, 0, len(p.Wallets))
	for _, w := range p.Wallets {
		wv := WalletView{
			ID:           w.ID,
			Name:         w.Name,
			Percentage:   w.Percentage,
			CurrentValue: w.CurrentValue,
			AssetSum:     w.AssetPercentageSum(),
			AssetsValid:  w.AssetsValid(),
			Assets:       make([]AssetView, 0, len(w.Assets)),
		}

		var walletTarget decimal.Decimal
		if valid {
			walletTarget = w.TargetValue(p.TotalCapital)
			balance := walletTarget.Sub(w.CurrentValue)
			fillDerived(&wv.TargetValue, &wv.TargetDisplay, &wv.Balance, &wv.BalanceDisplay, &wv.Signal, walletTarget, balance)
		} else {
			wv.TargetDisplay = domain.Placeholder
			wv.BalanceDisplay = domain.Placeholder
		}

		for _, a := range w.Assets {
			av := AssetView{
				ID:           a.ID,
				Name:         a.Name,
				Percentage:   a.Percentage,
				CurrentValue: a.CurrentValue,
			}
			if valid {
				target := a.TargetValue(walletTarget)
				balance := target.Sub(a.CurrentValue)
				fillDerived(&av.TargetValue, &av.TargetDisplay, &av.Balance, &av.BalanceDisplay, &av.Signal, target, balance)
			} else {
				av.TargetDisplay = domain.Placeholder
				av.BalanceDisplay = domain.Placeholder
			}
			wv.Assets = append(wv.Assets, av)
		}

		wallets = append(wallets, wv)
	}

	return SessionView{
		Tabs:      append([]domain.TabMeta(nil), s.session.Tabs...),
		ActiveTab: s.session.ActiveTab,
		Portfolio: PortfolioView{
			Wallets:        wallets,
			TotalCapital:   p.TotalCapital,
			CapitalDisplay: domain.FormatAmount(p.TotalCapital),
			AutoCapital:    p.AutoCapital,
			AutoWallet:     p.AutoWallet,
			PercentageSum:  p.WalletPercentageSum(),
			Valid:          valid,
		},
		Notifications: s.notifier.Active(),
	}
}

func fillDerived(target **decimal.Decimal, targetDisplay *string, balance **decimal.Decimal, balanceDisplay *string, signal *string, t, b decimal.Decimal) {
	*target = &t
	*targetDisplay = domain.FormatAmount(&t)
	*balance = &b
	*balanceDisplay = domain.FormatAmount(&b)
	if sig := domain.SignalFor(b); sig != domain.SignalNone {
		*signal = sig.String()
	}
}

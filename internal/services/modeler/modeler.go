// Package modeler owns the live modeling session: every mutation of the
// allocation tree goes through Service, which applies the change, runs one
// auto-sync pass, refreshes validation and persists the result.
package modeler

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/b3ncr0w/financial-tools/internal/domain"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
	"github.com/b3ncr0w/financial-tools/pkg/retrier"
)

var (
	// ErrLastTab is returned when removing the only remaining tab.
	ErrLastTab = errors.New("cannot remove the last remaining tab")
	// ErrAutoCapital is returned for manual capital edits while auto capital is on.
	ErrAutoCapital = errors.New("total capital is derived while auto capital is enabled")
	// ErrUnknownField is returned for an update naming a field that does not exist.
	ErrUnknownField = errors.New("unknown field")
)

// Field names an updatable entity field.
type Field string

const (
	FieldName         Field = "name"
	FieldPercentage   Field = "percentage"
	FieldCurrentValue Field = "currentValue"
)

// FieldValue carries the new value for a field update: Text for name,
// Number for percentage and current value.
type FieldValue struct {
	Text   string
	Number decimal.Decimal
}

// Labels holds the generated-name templates; {number} receives the 1-based
// position of the new entity.
type Labels struct {
	WalletName    string
	AssetName     string
	PortfolioName string
	ImportFailed  string
}

// Store persists session snapshots.
type Store interface {
	Save(*domain.Session) error
}

// Service is the single writer of the session. All operations are scoped to
// the active portfolio unless they explicitly address tabs.
type Service struct {
	mu       sync.Mutex
	session  *domain.Session
	store    Store
	retry    *retrier.Retrier
	notifier *validator.Notifier
	msgs     validator.Messages
	labels   Labels
	logger   *zap.Logger
}

// New creates a modeling service around an existing session. The store may
// be nil, in which case the session lives in memory only.
func New(session *domain.Session, store Store, notifier *validator.Notifier, msgs validator.Messages, labels Labels, logger *zap.Logger) *Service {
	s := &Service{
		session:  session,
		store:    store,
		retry:    retrier.New(),
		notifier: notifier,
		msgs:     msgs,
		labels:   labels,
		logger:   logger,
	}
	// surface warnings for the restored state right away
	s.mu.Lock()
	s.notifier.Sync(validator.Check(s.session.Active(), s.msgs))
	s.mu.Unlock()
	return s
}

// mutate applies fn to the active portfolio, then runs the auto-sync pass,
// revalidates and persists. The wallet-value sum before the change feeds the
// auto-capital change detection.
func (s *Service) mutate(fn func(p *domain.Portfolio)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.session.Active()
	preSum := p.WalletValueSum()
	fn(p)
	s.finish(p, preSum)
}

func (s *Service) finish(p *domain.Portfolio, preSum decimal.Decimal) {
	applyAutoSync(p, preSum)
	s.notifier.Sync(validator.Check(p, s.msgs))
	s.persist()
}

func (s *Service) persist() {
	if s.store == nil {
		return
	}
	err := s.retry.Do(context.Background(), func(context.Context) error {
		return s.store.Save(s.session)
	})
	if err != nil {
		s.logger.Warn("session persist failed, continuing in memory", zap.Error(err))
	}
}

// AddWallet appends a wallet with a generated name, zero percentage and
// zero current value to the active portfolio.
func (s *Service) AddWallet() {
	s.mutate(func(p *domain.Portfolio) {
		p.Wallets = append(p.Wallets, domain.Wallet{
			ID:           uuid.NewString(),
			Name:         numbered(s.labels.WalletName, len(p.Wallets)+1),
			Percentage:   decimal.Zero,
			CurrentValue: decimal.Zero,
			Assets:       []domain.Asset{},
		})
	})
}

// AddAsset appends a zero-valued asset to the given wallet. Unknown wallet
// ids are ignored.
func (s *Service) AddAsset(walletID string) {
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(walletID)
		if w == nil {
			return
		}
		w.Assets = append(w.Assets, domain.Asset{
			ID:           uuid.NewString(),
			Name:         numbered(s.labels.AssetName, len(w.Assets)+1),
			Percentage:   decimal.Zero,
			CurrentValue: decimal.Zero,
		})
	})
}

// UpdateWallet sets a single named field on a wallet. Unknown ids are a
// no-op; unknown fields are an error.
func (s *Service) UpdateWallet(id string, field Field, value FieldValue) error {
	if err := checkField(field); err != nil {
		return err
	}
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(id)
		if w == nil {
			return
		}
		switch field {
		case FieldName:
			w.Name = value.Text
		case FieldPercentage:
			w.Percentage = value.Number
		case FieldCurrentValue:
			w.CurrentValue = value.Number
		}
	})
	return nil
}

// UpdateAsset sets a single named field on an asset. Unknown ids are a
// no-op; unknown fields are an error.
func (s *Service) UpdateAsset(walletID, assetID string, field Field, value FieldValue) error {
	if err := checkField(field); err != nil {
		return err
	}
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(walletID)
		if w == nil {
			return
		}
		a := w.Asset(assetID)
		if a == nil {
			return
		}
		switch field {
		case FieldName:
			a.Name = value.Text
		case FieldPercentage:
			a.Percentage = value.Number
		case FieldCurrentValue:
			a.CurrentValue = value.Number
		}
	})
	return nil
}

// RemoveWallet deletes the wallet and all its assets.
func (s *Service) RemoveWallet(id string) {
	s.mutate(func(p *domain.Portfolio) {
		for i := range p.Wallets {
			if p.Wallets[i].ID == id {
				p.Wallets = append(p.Wallets[:i], p.Wallets[i+1:]...)
				return
			}
		}
	})
}

// RemoveAsset deletes one asset from one wallet.
func (s *Service) RemoveAsset(walletID, assetID string) {
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(walletID)
		if w == nil {
			return
		}
		for i := range w.Assets {
			if w.Assets[i].ID == assetID {
				w.Assets = append(w.Assets[:i], w.Assets[i+1:]...)
				return
			}
		}
	})
}

// DistributeRemaining assigns the wallet whatever percentage the other
// wallets leave of 100. The result may be negative; that is allowed and
// surfaces as a validation warning, never clamped.
func (s *Service) DistributeRemaining(walletID string) {
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(walletID)
		if w == nil {
			return
		}
		others := decimal.Zero
		for _, other := range p.Wallets {
			if other.ID != walletID {
				others = others.Add(other.Percentage)
			}
		}
		w.Percentage = hundred.Sub(others)
	})
}

// DistributeAsset applies the same fill-remaining rule to an asset within
// its sibling set.
func (s *Service) DistributeAsset(walletID, assetID string) {
	s.mutate(func(p *domain.Portfolio) {
		w := p.Wallet(walletID)
		if w == nil {
			return
		}
		a := w.Asset(assetID)
		if a == nil {
			return
		}
		others := decimal.Zero
		for _, other := range w.Assets {
			if other.ID != assetID {
				others = others.Add(other.Percentage)
			}
		}
		a.Percentage = hundred.Sub(others)
	})
}

// SetTotalCapital sets (or unsets, with nil) the active portfolio's capital.
// Rejected while auto capital is enabled.
func (s *Service) SetTotalCapital(v *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.session.Active()
	if p.AutoCapital {
		return ErrAutoCapital
	}
	preSum := p.WalletValueSum()
	p.TotalCapital = v
	s.finish(p, preSum)
	return nil
}

// SetAutoCapital toggles the auto-capital mode. Enabling immediately derives
// the capital from the wallet values when their sum is positive; a zero sum
// preserves the existing figure.
func (s *Service) SetAutoCapital(enabled bool) {
	s.mutate(func(p *domain.Portfolio) {
		p.AutoCapital = enabled
		if !enabled {
			return
		}
		if sum := p.WalletValueSum(); sum.IsPositive() {
			p.TotalCapital = &sum
		}
	})
}

// SetAutoWallet toggles the auto-wallet mode. The auto-sync pass applies the
// asset sums right away for every wallet that has assets.
func (s *Service) SetAutoWallet(enabled bool) {
	s.mutate(func(p *domain.Portfolio) {
		p.AutoWallet = enabled
	})
}

// AddTab creates an empty portfolio tab with a generated name and makes it
// active.
func (s *Service) AddTab() domain.TabMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := domain.TabMeta{
		ID:   uuid.NewString(),
		Name: numbered(s.labels.PortfolioName, len(s.session.Tabs)+1),
	}
	s.session.Tabs = append(s.session.Tabs, meta)
	s.session.TabsData[meta.ID] = &domain.Portfolio{Wallets: []domain.Wallet{}}
	s.session.ActiveTab = meta.ID
	s.finish(s.session.Active(), decimal.Zero)
	return meta
}

// RemoveTab deletes a tab and its portfolio. Removing the last tab is
// rejected; removing the active one activates the first remaining tab.
func (s *Service) RemoveTab(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Tab(id) == nil {
		return nil
	}
	if len(s.session.Tabs) == 1 {
		return ErrLastTab
	}
	for i := range s.session.Tabs {
		if s.session.Tabs[i].ID == id {
			s.session.Tabs = append(s.session.Tabs[:i], s.session.Tabs[i+1:]...)
			break
		}
	}
	delete(s.session.TabsData, id)
	if s.session.ActiveTab == id {
		s.session.ActiveTab = s.session.Tabs[0].ID
	}
	p := s.session.Active()
	s.finish(p, p.WalletValueSum())
	return nil
}

// RenameTab sets a tab's display name. Names are not unique.
func (s *Service) RenameTab(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := s.session.Tab(id)
	if meta == nil {
		return
	}
	meta.Name = name
	s.persist()
}

// ActivateTab switches the displayed portfolio. Unknown ids are ignored.
func (s *Service) ActivateTab(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Tab(id) == nil {
		return
	}
	s.session.ActiveTab = id
	p := s.session.Active()
	s.finish(p, p.WalletValueSum())
}

func checkField(f Field) error {
	switch f {
	case FieldName, FieldPercentage, FieldCurrentValue:
		return nil
	default:
		return errors.Wrapf(ErrUnknownField, "%q", f)
	}
}

func numbered(tmpl string, n int) string {
	return strings.ReplaceAll(tmpl, "{number}", strconv.Itoa(n))
}

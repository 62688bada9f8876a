package modeler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/b3ncr0w/financial-tools/internal/domain"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
)

var (
	testLabels = Labels{
		WalletName:    "Wallet {number}",
		AssetName:     "Asset {number}",
		PortfolioName: "Portfolio {number}",
		ImportFailed:  "Could not import {file}",
	}
	testMessages = validator.Messages{
		WalletsExceedTotal: "Total exceeds 100% by {value}%",
		WalletsBelowTotal:  "Total is below 100% by {value}%",
		AssetsExceedTotal:  "Assets in {wallet} exceed 100% by {value}%",
		AssetsBelowTotal:   "Assets in {wallet} are below 100% by {value}%",
	}
)

// recordingStore counts snapshots and keeps the last one.
type recordingStore struct {
	saves int
	last  *domain.Session
	err   error
}

func (r *recordingStore) Save(s *domain.Session) error {
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.last = s
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func emptySession() *domain.Session {
	id := uuid.NewString()
	return &domain.Session{
		Tabs:      []domain.TabMeta{{ID: id, Name: "Portfolio 1"}},
		TabsData:  map[string]*domain.Portfolio{id: {Wallets: []domain.Wallet{}}},
		ActiveTab: id,
	}
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	return New(emptySession(), store, validator.NewNotifier(), testMessages, testLabels, zap.NewNop())
}

func activeWallets(s *Service) []domain.Wallet {
	return s.session.Active().Wallets
}

func TestAddWalletGeneratesNumberedNames(t *testing.T) {
	s := newTestService(t, nil)

	s.AddWallet()
	s.AddWallet()

	wallets := activeWallets(s)
	require.Len(t, wallets, 2)
	require.Equal(t, "Wallet 1", wallets[0].Name)
	require.Equal(t, "Wallet 2", wallets[1].Name)
	require.NotEqual(t, wallets[0].ID, wallets[1].ID)
	require.True(t, wallets[0].Percentage.IsZero())
}

func TestAddAssetGeneratesNumberedNames(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID

	s.AddAsset(walletID)
	s.AddAsset(walletID)
	s.AddAsset("no-such-wallet")

	assets := activeWallets(s)[0].Assets
	require.Len(t, assets, 2)
	require.Equal(t, "Asset 1", assets[0].Name)
	require.Equal(t, "Asset 2", assets[1].Name)
}

func TestUpdateWalletFields(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	id := activeWallets(s)[0].ID

	require.NoError(t, s.UpdateWallet(id, FieldName, FieldValue{Text: "Stocks"}))
	require.NoError(t, s.UpdateWallet(id, FieldPercentage, FieldValue{Number: dec("60")}))
	require.NoError(t, s.UpdateWallet(id, FieldCurrentValue, FieldValue{Number: dec("550")}))

	w := activeWallets(s)[0]
	require.Equal(t, "Stocks", w.Name)
	require.True(t, w.Percentage.Equal(dec("60")))
	require.True(t, w.CurrentValue.Equal(dec("550")))
}

func TestUpdateWalletUnknownField(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	id := activeWallets(s)[0].ID

	err := s.UpdateWallet(id, Field("color"), FieldValue{Text: "red"})
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateWalletUnknownIDIsNoop(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()

	require.NoError(t, s.UpdateWallet("no-such-id", FieldName, FieldValue{Text: "x"}))
	require.Equal(t, "Wallet 1", activeWallets(s)[0].Name)
}

func TestUpdateAsset(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	s.AddAsset(walletID)
	assetID := activeWallets(s)[0].Assets[0].ID

	require.NoError(t, s.UpdateAsset(walletID, assetID, FieldPercentage, FieldValue{Number: dec("70")}))
	require.NoError(t, s.UpdateAsset(walletID, "missing", FieldPercentage, FieldValue{Number: dec("1")}))

	require.True(t, activeWallets(s)[0].Assets[0].Percentage.Equal(dec("70")))
}

func TestRemoveWalletAndAsset(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	s.AddAsset(walletID)
	assetID := activeWallets(s)[0].Assets[0].ID

	s.RemoveAsset(walletID, assetID)
	require.Empty(t, activeWallets(s)[0].Assets)

	s.RemoveWallet(walletID)
	wallets := activeWallets(s)
	require.Len(t, wallets, 1)
	require.Equal(t, "Wallet 2", wallets[0].Name)
}

func TestDistributeRemaining(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	s.AddWallet()
	s.AddWallet()
	wallets := activeWallets(s)
	require.NoError(t, s.UpdateWallet(wallets[0].ID, FieldPercentage, FieldValue{Number: dec("60")}))
	require.NoError(t, s.UpdateWallet(wallets[1].ID, FieldPercentage, FieldValue{Number: dec("25")}))

	s.DistributeRemaining(wallets[2].ID)

	require.True(t, activeWallets(s)[2].Percentage.Equal(dec("15")))
}

func TestDistributeRemainingCanGoNegative(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	s.AddWallet()
	wallets := activeWallets(s)
	require.NoError(t, s.UpdateWallet(wallets[0].ID, FieldPercentage, FieldValue{Number: dec("120")}))

	s.DistributeRemaining(wallets[1].ID)

	require.True(t, activeWallets(s)[1].Percentage.Equal(dec("-20")))
}

func TestDistributeAsset(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	s.AddAsset(walletID)
	s.AddAsset(walletID)
	assets := activeWallets(s)[0].Assets
	require.NoError(t, s.UpdateAsset(walletID, assets[0].ID, FieldPercentage, FieldValue{Number: dec("70")}))

	s.DistributeAsset(walletID, assets[1].ID)

	require.True(t, activeWallets(s)[0].Assets[1].Percentage.Equal(dec("30")))
}

func TestSetTotalCapitalRejectedWhileAuto(t *testing.T) {
	s := newTestService(t, nil)
	s.SetAutoCapital(true)

	err := s.SetTotalCapital(ptr(dec("1000")))
	require.ErrorIs(t, err, ErrAutoCapital)
}

func TestSetAutoCapitalDerivesFromWalletValues(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	s.AddWallet()
	wallets := activeWallets(s)
	require.NoError(t, s.UpdateWallet(wallets[0].ID, FieldCurrentValue, FieldValue{Number: dec("550")}))
	require.NoError(t, s.UpdateWallet(wallets[1].ID, FieldCurrentValue, FieldValue{Number: dec("450")}))

	s.SetAutoCapital(true)

	p := s.session.Active()
	require.NotNil(t, p.TotalCapital)
	require.True(t, p.TotalCapital.Equal(dec("1000")))
}

func TestSetAutoCapitalZeroSumPreservesCapital(t *testing.T) {
	s := newTestService(t, nil)
	require.NoError(t, s.SetTotalCapital(ptr(dec("1000"))))

	s.SetAutoCapital(true)

	p := s.session.Active()
	require.NotNil(t, p.TotalCapital)
	require.True(t, p.TotalCapital.Equal(dec("1000")))
}

func TestAutoCapitalTracksWalletValueChanges(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	require.NoError(t, s.UpdateWallet(walletID, FieldCurrentValue, FieldValue{Number: dec("600")}))
	s.SetAutoCapital(true)

	require.NoError(t, s.UpdateWallet(walletID, FieldCurrentValue, FieldValue{Number: dec("750")}))

	p := s.session.Active()
	require.True(t, p.TotalCapital.Equal(dec("750")))
}

func TestAutoCapitalIgnoresUnrelatedChanges(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	require.NoError(t, s.UpdateWallet(walletID, FieldCurrentValue, FieldValue{Number: dec("600")}))
	s.SetAutoCapital(true)

	// a rename leaves the wallet-value sum alone, so the capital stays put
	require.NoError(t, s.UpdateWallet(walletID, FieldName, FieldValue{Text: "Stocks"}))

	require.True(t, s.session.Active().TotalCapital.Equal(dec("600")))
}

func TestAutoWalletSyncsFromAssets(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	s.AddWallet()
	wallets := activeWallets(s)
	s.AddAsset(wallets[0].ID)
	assetID := activeWallets(s)[0].Assets[0].ID
	require.NoError(t, s.UpdateAsset(wallets[0].ID, assetID, FieldCurrentValue, FieldValue{Number: dec("320")}))
	require.NoError(t, s.UpdateWallet(wallets[1].ID, FieldCurrentValue, FieldValue{Number: dec("200")}))

	s.SetAutoWallet(true)

	wallets = activeWallets(s)
	// the wallet with assets follows their sum
	require.True(t, wallets[0].CurrentValue.Equal(dec("320")))
	// the asset-less wallet keeps its manual figure
	require.True(t, wallets[1].CurrentValue.Equal(dec("200")))
}

func TestAutoWalletFeedsAutoCapital(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	walletID := activeWallets(s)[0].ID
	s.AddAsset(walletID)
	assetID := activeWallets(s)[0].Assets[0].ID
	s.SetAutoWallet(true)
	s.SetAutoCapital(true)

	require.NoError(t, s.UpdateAsset(walletID, assetID, FieldCurrentValue, FieldValue{Number: dec("480")}))

	p := s.session.Active()
	require.True(t, activeWallets(s)[0].CurrentValue.Equal(dec("480")))
	require.NotNil(t, p.TotalCapital)
	require.True(t, p.TotalCapital.Equal(dec("480")))
}

func TestAddTabActivates(t *testing.T) {
	s := newTestService(t, nil)

	meta := s.AddTab()

	require.Equal(t, "Portfolio 2", meta.Name)
	require.Equal(t, meta.ID, s.session.ActiveTab)
	require.Len(t, s.session.Tabs, 2)
}

func TestRemoveTab(t *testing.T) {
	s := newTestService(t, nil)
	first := s.session.Tabs[0]
	second := s.AddTab()

	require.NoError(t, s.RemoveTab(second.ID))
	require.Equal(t, first.ID, s.session.ActiveTab)
	require.Len(t, s.session.Tabs, 1)

	require.ErrorIs(t, s.RemoveTab(first.ID), ErrLastTab)
	require.NoError(t, s.RemoveTab("no-such-tab"))
}

func TestRemoveActiveTabActivatesFirstRemaining(t *testing.T) {
	s := newTestService(t, nil)
	first := s.session.Tabs[0]
	second := s.AddTab()
	require.Equal(t, second.ID, s.session.ActiveTab)

	require.NoError(t, s.RemoveTab(second.ID))

	require.Equal(t, first.ID, s.session.ActiveTab)
	_, ok := s.session.TabsData[second.ID]
	require.False(t, ok)
}

func TestRenameTab(t *testing.T) {
	s := newTestService(t, nil)
	id := s.session.Tabs[0].ID

	s.RenameTab(id, "Retirement")
	s.RenameTab("no-such-tab", "ignored")

	require.Equal(t, "Retirement", s.session.Tabs[0].Name)
}

func TestActivateTab(t *testing.T) {
	s := newTestService(t, nil)
	first := s.session.Tabs[0]
	s.AddTab()

	s.ActivateTab(first.ID)
	require.Equal(t, first.ID, s.session.ActiveTab)

	s.ActivateTab("no-such-tab")
	require.Equal(t, first.ID, s.session.ActiveTab)
}

func TestTabsAreIsolated(t *testing.T) {
	s := newTestService(t, nil)
	s.AddWallet()
	first := s.session.Tabs[0]

	s.AddTab()
	require.Empty(t, activeWallets(s))

	s.ActivateTab(first.ID)
	require.Len(t, activeWallets(s), 1)
}

func TestMutationsPersistSnapshots(t *testing.T) {
	store := &recordingStore{}
	s := newTestService(t, store)

	s.AddWallet()
	s.AddWallet()

	require.Equal(t, 2, store.saves)
	require.NotNil(t, store.last)
	require.Len(t, store.last.Active().Wallets, 2)
}

func TestPersistFailureKeepsWorking(t *testing.T) {
	store := &recordingStore{err: errors.New("disk full")}
	s := newTestService(t, store)

	s.AddWallet()

	require.Len(t, activeWallets(s), 1)
}

func TestMutationsRefreshValidation(t *testing.T) {
	notifier := validator.NewNotifier()
	s := New(emptySession(), nil, notifier, testMessages, testLabels, zap.NewNop())

	s.AddWallet()
	id := activeWallets(s)[0].ID
	require.NoError(t, s.UpdateWallet(id, FieldPercentage, FieldValue{Number: dec("90")}))

	active := notifier.Active()
	require.Len(t, active, 1)
	require.Equal(t, "Total is below 100% by 10.0%", active[0].Message)

	require.NoError(t, s.UpdateWallet(id, FieldPercentage, FieldValue{Number: dec("100")}))
	require.Empty(t, notifier.Active())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "./wal/sessions", cfg.StateDir)
	require.Equal(t, "Wallet {number}", cfg.Labels.WalletName)
	require.Equal(t, "Total exceeds 100% by {value}%", cfg.Messages.WalletsExceedTotal)
	require.Len(t, cfg.Defaults.Tabs, 1)
	require.Equal(t, "Portfolio 1", cfg.Defaults.Tabs[0].Name)
	require.Empty(t, cfg.TLS.Domains)
}

func TestLoadYamlOverrides(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
state_dir: /var/lib/portfolio
tls:
  domains: [portfolio.example.com]
  cache_dir: /var/cache/certs
labels:
  wallet_name: "Portfel {number}"
messages:
  wallets_below_total: "Suma jest mniejsza od 100% o {value}%"
`)

	cfg := Default()
	require.NoError(t, loadYaml(path, cfg))

	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, "/var/lib/portfolio", cfg.StateDir)
	require.Equal(t, []string{"portfolio.example.com"}, cfg.TLS.Domains)
	require.Equal(t, "/var/cache/certs", cfg.TLS.CacheDir)
	require.Equal(t, "Portfel {number}", cfg.Labels.WalletName)
	require.Equal(t, "Suma jest mniejsza od 100% o {value}%", cfg.Messages.WalletsBelowTotal)
	// untouched entries keep the defaults
	require.Equal(t, "Asset {number}", cfg.Labels.AssetName)
	require.Equal(t, "Total exceeds 100% by {value}%", cfg.Messages.WalletsExceedTotal)
}

func TestLoadYamlDefaultsSection(t *testing.T) {
	path := writeConfig(t, `
defaults:
  capital: 10000
  auto_wallet: true
  tabs:
    - name: Long term
      wallets:
        - name: Stocks
          percentage: 60
          assets:
            - name: ETF
              percentage: 100
              current_value: 5500
        - name: Bonds
          percentage: 40
`)

	cfg := Default()
	require.NoError(t, loadYaml(path, cfg))

	d := cfg.Defaults
	require.NotNil(t, d.Capital)
	require.True(t, d.Capital.Equal(decimal.NewFromInt(10000)))
	require.True(t, d.AutoWallet)
	require.False(t, d.AutoCapital)
	require.Len(t, d.Tabs, 1)
	require.Equal(t, "Long term", d.Tabs[0].Name)
	require.Len(t, d.Tabs[0].Wallets, 2)
	require.True(t, d.Tabs[0].Wallets[0].Percentage.Equal(decimal.NewFromInt(60)))
	require.Len(t, d.Tabs[0].Wallets[0].Assets, 1)
	require.True(t, d.Tabs[0].Wallets[0].Assets[0].CurrentValue.Equal(decimal.NewFromInt(5500)))
}

func TestLoadYamlUnnamedTab(t *testing.T) {
	path := writeConfig(t, `
defaults:
  tabs:
    - wallets:
        - name: Stocks
          percentage: 100
`)

	err := loadYaml(path, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tab 1 has no name")
}

func TestLoadYamlMissingFile(t *testing.T) {
	err := loadYaml(filepath.Join(t.TempDir(), "nope.yaml"), Default())
	require.Error(t, err)
}

func TestLoadYamlMalformed(t *testing.T) {
	path := writeConfig(t, "listen: [broken")
	err := loadYaml(path, Default())
	require.Error(t, err)
}

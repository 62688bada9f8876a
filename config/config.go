// Package config loads the service configuration: listen address, session
// state directory, optional TLS domains and the locale pack (labels,
// warning templates and the default-tabs seed).
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/b3ncr0w/financial-tools/internal/domain"
	"github.com/b3ncr0w/financial-tools/internal/services/modeler"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
)

// Config is the resolved service configuration.
type Config struct {
	Listen   string
	StateDir string
	TLS      TLS
	Labels   modeler.Labels
	Messages validator.Messages
	Defaults domain.Defaults
	// Setup requests the interactive wizard instead of serving.
	Setup bool
}

// TLS enables automatic certificates when at least one domain is listed.
type TLS struct {
	Domains  []string
	CacheDir string
}

type configYaml struct {
	Listen   string   `yaml:"listen"`
	StateDir string   `yaml:"state_dir"`
	TLS      tlsYaml  `yaml:"tls"`
	Labels   labels   `yaml:"labels"`
	Messages messages `yaml:"messages"`
	Defaults defaults `yaml:"defaults"`
}

type tlsYaml struct {
	Domains  []string `yaml:"domains"`
	CacheDir string   `yaml:"cache_dir"`
}

type labels struct {
	WalletName    string `yaml:"wallet_name"`
	AssetName     string `yaml:"asset_name"`
	PortfolioName string `yaml:"portfolio_name"`
	ImportFailed  string `yaml:"import_failed"`
}

type messages struct {
	WalletsExceedTotal string `yaml:"wallets_exceed_total"`
	WalletsBelowTotal  string `yaml:"wallets_below_total"`
	AssetsExceedTotal  string `yaml:"assets_exceed_total"`
	AssetsBelowTotal   string `yaml:"assets_below_total"`
}

type defaults struct {
	Capital     *float64      `yaml:"capital"`
	AutoCapital bool          `yaml:"auto_capital"`
	AutoWallet  bool          `yaml:"auto_wallet"`
	Tabs        []tabTemplate `yaml:"tabs"`
}

type tabTemplate struct {
	Name    string           `yaml:"name"`
	Wallets []walletTemplate `yaml:"wallets"`
}

type walletTemplate struct {
	Name       string          `yaml:"name"`
	Percentage float64         `yaml:"percentage"`
	Assets     []assetTemplate `yaml:"assets"`
}

type assetTemplate struct {
	Name         string  `yaml:"name"`
	Percentage   float64 `yaml:"percentage"`
	CurrentValue float64 `yaml:"current_value"`
}

// Get resolves the configuration from flags and the optional yaml file.
// Flags override file values; everything else falls back to the built-in
// English locale and a single empty starter tab.
func Get() (*Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", "", "listen address, overrides config file")
	stateDir := flag.String("state-dir", "", "session WAL directory, overrides config file")
	setup := flag.Bool("setup", false, "run the interactive configuration wizard")
	flag.Parse()

	cfg := Default()
	cfg.Setup = *setup

	if *configPath != "" {
		if err := loadYaml(*configPath, cfg); err != nil {
			return nil, err
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *stateDir != "" {
		cfg.StateDir = *stateDir
	}

	return cfg, nil
}

// Default returns the built-in configuration: English labels, one empty
// starter tab, local listen address.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		StateDir: "./wal/sessions",
		Labels: modeler.Labels{
			WalletName:    "Wallet {number}",
			AssetName:     "Asset {number}",
			PortfolioName: "Portfolio {number}",
			ImportFailed:  "Could not import {file}",
		},
		Messages: validator.Messages{
			WalletsExceedTotal: "Total exceeds 100% by {value}%",
			WalletsBelowTotal:  "Total is below 100% by {value}%",
			AssetsExceedTotal:  "Assets in {wallet} exceed 100% by {value}%",
			AssetsBelowTotal:   "Assets in {wallet} are below 100% by {value}%",
		},
		Defaults: domain.Defaults{
			Tabs: []domain.TabTemplate{{Name: "Portfolio 1"}},
		},
	}
}

func loadYaml(path string, cfg *Config) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}

	var raw configYaml
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return errors.Wrap(err, "parse config file")
	}

	if raw.Listen != "" {
		cfg.Listen = raw.Listen
	}
	if raw.StateDir != "" {
		cfg.StateDir = raw.StateDir
	}
	if len(raw.TLS.Domains) > 0 {
		cfg.TLS = TLS{Domains: raw.TLS.Domains, CacheDir: raw.TLS.CacheDir}
	}

	overrideLabel(&cfg.Labels.WalletName, raw.Labels.WalletName)
	overrideLabel(&cfg.Labels.AssetName, raw.Labels.AssetName)
	overrideLabel(&cfg.Labels.PortfolioName, raw.Labels.PortfolioName)
	overrideLabel(&cfg.Labels.ImportFailed, raw.Labels.ImportFailed)
	overrideLabel(&cfg.Messages.WalletsExceedTotal, raw.Messages.WalletsExceedTotal)
	overrideLabel(&cfg.Messages.WalletsBelowTotal, raw.Messages.WalletsBelowTotal)
	overrideLabel(&cfg.Messages.AssetsExceedTotal, raw.Messages.AssetsExceedTotal)
	overrideLabel(&cfg.Messages.AssetsBelowTotal, raw.Messages.AssetsBelowTotal)

	d, err := raw.Defaults.toDomain()
	if err != nil {
		return err
	}
	if d != nil {
		cfg.Defaults = *d
	}

	return nil
}

func overrideLabel(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (d defaults) toDomain() (*domain.Defaults, error) {
	if d.Capital == nil && !d.AutoCapital && !d.AutoWallet && len(d.Tabs) == 0 {
		return nil, nil
	}

	out := &domain.Defaults{
		AutoCapital: d.AutoCapital,
		AutoWallet:  d.AutoWallet,
	}
	if d.Capital != nil {
		c := decimal.NewFromFloat(*d.Capital)
		out.Capital = &c
	}
	for ti, t := range d.Tabs {
		if t.Name == "" {
			return nil, fmt.Errorf("defaults: tab %d has no name", ti+1)
		}
		tab := domain.TabTemplate{Name: t.Name}
		for _, w := range t.Wallets {
			wt := domain.WalletTemplate{
				Name:       w.Name,
				Percentage: decimal.NewFromFloat(w.Percentage),
			}
			for _, a := range w.Assets {
				wt.Assets = append(wt.Assets, domain.AssetTemplate{
					Name:         a.Name,
					Percentage:   decimal.NewFromFloat(a.Percentage),
					CurrentValue: decimal.NewFromFloat(a.CurrentValue),
				})
			}
			tab.Wallets = append(tab.Wallets, wt)
		}
		out.Tabs = append(out.Tabs, tab)
	}
	if len(out.Tabs) == 0 {
		out.Tabs = []domain.TabTemplate{{Name: "Portfolio 1"}}
	}

	return out, nil
}

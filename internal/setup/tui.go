// Package setup runs the interactive terminal wizard that writes a starter
// configuration file for the service.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// generated file layout, mirrors config.Config's yaml schema
type generated struct {
	Listen   string            `yaml:"listen"`
	StateDir string            `yaml:"state_dir"`
	Labels   map[string]string `yaml:"labels,omitempty"`
	Messages map[string]string `yaml:"messages,omitempty"`
	Defaults struct {
		Capital *float64       `yaml:"capital,omitempty"`
		Tabs    []generatedTab `yaml:"tabs"`
	} `yaml:"defaults"`
}

type generatedTab struct {
	Name    string            `yaml:"name"`
	Wallets []generatedWallet `yaml:"wallets,omitempty"`
}

type generatedWallet struct {
	Name       string  `yaml:"name"`
	Percentage float64 `yaml:"percentage"`
}

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		listen     string
		stateDir   string
		locale     string
		capitalStr string
		seed       bool
		confirm    bool
	)

	// defaults
	listen = ":8080"
	stateDir = "./wal/sessions"
	locale = "en"
	capitalStr = "10000"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("PORTFOLIO MODELING SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("A couple of questions and the service is ready to run.\n"))

	fmt.Println(stepStyle.Render("STEP 1: SERVER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&listen),
			huh.NewInput().
				Title("Session state directory").
				Value(&stateDir),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 2: LOCALE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language of labels and warnings").
				Options(
					huh.NewOption("English", "en"),
					huh.NewOption("Polski", "pl"),
				).
				Value(&locale),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 3: DEFAULTS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Starting capital for new sessions").
				Value(&capitalStr).
				Validate(validateAmount),
			huh.NewConfirm().
				Title("Seed a classic 60/40 starter portfolio?").
				Value(&seed),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 4: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.gen.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	cfg := build(listen, stateDir, locale, capitalStr, seed)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("\nWrote " + filename))
	fmt.Println("Start the service with: financial-tools -config " + filename)
	return nil
}

func validateAmount(s string) error {
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("enter a number")
	}
	return nil
}

func build(listen, stateDir, locale, capitalStr string, seed bool) generated {
	var cfg generated
	cfg.Listen = listen
	cfg.StateDir = stateDir

	if locale == "pl" {
		cfg.Labels = map[string]string{
			"wallet_name":    "Portfel {number}",
			"asset_name":     "Aktywo {number}",
			"portfolio_name": "Portfolio {number}",
			"import_failed":  "Nie udało się zaimportować {file}",
		}
		cfg.Messages = map[string]string{
			"wallets_exceed_total": "Suma przekracza 100% o {value}%",
			"wallets_below_total":  "Do 100% brakuje {value}%",
			"assets_exceed_total":  "Aktywa w {wallet} przekraczają 100% o {value}%",
			"assets_below_total":   "Aktywom w {wallet} brakuje {value}% do 100%",
		}
	}

	if capitalStr != "" {
		if capital, err := strconv.ParseFloat(capitalStr, 64); err == nil {
			cfg.Defaults.Capital = &capital
		}
	}

	tab := generatedTab{Name: "Portfolio 1"}
	if seed {
		stocks, bonds := "Stocks", "Bonds"
		if locale == "pl" {
			stocks, bonds = "Akcje", "Obligacje"
		}
		tab.Wallets = []generatedWallet{
			{Name: stocks, Percentage: 60},
			{Name: bonds, Percentage: 40},
		}
	}
	cfg.Defaults.Tabs = []generatedTab{tab}

	return cfg
}

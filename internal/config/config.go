// Package config holds simulation settings and difficulty presets,
// loadable from YAML with compiled-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level settings file for a simulation run.
type Config struct {
	City       CitySettings   `yaml:"city"`
	Difficulty Difficulty     `yaml:"difficulty"`
	Server     ServerSettings `yaml:"server"`
}

// CitySettings selects the map a fresh city starts on.
type CitySettings struct {
	Name        string  `yaml:"name"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Seed        int64   `yaml:"seed"`
	WaterLevel  float64 `yaml:"water_level"`
	ForestLevel float64 `yaml:"forest_level"`
}

// ServerSettings configures the long-running server process.
type ServerSettings struct {
	Port           int    `yaml:"port"`
	DBPath         string `yaml:"db_path"`
	AutosaveMonths int    `yaml:"autosave_months"` // 0 disables autosave
}

// Difficulty carries the knobs that scale the simulation's harshness.
type Difficulty struct {
	Name                 string  `yaml:"name"`
	StartingFunds        int64   `yaml:"starting_funds"`
	TaxMultiplier        float64 `yaml:"tax_multiplier"`        // Scales the effective tax rate
	NeutralTaxRate       float64 `yaml:"neutral_tax_rate"`      // Effective rate with zero demand penalty
	IndustrialMultiplier float64 `yaml:"industrial_multiplier"` // Scales industrial demand
	DisasterChance       float64 `yaml:"disaster_chance"`       // Per-tick random disaster probability
	DisastersEnabled     bool    `yaml:"disasters_enabled"`
	MeltdownsEnabled     bool    `yaml:"meltdowns_enabled"`
}

// EffectiveTaxRate converts a nominal tax rate to the rate the populace
// actually experiences at this difficulty.
func (d Difficulty) EffectiveTaxRate(rate int) float64 {
	return float64(rate) * d.TaxMultiplier
}

// Easy returns the forgiving preset.
func Easy() Difficulty {
	return Difficulty{
		Name:                 "easy",
		StartingFunds:        20000,
		TaxMultiplier:        0.8,
		NeutralTaxRate:       7,
		IndustrialMultiplier: 1.2,
		DisasterChance:       0.001,
		DisastersEnabled:     true,
		MeltdownsEnabled:     false,
	}
}

// Normal returns the baseline preset.
func Normal() Difficulty {
	return Difficulty{
		Name:                 "normal",
		StartingFunds:        10000,
		TaxMultiplier:        1.0,
		NeutralTaxRate:       7,
		IndustrialMultiplier: 1.0,
		DisasterChance:       0.002,
		DisastersEnabled:     true,
		MeltdownsEnabled:     true,
	}
}

// Hard returns the punishing preset.
func Hard() Difficulty {
	return Difficulty{
		Name:                 "hard",
		StartingFunds:        5000,
		TaxMultiplier:        1.2,
		NeutralTaxRate:       7,
		IndustrialMultiplier: 0.85,
		DisasterChance:       0.004,
		DisastersEnabled:     true,
		MeltdownsEnabled:     true,
	}
}

// DifficultyByName looks up a preset, falling back to normal.
func DifficultyByName(name string) Difficulty {
	switch name {
	case "easy":
		return Easy()
	case "hard":
		return Hard()
	default:
		return Normal()
	}
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		City: CitySettings{
			Name:        "New Haven",
			Width:       128,
			Height:      128,
			Seed:        0,
			WaterLevel:  0.30,
			ForestLevel: 0.62,
		},
		Difficulty: Normal(),
		Server: ServerSettings{
			Port:           8080,
			DBPath:         "data/simville.db",
			AutosaveMonths: 12,
		},
	}
}

// Load reads a YAML config file over the defaults, so a partial file
// only overrides what it mentions.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

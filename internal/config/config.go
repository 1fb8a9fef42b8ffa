package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source    string    `yaml:"source"`
	CSV       CSVPaths  `yaml:"csv"`
	Databases Databases `yaml:"databases"`
	Analysis  Analysis  `yaml:"analysis"`
	Output    Output    `yaml:"output"`
}

type CSVPaths struct {
	Users    string `yaml:"users"`
	Events   string `yaml:"events"`
	Payments string `yaml:"payments"`
}

type Databases struct {
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
	Mongo    Mongo  `yaml:"mongo"`
}

type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Analysis struct {
	RetentionWeeks    int      `yaml:"retention_weeks"`
	UpgradeWindowDays int      `yaml:"upgrade_window_days"`
	SessionGapMinutes int      `yaml:"session_gap_minutes"`
	HighIntentEvents  []string `yaml:"high_intent_events"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Source: "csv",
		CSV: CSVPaths{
			Users:    "data/raw/users.csv",
			Events:   "data/raw/events.csv",
			Payments: "data/raw/payments.csv",
		},
		Databases: Databases{
			Mongo: Mongo{Database: "analytics"},
		},
		Analysis: Analysis{
			RetentionWeeks:    12,
			UpgradeWindowDays: 30,
			SessionGapMinutes: 30,
		},
		Output: Output{Dir: "outputs"},
	}
}

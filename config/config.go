package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/risk"
	"github.com/rustyeddy/torb/torb"
)

// Config is the complete torb configuration.
type Config struct {
	Account  risk.AccountConfig   `json:"account" yaml:"account"`
	Session  torb.SessionSettings `json:"session" yaml:"session"`
	Backtest backtest.Options     `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig        `json:"journal" yaml:"journal"`
	Server   ServerConfig         `json:"server" yaml:"server"`

	// Instruments overrides the built-in session hours per symbol.
	Instruments map[string]market.SessionTimes `json:"instruments,omitempty" yaml:"instruments,omitempty"`

	// Symbols traded by default when a command is not given any.
	Symbols []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// PollSeconds is the OANDA polling interval for live candles, 0 disables.
	PollSeconds int    `json:"poll_seconds" yaml:"poll_seconds"`
	Granularity string `json:"granularity" yaml:"granularity"`
}

// LoadFromFile loads configuration from a YAML or JSON file. Missing
// sections keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML or JSON based on the extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	prefix := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	prefix("account", c.Account.Validate())
	prefix("session", c.Session.Validate())

	for sym, st := range c.Instruments {
		if _, err := market.Lookup(sym); err != nil {
			errs = append(errs, fmt.Errorf("instruments: %w", err))
			continue
		}
		prefix("instruments."+sym, c.Session.WithSession(st).Validate())
	}
	for _, sym := range c.Symbols {
		if _, err := market.Lookup(sym); err != nil {
			errs = append(errs, fmt.Errorf("symbols: %w", err))
		}
	}

	b := c.Backtest
	if b.Warmup < 0 {
		errs = append(errs, fmt.Errorf("backtest.warmup must be >= 0"))
	}
	if b.RangeLookback <= 0 {
		errs = append(errs, fmt.Errorf("backtest.range_lookback must be positive"))
	}
	if b.MaxHoldMinutes < 0 {
		errs = append(errs, fmt.Errorf("backtest.max_hold_minutes must be >= 0"))
	}
	if b.MaxTradesPerSession < 0 {
		errs = append(errs, fmt.Errorf("backtest.max_trades_per_session must be >= 0"))
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.RunsFile == "" {
			errs = append(errs, fmt.Errorf("journal trades_file and runs_file required for CSV type"))
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			errs = append(errs, fmt.Errorf("journal db_path required for SQLite type"))
		}
	default:
		errs = append(errs, fmt.Errorf("journal.type must be 'csv' or 'sqlite'"))
	}

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.PollSeconds < 0 {
		errs = append(errs, fmt.Errorf("server.poll_seconds must be >= 0"))
	}

	return errors.Join(errs...)
}

// Engine builds a backtest engine from the configuration.
func (c *Config) Engine() *backtest.Engine {
	e := backtest.NewEngine(c.Account, c.Session, c.Backtest, nil)
	e.Sessions = c.Instruments
	return e
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account:  risk.DefaultAccount(),
		Session:  torb.DefaultSettings(),
		Backtest: backtest.DefaultOptions(),
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./torb.sqlite",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			Granularity: "M15",
		},
		Symbols: []string{"USD_JPY"},
	}
}

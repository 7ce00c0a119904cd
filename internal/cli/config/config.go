package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/torb/config"
	"github.com/rustyeddy/torb/internal/logging"
	"github.com/rustyeddy/torb/journal"
)

// RootConfig carries the persistent flags and what they resolve to. Load
// runs before every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogJSON    bool

	Config *config.Config
	Log    *zap.Logger
}

// Load reads the config file, if any, applies flag overrides and builds the
// logger.
func (rc *RootConfig) Load() error {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
			return err
		}
	}
	if rc.DBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = rc.DBPath
	}
	rc.Config = cfg

	log, err := logging.New(rc.LogLevel, rc.LogJSON)
	if err != nil {
		return err
	}
	rc.Log = log
	return nil
}

// OpenJournal opens the configured journal backend.
func (rc *RootConfig) OpenJournal() (journal.Journal, error) {
	jc := rc.Config.Journal
	switch jc.Type {
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile, jc.RunsFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	case "sqlite":
		j, err := rc.OpenSQLite()
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

// OpenSQLite opens the SQLite journal for queries.
func (rc *RootConfig) OpenSQLite() (*journal.SQLite, error) {
	if rc.Config.Journal.Type != "sqlite" {
		return nil, fmt.Errorf("journal queries need a sqlite journal (configured: %s)", rc.Config.Journal.Type)
	}
	j, err := journal.NewSQLite(rc.Config.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

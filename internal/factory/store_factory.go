package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/phishing-filter/internal/adapters/intel"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates threat-intelligence stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateThreatStore creates a threat store based on the configuration
func (f *StoreFactory) CreateThreatStore() (core.ThreatStore, error) {
	intelCfg := f.cfg.GetIntel()

	switch intelCfg.Store {
	case "memory":
		return intel.NewMemoryStore(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(intelCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return intel.NewSQLiteStore(intelCfg.SQLitePath, f.logger)
	case "mysql":
		return intel.NewMySQLStore(intelCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", intelCfg.Store)
	}
}

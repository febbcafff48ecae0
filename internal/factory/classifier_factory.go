package factory

import (
	"fmt"

	"github.com/mikey/phishing-filter/internal/adapters/classifier"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// ClassifierFactory creates the ML classifier collaborator
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates the classifier client, or nil when disabled.
// With a nil classifier every report is produced in rules-only mode.
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	classifierCfg := f.cfg.GetClassifier()
	if !classifierCfg.Enabled {
		return nil, nil
	}

	timeout, err := f.cfg.GetDuration("classifier.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid classifier timeout: %w", err)
	}

	return classifier.NewHTTPClient(classifierCfg.Endpoint, timeout, f.logger), nil
}

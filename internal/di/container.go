package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/adapters/httpserver"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/factory"
	"github.com/mikey/phishing-filter/internal/logging"
	"github.com/mikey/phishing-filter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTranslatorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}

	// Register threat store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ThreatStore, error) {
		return f.CreateThreatStore()
	}); err != nil {
		return nil, err
	}

	// Register collaborators
	if err := container.Provide(func(f *factory.TranslatorFactory) (core.Translator, error) {
		return f.CreateTranslator()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register pipeline components
	if err := container.Provide(func(cfg *config.Config) *core.URLAnalyzer {
		urlCfg := cfg.GetURLs()
		return core.NewURLAnalyzer(core.URLHeuristics{
			LongHostLength:     urlCfg.LongHostLength,
			HyphenCount:        urlCfg.HyphenCount,
			SubdomainDepth:     urlCfg.SubdomainDepth,
			SuspicionThreshold: urlCfg.SuspicionThreshold,
			WeightLongHost:     urlCfg.WeightLongHost,
			WeightHyphens:      urlCfg.WeightHyphens,
			WeightDepth:        urlCfg.WeightDepth,
			WeightKeywords:     urlCfg.WeightKeywords,
			WeightPunycode:     urlCfg.WeightPunycode,
		}, urlCfg.Shorteners)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) *core.RulesEngine {
		rulesCfg := cfg.GetRules()
		return core.NewRulesEngine(core.RuleWeights{
			SPFFail:             rulesCfg.Weights.SPFFail,
			DKIMFail:            rulesCfg.Weights.DKIMFail,
			DMARCFail:           rulesCfg.Weights.DMARCFail,
			DomainMismatch:      rulesCfg.Weights.DomainMismatch,
			ThreadSpoof:         rulesCfg.Weights.ThreadSpoof,
			ThreatMatch:         rulesCfg.Weights.ThreatMatch,
			DangerousAttachment: rulesCfg.Weights.DangerousAttachment,
			SuspiciousURLs:      rulesCfg.Weights.SuspiciousURLs,
			IPLiteralURL:        rulesCfg.Weights.IPLiteralURL,
			URLShortener:        rulesCfg.Weights.URLShortener,
		}, rulesCfg.DangerousExtensions, rulesCfg.SuspiciousURLLimit)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) *core.Aggregator {
		fusionCfg := cfg.GetFusion()
		return core.NewAggregator(fusionCfg.MLWeight, fusionCfg.ThresholdLow, fusionCfg.ThresholdHigh)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(func(
		store core.ThreatStore,
		classifier core.Classifier,
		translator core.Translator,
		urlAnalyzer *core.URLAnalyzer,
		rules *core.RulesEngine,
		aggregator *core.Aggregator,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.AnalysisService, error) {
		deadline, err := cfg.GetDuration("analysis.message_deadline")
		if err != nil {
			return nil, fmt.Errorf("invalid message deadline: %w", err)
		}
		timeout, err := cfg.GetDuration("analysis.collaborator_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid collaborator timeout: %w", err)
		}
		return core.NewAnalysisService(
			store, classifier, translator,
			urlAnalyzer, rules, aggregator, logger,
			deadline, timeout, cfg.GetInt("analysis.lookup_workers"),
		), nil
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.AnalysisService,
		store core.ThreatStore,
		logger *zap.Logger,
	) *httpserver.Server {
		return httpserver.NewServer(cfg.GetString("server.listen_address"), service, store, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

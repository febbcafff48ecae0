package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/factory"
	"github.com/mikey/phishing-filter/internal/logging"
	"github.com/mikey/phishing-filter/internal/utils"
	"go.uber.org/zap"
)

var (
	// Input flags
	inputFile = flag.String("file", "", "Parsed message JSON file (use stdin if not specified)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")

	// Store flags
	storeType  = flag.String("store", "memory", "Threat store type (memory, sqlite, mysql)")
	sqlitePath = flag.String("sqlite-path", "indicators.db", "Path to the SQLite indicator database")
	mysqlDSN   = flag.String("mysql-dsn", "", "MySQL DSN for the indicator database")

	// Collaborator flags
	classifierEndpoint = flag.String("classifier", "", "ML classifier endpoint (empty disables, rules-only mode)")
	translatorProvider = flag.String("translator", "none", "Translation provider (none, openai, gemini, bedrock)")

	// Fusion flags
	mlWeight      = flag.Float64("ml-weight", 0.7, "Weight on the ML confidence in score fusion")
	thresholdLow  = flag.Float64("t-low", 0.3, "Fused score above which a message is suspicious")
	thresholdHigh = flag.Float64("t-high", 0.5, "Fused score above which a message is phishing")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := createConfigFromFlags()

	msg, err := readMessage(*inputFile)
	if err != nil {
		logger.Fatal("Failed to read message", zap.Error(err))
	}

	report, err := analyze(cfg, logger, msg)
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))

	if report.Verdict == core.VerdictPhishing {
		os.Exit(2)
	}
}

// createConfigFromFlags builds a configuration from the command line flags,
// on top of the standard defaults.
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()
	v.Set("intel.store", *storeType)
	v.Set("intel.sqlite_path", *sqlitePath)
	if *mysqlDSN != "" {
		v.Set("intel.mysql_dsn", *mysqlDSN)
	}
	v.Set("classifier.enabled", *classifierEndpoint != "")
	if *classifierEndpoint != "" {
		v.Set("classifier.endpoint", *classifierEndpoint)
	}
	v.Set("translator.provider", *translatorProvider)
	v.Set("fusion.ml_weight", *mlWeight)
	v.Set("fusion.threshold_low", *thresholdLow)
	v.Set("fusion.threshold_high", *thresholdHigh)
	return config.NewFromViper(v)
}

func readMessage(path string) (*core.ParsedMessage, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var msg core.ParsedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message document: %w", err)
	}
	return &msg, nil
}

// analyze assembles the pipeline from configuration and runs it once.
func analyze(cfg *config.Config, logger *zap.Logger, msg *core.ParsedMessage) (*core.Report, error) {
	textProcessor := utils.NewTextProcessor(logger)

	store, err := factory.NewStoreFactory(cfg, logger).CreateThreatStore()
	if err != nil {
		return nil, err
	}
	classifier, err := factory.NewClassifierFactory(cfg, logger).CreateClassifier()
	if err != nil {
		return nil, err
	}
	translator, err := factory.NewTranslatorFactory(cfg, logger, textProcessor).CreateTranslator()
	if err != nil {
		return nil, err
	}

	urlCfg := cfg.GetURLs()
	urlAnalyzer := core.NewURLAnalyzer(core.URLHeuristics{
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

	rulesCfg := cfg.GetRules()
	rules := core.NewRulesEngine(core.RuleWeights{
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

	fusionCfg := cfg.GetFusion()
	aggregator := core.NewAggregator(fusionCfg.MLWeight, fusionCfg.ThresholdLow, fusionCfg.ThresholdHigh)

	deadline, err := cfg.GetDuration("analysis.message_deadline")
	if err != nil {
		return nil, fmt.Errorf("invalid message deadline: %w", err)
	}
	timeout, err := cfg.GetDuration("analysis.collaborator_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid collaborator timeout: %w", err)
	}

	service := core.NewAnalysisService(
		store, classifier, translator,
		urlAnalyzer, rules, aggregator, logger,
		deadline, timeout, cfg.GetInt("analysis.lookup_workers"),
	)

	return service.AnalyzeMessage(context.Background(), msg)
}

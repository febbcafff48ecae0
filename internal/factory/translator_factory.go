package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/phishing-filter/internal/adapters/bedrock"
	"github.com/mikey/phishing-filter/internal/adapters/gemini"
	"github.com/mikey/phishing-filter/internal/adapters/openai"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/utils"
	"go.uber.org/zap"
)

// TranslatorFactory creates translation collaborators
type TranslatorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewTranslatorFactory creates a new translator factory
func NewTranslatorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *TranslatorFactory {
	return &TranslatorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateTranslator creates a translator based on the configuration.
// Provider "none" yields a nil translator; the pipeline then feeds
// non-English bodies to the classifier untranslated.
func (f *TranslatorFactory) CreateTranslator() (core.Translator, error) {
	translatorCfg := f.cfg.GetTranslator()

	switch translatorCfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		return openai.NewTranslator(
			openaiCfg.APIKey,
			openaiCfg.ModelName,
			openaiCfg.MaxTokens,
			openaiCfg.Temperature,
			translatorCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		), nil
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		return gemini.NewTranslator(
			geminiCfg.APIKey,
			geminiCfg.ModelName,
			geminiCfg.MaxTokens,
			geminiCfg.Temperature,
			translatorCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		)
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(bedrockCfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewTranslator(
			client,
			bedrockCfg.ModelID,
			bedrockCfg.MaxTokens,
			bedrockCfg.Temperature,
			translatorCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		), nil
	default:
		return nil, fmt.Errorf("unsupported translator provider: %s", translatorCfg.Provider)
	}
}

package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/phishing-filter/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Translator is an implementation of the Translator interface using Google
// Gemini.
type Translator struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewTranslator creates a new Gemini translator.
func NewTranslator(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Translator, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Translator{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Translate the following text (language: %s) into English.
Preserve line breaks. Respond with only the translation and nothing else.

%s`,
	}, nil
}

// Close closes the Gemini client.
func (t *Translator) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Translate normalizes text in the given source language to English.
func (t *Translator) Translate(ctx context.Context, text string, lang string) (string, error) {
	processed := t.textProcessor.ProcessText(text, t.maxBodySize)
	prompt := fmt.Sprintf(t.promptFormat, utils.LanguageName(lang), processed)

	resp, err := t.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

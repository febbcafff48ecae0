package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/phishing-filter/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Translator is an implementation of the Translator interface using OpenAI
// chat completions.
type Translator struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewTranslator creates a new OpenAI translator.
func NewTranslator(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Translator {
	client := openai.NewClient(apiKey)

	return &Translator{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Translate the following text (language: %s) into English.
Preserve line breaks. Respond with only the translation and nothing else.

%s`,
	}
}

// Translate normalizes text in the given source language to English.
func (t *Translator) Translate(ctx context.Context, text string, lang string) (string, error) {
	processed := t.textProcessor.ProcessText(text, t.maxBodySize)
	prompt := fmt.Sprintf(t.promptFormat, utils.LanguageName(lang), processed)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a translation service. Respond only with the translated text.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/phishing-filter/internal/utils"
	"go.uber.org/zap"
)

// Translator is an implementation of the Translator interface using Amazon
// Bedrock.
type Translator struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewTranslator creates a new Bedrock translator.
func NewTranslator(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Translator {
	return &Translator{
		client:        client,
		modelID:       modelID,
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

	payload, err := t.requestPayload(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &t.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	return t.responseText(resp.Body)
}

// requestPayload builds the model-family specific invocation body.
func (t *Translator) requestPayload(prompt string) ([]byte, error) {
	if t.isAnthropicModel() {
		return json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": t.maxTokens,
			"temperature":          t.temperature,
		})
	}
	if t.isAmazonTitanModel() {
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": t.maxTokens,
				"temperature":   t.temperature,
			},
		})
	}
	return json.Marshal(map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  t.maxTokens,
		"temperature": t.temperature,
	})
}

// responseText extracts the generated text from the model-family specific
// response shape.
func (t *Translator) responseText(body []byte) (string, error) {
	if t.isAnthropicModel() {
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return strings.TrimSpace(resp.Completion), nil
	}
	if t.isAmazonTitanModel() {
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return strings.TrimSpace(resp.Results[0].OutputText), nil
	}

	var resp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	for _, candidate := range []string{resp.Output, resp.Text, resp.Response} {
		if candidate != "" {
			return strings.TrimSpace(candidate), nil
		}
	}
	return strings.TrimSpace(string(body)), nil
}

func (t *Translator) isAnthropicModel() bool {
	return strings.HasPrefix(t.modelID, "anthropic.claude")
}

func (t *Translator) isAmazonTitanModel() bool {
	return strings.HasPrefix(t.modelID, "amazon.titan")
}

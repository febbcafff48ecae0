package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// HTTPClient is an implementation of the Classifier interface calling the
// external model service over HTTP. Feature extraction and inference happen
// on the remote side; this client ships the normalized message material and
// receives a confidence in [0,1].
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPClient creates a classifier client. timeout bounds the whole
// request; the per-message context may cut it shorter.
func NewHTTPClient(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type classifyRequest struct {
	Subject     string   `json:"subject"`
	From        string   `json:"from"`
	Text        string   `json:"text"`
	URLs        []string `json:"urls"`
	Attachments int      `json:"attachments"`
}

type classifyResponse struct {
	Confidence float64 `json:"confidence"`
}

// Confidence sends the message material to the model service and returns
// its phishing confidence.
func (c *HTTPClient) Confidence(ctx context.Context, msg *core.ParsedMessage, text string) (float64, error) {
	reqBody := classifyRequest{
		Subject:     firstValue(msg.Headers, "Subject"),
		From:        firstValue(msg.Headers, "From"),
		Text:        text,
		Attachments: len(msg.Attachments),
	}
	for _, u := range msg.URLs {
		reqBody.URLs = append(reqBody.URLs, u.Raw)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %v", core.ErrCollaboratorTimeout, err)
		}
		return 0, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if body.Confidence < 0 || body.Confidence > 1 {
		return 0, fmt.Errorf("classifier confidence %f out of range", body.Confidence)
	}

	return body.Confidence, nil
}

func firstValue(headers map[string][]string, name string) string {
	for _, v := range headers[name] {
		return v
	}
	return ""
}

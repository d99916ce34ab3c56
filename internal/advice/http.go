package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourname/aquaguide/internal"
)

// HTTPGenerator posts prompts to a text-generation endpoint that accepts {"prompt"} and
// replies with {"text"}.
type HTTPGenerator struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	logger     internal.Logger
}

func NewHTTPGenerator(url, apiKey string, logger internal.Logger) *HTTPGenerator {
	return &HTTPGenerator{
		URL:        url,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

func (g *HTTPGenerator) WaterAdvice(ctx context.Context, r Reading) (string, error) {
	if err := validateReading(r); err != nil {
		return "", err
	}
	return g.generate(ctx, WaterPrompt(r))
}

func (g *HTTPGenerator) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", internal.Validationf("message is required")
	}
	return g.generate(ctx, QuestionPrompt(question))
}

func (g *HTTPGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		g.logger.Errorf("failed to create advice request: %v", err)
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		g.logger.Errorf("failed to call advice service: %v", err)
		return "", internal.StorageError("call advice service", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Errorf("advice service returned %d", resp.StatusCode)
		return "", internal.StorageError("call advice service", fmt.Errorf("status %d", resp.StatusCode))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logger.Errorf("failed to decode advice response: %v", err)
		return "", internal.StorageError("decode advice response", err)
	}
	return strings.TrimSpace(out.Text), nil
}

var _ Generator = (*HTTPGenerator)(nil)

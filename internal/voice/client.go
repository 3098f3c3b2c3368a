package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Voice is one synthesis voice available to a user.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is the speech collaborator contract: list a user's voices and
// synthesize question audio. Transcription goes through the LLM provider.
type Client interface {
	ListVoices(ctx context.Context, userID string) ([]Voice, error)
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// HTTPClient talks to the voice service over plain JSON HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPClient) ListVoices(ctx context.Context, userID string) ([]Voice, error) {
	url := fmt.Sprintf("%s/api/v1/voices?userId=%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voice service returned status %d: %s", resp.StatusCode, string(body))
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("failed to decode voice list: %w", err)
	}
	return voices, nil
}

func (c *HTTPClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "voiceId": voiceID})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/v1/synthesize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voice service returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

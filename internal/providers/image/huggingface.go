// Package image generates slide illustrations through the Hugging Face
// inference API. An unconfigured client is valid: it produces no image and no
// error, so callers must treat the no-image case as expected.
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultModel = "stabilityai/stable-diffusion-3-medium-diffusers"

// Client calls the hf-inference text-to-image endpoint.
type Client struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the given credential; an empty key yields a no-op
// client.
func New(apiKey string) *Client {
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		Model:  defaultModel,
	}
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool { return c.APIKey != "" }

// TextToImage renders prompt into raster bytes. Without a credential it
// returns (nil, nil).
func (c *Client) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, nil
	}
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	base := c.BaseURL
	if base == "" {
		base = "https://api-inference.huggingface.co"
	}
	endpoint := fmt.Sprintf("%s/models/%s", strings.TrimRight(base, "/"), model)

	body, _ := json.Marshal(map[string]string{"inputs": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var eresp map[string]any
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		return nil, fmt.Errorf("hf inference status %d: %v", res.StatusCode, eresp)
	}
	return io.ReadAll(res.Body)
}

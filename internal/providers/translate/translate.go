// Package translate converts visual descriptions between languages so the
// image backend receives English prompts. It uses the unauthenticated
// translate endpoint; failures are returned to the caller, who degrades to
// the untranslated text.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP translator.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New() *Client { return &Client{} }

// Translate returns text translated from source to target language codes
// (e.g. "az" -> "en").
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = "https://translate.googleapis.com"
	}
	endpoint := fmt.Sprintf("%s/translate_a/single?client=gtx&sl=%s&tl=%s&dt=t&q=%s",
		strings.TrimRight(base, "/"), url.QueryEscape(source), url.QueryEscape(target), url.QueryEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate status %d", res.StatusCode)
	}

	// Response shape: [[["translated","original",...],...],...]
	var raw []any
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty translate response")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected translate response shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		pair, ok := seg.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translation in response")
	}
	return b.String(), nil
}

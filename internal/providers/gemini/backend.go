// Package gemini talks to the Google Generative AI API through an ordered
// cascade of candidate models. Failures are classified at the provider
// boundary into typed kinds so the cascade never inspects error strings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrorKind classifies a generation failure.
type ErrorKind int

const (
	// KindFatal aborts the cascade immediately.
	KindFatal ErrorKind = iota
	// KindRetryable moves on to the next candidate model: quota exhausted,
	// rate limited, model not found, or transient transport trouble.
	KindRetryable
	// KindBlocked means the model responded but produced nothing usable
	// (safety stop, truncation, empty content); the next candidate is tried.
	KindBlocked
)

func (k ErrorKind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindBlocked:
		return "blocked"
	default:
		return "fatal"
	}
}

// Error wraps a generation failure with its classification and the candidate
// model that produced it.
type Error struct {
	Kind  ErrorKind
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Model describes one discoverable model.
type Model struct {
	Name               string
	SupportsGeneration bool
}

// Result is a successful generation: the literal response text of the first
// candidate that finished normally.
type Result struct {
	Text string
}

// Backend is the raw generation surface. The production implementation wraps
// the Google SDK; tests substitute a fake. Generate must return *Error for
// every failure so the cascade can branch on Kind.
type Backend interface {
	ListModels(ctx context.Context) ([]Model, error)
	Generate(ctx context.Context, model, prompt string) (*Result, error)
}

// Fixed generation parameters: structural consistency over creativity, with a
// bounded output budget.
const (
	generationTemperature = 0.3
	maxOutputTokens       = 4096
)

// SDKBackend implements Backend over the official SDK.
type SDKBackend struct {
	client *genai.Client
}

// NewSDKBackend dials the Generative AI API with the given key.
func NewSDKBackend(ctx context.Context, apiKey string) (*SDKBackend, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &SDKBackend{client: c}, nil
}

// Close releases the underlying connection.
func (b *SDKBackend) Close() error { return b.client.Close() }

func (b *SDKBackend) ListModels(ctx context.Context) ([]Model, error) {
	var out []Model
	it := b.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		supports := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supports = true
				break
			}
		}
		name := m.Name
		if !strings.HasPrefix(name, "models/") {
			name = "models/" + name
		}
		out = append(out, Model{Name: name, SupportsGeneration: supports})
	}
	return out, nil
}

func (b *SDKBackend) Generate(ctx context.Context, model, prompt string) (*Result, error) {
	gm := b.client.GenerativeModel(strings.TrimPrefix(model, "models/"))
	gm.SetTemperature(generationTemperature)
	gm.SetMaxOutputTokens(maxOutputTokens)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &Error{Kind: classify(err), Model: model, Err: err}
	}
	if len(resp.Candidates) == 0 {
		return nil, &Error{Kind: KindBlocked, Model: model, Err: errors.New("no candidates in response")}
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
		return nil, &Error{Kind: KindBlocked, Model: model, Err: fmt.Errorf("response blocked, finish reason %v", cand.FinishReason)}
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return nil, &Error{Kind: KindBlocked, Model: model, Err: errors.New("response has no content parts")}
	}
	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok || string(text) == "" {
		return nil, &Error{Kind: KindBlocked, Model: model, Err: errors.New("empty response text")}
	}
	return &Result{Text: string(text)}, nil
}

// classify maps an SDK/transport error to a cascade decision. Status codes
// decide when available; message matching is a last resort for errors the
// transport surfaces without one, and it stays inside this boundary.
func classify(err error) ErrorKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound, http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return KindRetryable
		case http.StatusForbidden:
			// quota and API-enablement failures surface as 403
			return KindRetryable
		}
		return KindFatal
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"not found", "not supported", "quota", "rate limit", "429", "404", "resource exhausted"} {
		if strings.Contains(msg, marker) {
			return KindRetryable
		}
	}
	return KindFatal
}

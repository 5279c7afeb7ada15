package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// systemInstruction primes every candidate to answer with bare JSON in the
// deck's target language.
const systemInstruction = "Sən təqdimat üzrə Azərbaycan dilində AI asistentsən. Sənəvərə cavabını YALNIZ JSON formatında qaytar. Heç bir əlavə mətn, izahat və ya formatlaşdırma olmadan."

// ErrExhausted is returned when every candidate failed with a retryable or
// blocked classification, or no candidates existed at all. Callers degrade to
// the offline generator on this error; any other error is fatal.
var ErrExhausted = errors.New("all candidate models failed")

// maxTextChars bounds the source text handed to a model. Roughly 125k tokens,
// leaving room for the prompt scaffolding within a 1M-token context.
const maxTextChars = 500000

// staticFallbackModels are tried only when model discovery returned nothing.
var staticFallbackModels = []string{
	"models/gemini-1.5-flash-8b",
	"models/gemini-1.5-flash",
	"models/gemini-1.5-pro",
	"models/gemini-pro",
}

// excludedVariants filters experimental/preview builds out of discovery;
// their quota and behavior are too unstable for structured output.
var excludedVariants = []string{"exp", "preview", "beta", "gemma"}

// Client runs the candidate cascade against a Backend.
type Client struct {
	backend Backend
	log     zerolog.Logger
}

func NewClient(backend Backend, log zerolog.Logger) *Client {
	return &Client{backend: backend, log: log}
}

// Candidates builds the ordered, de-duplicated model list: discovered models
// supporting generation first, then the caller's preference, then the static
// fallbacks only if discovery came up empty.
func (c *Client) Candidates(ctx context.Context, preferred string) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	discovered, err := c.backend.ListModels(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not list models, will use fallback list")
	}
	found := 0
	for _, m := range discovered {
		if !m.SupportsGeneration || excludedVariant(m.Name) {
			continue
		}
		found++
		add(m.Name)
	}

	if preferred != "" {
		if !strings.HasPrefix(preferred, "models/") {
			preferred = "models/" + preferred
		}
		add(preferred)
	}

	if found == 0 {
		for _, m := range staticFallbackModels {
			add(m)
		}
	}
	return names
}

func excludedVariant(name string) bool {
	lower := strings.ToLower(name)
	for _, v := range excludedVariants {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// Complete tries each candidate in order and returns the first normal
// response text. Retryable and blocked failures advance the cascade; any
// other failure aborts it immediately. Exhaustion is reported as
// ErrExhausted so the caller can fall back offline.
func (c *Client) Complete(ctx context.Context, prompt, preferred string) (string, error) {
	candidates := c.Candidates(ctx, preferred)
	if len(candidates) == 0 {
		return "", ErrExhausted
	}

	var lastErr error
	for _, name := range candidates {
		res, err := c.backend.Generate(ctx, name, prompt)
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) && perr.Kind != KindFatal {
				c.log.Warn().Str("model", name).Str("kind", perr.Kind.String()).Err(perr.Err).Msg("candidate failed, trying next")
				lastErr = err
				continue
			}
			return "", err
		}
		c.log.Info().Str("model", name).Int("response_chars", len(res.Text)).Msg("generation succeeded")
		return res.Text, nil
	}
	if lastErr != nil {
		return "", errors.Join(ErrExhausted, lastErr)
	}
	return "", ErrExhausted
}

// Truncate caps text at maxTextChars, preferring the last sentence or line
// boundary when one falls within the final 10% of the ceiling so the cut does
// not sever mid-sentence.
func Truncate(text string) string {
	if len(text) <= maxTextChars {
		return text
	}
	cut := text[:maxTextChars]
	boundary := strings.LastIndexByte(cut, '.')
	if nl := strings.LastIndexByte(cut, '\n'); nl > boundary {
		boundary = nl
	}
	if boundary > maxTextChars*9/10 {
		return cut[:boundary+1]
	}
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

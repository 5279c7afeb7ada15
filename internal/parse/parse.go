// Package parse extracts and validates a slide deck from free-form model
// output. Models wrap JSON in prose and code fences and routinely leave
// trailing commas, so parsing is a sequence of escalating repairs over the
// raw text before strict decoding.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/presentation-assistant/internal/models"
)

// ErrBadInput marks structural failures: the response text itself was
// unusable (empty, too short, or an upstream error message). Retrying
// generation with the same input will not help.
var ErrBadInput = errors.New("unusable model response")

// ErrMalformed marks transient failures: the model produced near-JSON that
// survived no repair, or JSON violating the slide schema. The caller may
// retry generation.
var ErrMalformed = errors.New("malformed model response")

// SyntaxError reports where strict parsing gave up, with a preview window
// around the offending byte so the failure is diagnosable from logs alone.
type SyntaxError struct {
	Offset  int64
	Preview string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %v (preview: ...%s...)", e.Offset, e.Err, e.Preview)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

var (
	fenceOpen     = regexp.MustCompile("(?m)^```(?:json|JSON)?\\s*")
	fenceClose    = regexp.MustCompile("(?m)```\\s*$")
	arraySpan     = regexp.MustCompile(`(?s)\[.*\]`)
	objectSpan    = regexp.MustCompile(`(?s)\{.*\}`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseSlides turns raw model output into a validated deck.
func ParseSlides(response string) (models.Deck, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrBadInput)
	}
	if strings.HasPrefix(text, "Error:") || strings.HasPrefix(text, "Content generation failed") {
		return nil, fmt.Errorf("%w: API error: %s", ErrBadInput, preview(text, 100))
	}
	if len(text) < 50 {
		return nil, fmt.Errorf("%w: response too short or incomplete: %s", ErrBadInput, text)
	}

	cleaned := clip(stripFences(text))

	items, err := decodeArray(cleaned)
	if err != nil {
		repaired := repair(cleaned)
		items, err = decodeArray(repaired)
		if err != nil {
			return nil, diagnose(repaired, err)
		}
	}

	deck := make(models.Deck, 0, len(items))
	for i, item := range items {
		slide, err := validateSlide(i, item)
		if err != nil {
			return nil, err
		}
		deck = append(deck, slide)
	}
	return deck, nil
}

// stripFences removes Markdown code-fence markers when present.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// clip narrows the text to the first greedy JSON array span, falling back to
// an object span, then to the whole text.
func clip(text string) string {
	if m := arraySpan.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if m := objectSpan.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return text
}

// repair removes trailing commas before closing braces/brackets and re-clips
// to the outermost array.
func repair(text string) string {
	text = trailingComma.ReplaceAllString(text, "$1")
	first := strings.IndexByte(text, '[')
	last := strings.LastIndexByte(text, ']')
	if first != -1 && last > first {
		text = text[first : last+1]
	}
	return text
}

func decodeArray(text string) ([]json.RawMessage, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	if _, ok := v.([]any); !ok {
		return nil, fmt.Errorf("%w: expected a JSON array of slides", ErrMalformed)
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func diagnose(text string, err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		off := syn.Offset
		lo := off - 50
		if lo < 0 {
			lo = 0
		}
		hi := off + 50
		if hi > int64(len(text)) {
			hi = int64(len(text))
		}
		return &SyntaxError{Offset: off, Preview: text[lo:hi], Err: err}
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

// validateSlide checks one element against its variant schema before decoding
// it into the typed model. Field checks are presence checks on the raw JSON
// object, matching what the prompt demands of the model.
func validateSlide(i int, item json.RawMessage) (models.Slide, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return models.Slide{}, fmt.Errorf("%w: slide %d is not a JSON object", ErrMalformed, i)
	}

	var slideType string
	if raw, ok := fields["type"]; ok {
		_ = json.Unmarshal(raw, &slideType)
	}
	if !models.KnownSlideType(slideType) {
		return models.Slide{}, fmt.Errorf("%w: slide %d has unknown type: %q", ErrMalformed, i, slideType)
	}

	var required []string
	switch slideType {
	case models.TypeTitle:
		required = []string{"title"}
	case models.TypeIntro:
		required = []string{"aim", "summary"}
	case models.TypeMain:
		required = []string{"title", "point1", "point2", "point3", "point4", "visual"}
	case models.TypeRecommendation:
		present := 0
		for n := 1; n <= 5; n++ {
			if _, ok := fields[fmt.Sprintf("recommendation%d", n)]; ok {
				present++
			}
		}
		if present < 4 {
			return models.Slide{}, fmt.Errorf("%w: slide %d of type %q requires at least 4 recommendations, got %d", ErrMalformed, i, slideType, present)
		}
	}

	var missing []string
	for _, f := range required {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return models.Slide{}, fmt.Errorf("%w: slide %d of type %q missing fields: %s", ErrMalformed, i, slideType, strings.Join(missing, ", "))
	}

	if slideType == models.TypeMain {
		if raw := fields["visual"]; len(raw) == 0 || raw[0] != '{' {
			return models.Slide{}, fmt.Errorf("%w: slide %d: visual must be an object", ErrMalformed, i)
		}
	}

	var slide models.Slide
	if err := json.Unmarshal(item, &slide); err != nil {
		return models.Slide{}, fmt.Errorf("%w: slide %d: %v", ErrMalformed, i, err)
	}
	return slide, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

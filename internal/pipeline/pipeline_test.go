package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/parse"
	"github.com/example/presentation-assistant/internal/providers/gemini"
)

const sourceText = "Birinci cümlə burada yerləşir. İkinci cümlə daha uzundur. Üçüncü cümlə. Dördüncü cümlə. Beşinci cümlə."

type scriptedBackend struct {
	models  []gemini.Model
	result  *gemini.Result
	failure error
}

func (s *scriptedBackend) ListModels(ctx context.Context) ([]gemini.Model, error) {
	return s.models, nil
}

func (s *scriptedBackend) Generate(ctx context.Context, model, prompt string) (*gemini.Result, error) {
	if s.failure != nil {
		return nil, s.failure
	}
	return s.result, nil
}

func TestGenerateOfflineWithoutCredential(t *testing.T) {
	g := &Generator{Log: zerolog.Nop()}
	deck, p, err := g.Generate(context.Background(), sourceText, 6, false)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Len(t, deck, 6)
	assert.Equal(t, models.TypeTitle, deck[0].Type)
	assert.Equal(t, models.TypeRecommendation, deck[len(deck)-1].Type)
}

func TestGenerateOfflineOnExhaustion(t *testing.T) {
	backend := &scriptedBackend{
		models: []gemini.Model{{Name: "models/a", SupportsGeneration: true}},
		failure: &gemini.Error{
			Kind: gemini.KindRetryable, Model: "models/a", Err: errors.New("quota"),
		},
	}
	g := &Generator{Gemini: gemini.NewClient(backend, zerolog.Nop()), Log: zerolog.Nop()}

	deck, _, err := g.Generate(context.Background(), sourceText, 5, false)
	require.NoError(t, err)
	assert.Len(t, deck, 5)
}

func TestGenerateFatalErrorPropagates(t *testing.T) {
	backend := &scriptedBackend{
		models: []gemini.Model{{Name: "models/a", SupportsGeneration: true}},
		failure: &gemini.Error{
			Kind: gemini.KindFatal, Model: "models/a", Err: errors.New("invalid key"),
		},
	}
	g := &Generator{Gemini: gemini.NewClient(backend, zerolog.Nop()), Log: zerolog.Nop()}

	_, _, err := g.Generate(context.Background(), sourceText, 5, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, gemini.ErrExhausted)
}

func TestGenerateParsesModelOutput(t *testing.T) {
	raw := `[
		{"type":"title","title":"Hesabat"},
		{"type":"intro","aim":"Məqsəd","summary":"Xülasə"},
		{"type":"main","title":"Mövzu","point1":"a","point2":"b","point3":"c","point4":"d","visual":{"type":"none"}},
		{"type":"recommendation","recommendation1":"a","recommendation2":"b","recommendation3":"c","recommendation4":"d"}
	]`
	backend := &scriptedBackend{
		models: []gemini.Model{{Name: "models/a", SupportsGeneration: true}},
		result: &gemini.Result{Text: raw},
	}
	g := &Generator{Gemini: gemini.NewClient(backend, zerolog.Nop()), Log: zerolog.Nop()}

	deck, _, err := g.Generate(context.Background(), sourceText, 4, false)
	require.NoError(t, err)
	require.Len(t, deck, 4)
	assert.Equal(t, "Hesabat", deck[0].Title)
}

func TestGenerateSurfacesParseErrors(t *testing.T) {
	backend := &scriptedBackend{
		models: []gemini.Model{{Name: "models/a", SupportsGeneration: true}},
		result: &gemini.Result{Text: `[{"type":"main","title":"T","point1":"a","visual":{"type":"none"},"padding":"x"}]`},
	}
	g := &Generator{Gemini: gemini.NewClient(backend, zerolog.Nop()), Log: zerolog.Nop()}

	_, _, err := g.Generate(context.Background(), sourceText, 4, false)
	assert.ErrorIs(t, err, parse.ErrMalformed)
}

// Package pipeline glues the generation stages together: source text to plan,
// plan to prompt, prompt through the model cascade, raw output through repair
// and validation into a deck. It owns the offline-fallback decision.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/parse"
	"github.com/example/presentation-assistant/internal/plan"
	"github.com/example/presentation-assistant/internal/providers/gemini"
)

// Generator produces decks from raw document text. A nil Gemini client means
// no credential is configured and every request takes the offline path.
type Generator struct {
	Gemini         *gemini.Client
	PreferredModel string
	Log            zerolog.Logger
}

// Generate turns source text into a deck of roughly slideCount slides.
// Cascade exhaustion degrades to the offline generator; a fatal model error
// propagates. Parse errors propagate so the caller can decide to retry.
func (g *Generator) Generate(ctx context.Context, text string, slideCount int, includeVisuals bool) (models.Deck, *plan.Plan, error) {
	p := plan.Build(slideCount, includeVisuals)

	if g.Gemini == nil {
		g.Log.Info().Msg("no model credential configured, generating offline")
		return plan.OfflineDeck(text, p.SlideCount), &p, nil
	}

	prompt := plan.BuildPrompt(gemini.Truncate(text), p)
	raw, err := g.Gemini.Complete(ctx, prompt, g.PreferredModel)
	if err != nil {
		if errors.Is(err, gemini.ErrExhausted) {
			g.Log.Warn().Err(err).Msg("model cascade exhausted, generating offline")
			return plan.OfflineDeck(text, p.SlideCount), &p, nil
		}
		return nil, nil, fmt.Errorf("model generation: %w", err)
	}

	deck, err := parse.ParseSlides(raw)
	if err != nil {
		return nil, nil, err
	}
	return deck, &p, nil
}

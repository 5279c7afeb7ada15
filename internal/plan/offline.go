package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/presentation-assistant/internal/models"
)

var sentenceSplit = regexp.MustCompile(`[.\n]+`)

// SplitSentences segments source text on sentence and line boundaries,
// dropping empty fragments.
func SplitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// OfflineDeck deterministically synthesizes a structurally valid deck from
// source text alone. It is the fallback when no model credential exists or
// every cascade candidate failed with a retryable error, and it keeps the
// whole pipeline testable without network access.
//
// The title comes from the first sentence; each main slide takes the next
// four sentences as points, padded with empty strings once the text runs out.
func OfflineDeck(text string, slideCount int) models.Deck {
	sentences := SplitSentences(text)

	title := "Təqdimat"
	if len(sentences) > 0 {
		title = capRunes(sentences[0], 60)
	}

	remaining := slideCount - 3
	if remaining < 1 {
		remaining = 1
	}

	deck := models.Deck{
		{Type: models.TypeTitle, Title: title},
		{
			Type:    models.TypeIntro,
			Aim:     "Sənədin əsas ideyalarını təqdim etmək",
			Summary: shorten(strings.Join(head(sentences, 5), " "), 300),
		},
	}

	idx := 0
	for i := 0; i < remaining; i++ {
		var points [4]string
		for j := 0; j < 4; j++ {
			if idx < len(sentences) {
				points[j] = shorten(sentences[idx], 120)
				idx++
			}
		}
		deck = append(deck, models.Slide{
			Type:   models.TypeMain,
			Title:  fmt.Sprintf("Mövzu %d", i+1),
			Point1: points[0],
			Point2: points[1],
			Point3: points[2],
			Point4: points[3],
			Visual: models.EmptyVisual(),
		})
	}

	deck = append(deck, models.Slide{
		Type:            models.TypeRecommendation,
		Recommendation1: "Məzmunu daha da dəqiqləşdirin",
		Recommendation2: "Əlavə sübutlar toplayın",
		Recommendation3: "Riskləri qiymətləndirin",
		Recommendation4: "Növbəti mərhələləri planlayın",
		Recommendation5: "Komanda ilə paylaşın",
	})
	return deck
}

// OfflineJSON renders the offline deck exactly as a model response would look,
// so it flows through the same repair/validate path as real output.
func OfflineJSON(text string, slideCount int) string {
	b, err := json.Marshal(OfflineDeck(text, slideCount))
	if err != nil {
		// Deck marshaling cannot fail: only plain strings and slices.
		panic(err)
	}
	return string(b)
}

func head(ss []string, n int) []string {
	if len(ss) < n {
		return ss
	}
	return ss[:n]
}

func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// shorten collapses whitespace and truncates at a word boundary, appending an
// ellipsis when anything was cut.
func shorten(s string, width int) string {
	words := strings.Fields(s)
	joined := strings.Join(words, " ")
	if len([]rune(joined)) <= width {
		return joined
	}
	out := ""
	for _, w := range words {
		candidate := out
		if candidate != "" {
			candidate += " "
		}
		candidate += w
		if len([]rune(candidate))+1 > width {
			break
		}
		out = candidate
	}
	if out == "" {
		return "…"
	}
	return out + "…"
}

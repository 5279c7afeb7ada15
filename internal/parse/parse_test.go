package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/plan"
)

// pad makes a response long enough to pass the minimum-length check without
// changing its JSON content.
func pad(json string) string {
	return json + strings.Repeat(" ", 60)
}

func TestParseSlidesRepairsFencedTrailingComma(t *testing.T) {
	raw := "```json\n[{\"type\":\"title\",\"title\":\"T\"},]\n```"
	deck, err := ParseSlides(pad(raw))
	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, models.TypeTitle, deck[0].Type)
	assert.Equal(t, "T", deck[0].Title)
}

func TestParseSlidesClipsSurroundingProse(t *testing.T) {
	raw := "Əlbəttə, slaydlar hazırdır:\n[{\"type\":\"title\",\"title\":\"Hesabat\"}]\nUğurlar!"
	deck, err := ParseSlides(pad(raw))
	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, "Hesabat", deck[0].Title)
}

func TestParseSlidesRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"error prefix", "Error: quota exceeded for project " + strings.Repeat("x", 60)},
		{"too short", `[{"type":"title"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSlides(tt.in)
			assert.ErrorIs(t, err, ErrBadInput)
			assert.NotErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseSlidesNamesMissingMainField(t *testing.T) {
	raw := `[{"type":"main","title":"T","point1":"a","point2":"b","point4":"d","visual":{"type":"none"}}]`
	_, err := ParseSlides(pad(raw))
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "point3")
}

func TestParseSlidesRecommendationThreshold(t *testing.T) {
	three := `[{"type":"recommendation","recommendation1":"a","recommendation2":"b","recommendation3":"c"}]`
	_, err := ParseSlides(pad(three))
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "at least 4")

	four := `[{"type":"recommendation","recommendation1":"a","recommendation2":"b","recommendation3":"c","recommendation4":"d"}]`
	deck, err := ParseSlides(pad(four))
	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, "", deck[0].Recommendation5)
}

func TestParseSlidesRejectsUnknownType(t *testing.T) {
	raw := `[{"type":"outro","title":"T","padding":"xxxxxxxxxxxxxxxxxxxxxxxx"}]`
	_, err := ParseSlides(pad(raw))
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "outro")
}

func TestParseSlidesRejectsNonObjectVisual(t *testing.T) {
	raw := `[{"type":"main","title":"T","point1":"a","point2":"b","point3":"c","point4":"d","visual":"bar"}]`
	_, err := ParseSlides(pad(raw))
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "visual")
}

func TestParseSlidesSyntaxDiagnostics(t *testing.T) {
	raw := `[{"type":"title","title":"T"} {"type":"intro","aim":"a","summary":"s"}]`
	_, err := ParseSlides(pad(raw))
	require.Error(t, err)

	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Greater(t, syn.Offset, int64(0))
	assert.NotEmpty(t, syn.Preview)
	assert.Contains(t, err.Error(), "offset")
}

func TestOfflineDeckRoundTrips(t *testing.T) {
	text := "Birinci cümlə burada yerləşir. İkinci cümlə daha uzundur və ətraflıdır. Üçüncü. Dördüncü. Beşinci. Altıncı."
	for _, slideCount := range []int{4, 6, 9} {
		raw := plan.OfflineJSON(text, slideCount)
		deck, err := ParseSlides(raw)
		require.NoError(t, err, "slideCount=%d", slideCount)
		assert.Len(t, deck, slideCount, "slideCount=%d", slideCount)
		assert.Equal(t, models.TypeTitle, deck[0].Type)
		assert.Equal(t, models.TypeRecommendation, deck[len(deck)-1].Type)
	}
}

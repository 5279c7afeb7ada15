package plan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/presentation-assistant/internal/models"
)

func TestBuildWithoutVisuals(t *testing.T) {
	for slideCount := 4; slideCount <= 20; slideCount++ {
		p := Build(slideCount, false)
		assert.GreaterOrEqual(t, p.MainCount, 1, "slideCount=%d", slideCount)
		assert.Equal(t, p.SlideCount, p.MainCount+3, "slideCount=%d", slideCount)
		assert.Equal(t, slideCount, p.SlideCount, "slideCount=%d", slideCount)
		assert.False(t, p.Uneven)
	}
}

func TestBuildWithVisuals(t *testing.T) {
	tests := []struct {
		slideCount     int
		wantMain       int
		wantSlideCount int
		wantUneven     bool
	}{
		{4, 1, 4, true},  // one body slide cannot split
		{5, 1, 4, false}, // 2 body slides: 1 main + 1 visual
		{7, 2, 5, false}, // 4 body slides split evenly
		{8, 3, 8, true},  // 5 body slides keep the extra
		{10, 4, 10, true},
	}
	for _, tt := range tests {
		p := Build(tt.slideCount, true)
		assert.Equal(t, tt.wantMain, p.MainCount, "slideCount=%d", tt.slideCount)
		assert.Equal(t, tt.wantSlideCount, p.SlideCount, "slideCount=%d", tt.slideCount)
		assert.Equal(t, tt.wantUneven, p.Uneven, "slideCount=%d", tt.slideCount)
	}
}

func TestBuildClampsTinyCounts(t *testing.T) {
	p := Build(1, false)
	assert.Equal(t, 4, p.SlideCount)
	assert.Equal(t, 1, p.MainCount)
}

func TestNote(t *testing.T) {
	assert.Empty(t, Build(7, false).Note())
	assert.NotEmpty(t, Build(8, true).Note())
}

func TestBuildPromptCarriesBudgetAndText(t *testing.T) {
	p := Build(7, false)
	prompt := BuildPrompt("Qlobal istiləşmə haqqında sənəd.", p)
	assert.Contains(t, prompt, "7 slayd")
	assert.Contains(t, prompt, fmt.Sprintf("**%d** slayd", p.MainCount))
	assert.Contains(t, prompt, "Qlobal istiləşmə haqqında sənəd.")
	assert.Contains(t, prompt, `"type": "recommendation"`)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Birinci cümlə. İkinci cümlə.\nÜçüncü sətir\n\n  ")
	assert.Equal(t, []string{"Birinci cümlə", "İkinci cümlə", "Üçüncü sətir"}, got)
}

func TestOfflineDeckShape(t *testing.T) {
	text := "Bir. İki. Üç. Dörd. Beş."
	deck := OfflineDeck(text, 6)

	require.Len(t, deck, 6)
	assert.Equal(t, models.TypeTitle, deck[0].Type)
	assert.Equal(t, "Bir", deck[0].Title)
	assert.Equal(t, models.TypeIntro, deck[1].Type)
	assert.NotEmpty(t, deck[1].Aim)
	assert.NotEmpty(t, deck[1].Summary)
	for i := 2; i < 5; i++ {
		assert.Equal(t, models.TypeMain, deck[i].Type, "slide %d", i)
		assert.NotEmpty(t, deck[i].Title)
		require.NotNil(t, deck[i].Visual)
		assert.Equal(t, models.VisualNone, deck[i].Visual.Type)
	}
	assert.Equal(t, models.TypeRecommendation, deck[5].Type)

	// 5 sentences fill the first main slide and one point of the second;
	// everything after that pads with empty strings.
	assert.Equal(t, [4]string{"Bir", "İki", "Üç", "Dörd"}, deck[2].Points())
	assert.Equal(t, [4]string{"Beş", "", "", ""}, deck[3].Points())
	assert.Equal(t, [4]string{"", "", "", ""}, deck[4].Points())
}

func TestOfflineDeckTitleCap(t *testing.T) {
	long := strings.Repeat("ə", 100)
	deck := OfflineDeck(long, 5)
	assert.Len(t, []rune(deck[0].Title), 60)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "one two", shorten("  one   two ", 20))
	got := shorten("alpha beta gamma delta", 12)
	assert.True(t, strings.HasSuffix(got, "…"), "got %q", got)
	assert.LessOrEqual(t, len([]rune(got)), 12)
}

package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/presentation-assistant/internal/models"
)

func renderToParts(t *testing.T, deck models.Deck) map[string]string {
	t.Helper()
	r := &Renderer{Log: zerolog.Nop()}
	out, err := r.Render(context.Background(), deck)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}
	return parts
}

func slideParts(parts map[string]string) []string {
	var names []string
	for name := range parts {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	return names
}

func fullDeck() models.Deck {
	return models.Deck{
		{Type: models.TypeTitle, Title: "İllik hesabat"},
		{Type: models.TypeIntro, Aim: "Nəticələri təqdim etmək", Summary: "Layihənin qısa xülasəsi."},
		{
			Type: models.TypeMain, Title: "Satış dinamikası",
			Point1: "Birinci bənd", Point2: "İkinci bənd", Point3: "Üçüncü bənd", Point4: "Dördüncü bənd",
			Visual: &models.Visual{
				Type: models.VisualBar, Title: "Satışlar",
				X: []any{"2022", "2023"}, Y: []any{10, 20},
				XLabel: "İl", YLabel: "Milyon",
			},
		},
		{
			Type: models.TypeMain, Title: "Bazar payı",
			Point1: "Bənd", Visual: models.EmptyVisual(),
		},
		{
			Type: models.TypeRecommendation,
			Recommendation1: "Birinci tövsiyə", Recommendation2: "İkinci tövsiyə",
			Recommendation3: "Üçüncü tövsiyə", Recommendation4: "Dördüncü tövsiyə",
		},
	}
}

func TestRenderSlideCountAndScaffoldRemoval(t *testing.T) {
	parts := renderToParts(t, fullDeck())

	// title + intro + 2 mains + 1 visual + recommendation
	assert.Len(t, slideParts(parts), 6)

	for _, body := range parts {
		assert.NotContains(t, body, ">xxxx<", "point scaffold must not survive")
	}
	assert.NotContains(t, parts["ppt/presentation.xml"], "rId8", "sldIdLst lists exactly the rendered slides")
	assert.Contains(t, parts["ppt/presentation.xml"], "rId7")
}

func TestRenderFillsAnchors(t *testing.T) {
	parts := renderToParts(t, fullDeck())

	s1 := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, s1, "İllik hesabat")
	assert.NotContains(t, s1, anchorTitle)
	assert.NotContains(t, s1, ">"+anchorDate+"<")

	s2 := parts["ppt/slides/slide2.xml"]
	assert.Contains(t, s2, anchorAim, "label shapes stay as headings")
	assert.Contains(t, s2, "Nəticələri təqdim etmək")
	assert.Contains(t, s2, "Layihənin qısa xülasəsi.")

	s3 := parts["ppt/slides/slide3.xml"]
	assert.Contains(t, s3, "Satış dinamikası")
	assert.Contains(t, s3, "Dördüncü bənd")
}

func TestRenderChartVisualEmbedsImage(t *testing.T) {
	parts := renderToParts(t, fullDeck())

	// slide 4 is the visual slide cloned after the first main slide
	s4 := parts["ppt/slides/slide4.xml"]
	assert.Contains(t, s4, "Satışlar")
	assert.Contains(t, s4, "<p:pic>")

	rels := parts["ppt/slides/_rels/slide4.xml.rels"]
	assert.Contains(t, rels, "media/image1.png")

	media, ok := parts["ppt/media/image1.png"]
	require.True(t, ok, "chart raster must be packaged")
	assert.True(t, strings.HasPrefix(media, "\x89PNG"))
}

func TestRenderRecommendationBullets(t *testing.T) {
	parts := renderToParts(t, fullDeck())

	s6 := parts["ppt/slides/slide6.xml"]
	assert.Contains(t, s6, "Tövsiyələr")
	assert.NotContains(t, s6, anchorBody)
	for _, rec := range []string{"Birinci tövsiyə", "İkinci tövsiyə", "Üçüncü tövsiyə", "Dördüncü tövsiyə"} {
		assert.Contains(t, s6, rec)
	}
}

func TestRenderBrokenChartDegradesToText(t *testing.T) {
	deck := models.Deck{
		{
			Type: models.TypeMain, Title: "Mövzu", Point1: "Bənd",
			Visual: &models.Visual{Type: models.VisualBar, Title: "Boş qrafik"},
		},
	}
	parts := renderToParts(t, deck)
	require.Len(t, slideParts(parts), 2)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "[Şəkil təsviri: Boş qrafik]")
}

func TestRenderImageVisualWithoutBackendDegrades(t *testing.T) {
	deck := models.Deck{
		{
			Type: models.TypeMain, Title: "Mövzu", Point1: "Bənd",
			Visual: &models.Visual{Type: models.VisualImage, Description: "şəhər panoraması"},
		},
	}
	parts := renderToParts(t, deck)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "[Şəkil təsviri: şəhər panoraması]")
}

func TestRenderEscapesMarkupInContent(t *testing.T) {
	deck := models.Deck{
		{Type: models.TypeTitle, Title: `A & B <Hesabat>`},
	}
	parts := renderToParts(t, deck)
	s1 := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, s1, "A &amp; B &lt;Hesabat&gt;")
}

type fakeImages struct{ data []byte }

func (f *fakeImages) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	return f.data, nil
}

type fakeTranslator struct{ got string }

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.got = text
	return "city skyline", nil
}

func TestRenderImageVisualUsesGeneratedBytes(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)
	tr := &fakeTranslator{}
	r := &Renderer{Log: zerolog.Nop(), Translator: tr, Images: &fakeImages{data: png}}

	deck := models.Deck{
		{
			Type: models.TypeMain, Title: "Mövzu", Point1: "Bənd",
			Visual: &models.Visual{Type: models.VisualImage, Description: "şəhər panoraması"},
		},
	}
	out, err := r.Render(context.Background(), deck)
	require.NoError(t, err)
	assert.Equal(t, "şəhər panoraması", tr.got)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	found := false
	for _, f := range zr.File {
		if f.Name == "ppt/media/image1.png" {
			found = true
		}
	}
	assert.True(t, found)
}

// Package pdfdoc lays a deck out as a linear paginated PDF, one slide per
// page. It is independent of the template-based deck renderer: same model in,
// different typography rules out.
package pdfdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/render/chart"
)

const (
	pageMargin  = 19.0 // 0.75 inch in mm
	imageWidth  = 127.0
	imageHeight = 76.0
)

// Renderer produces the paginated document encoding of a deck.
type Renderer struct {
	Log zerolog.Logger
}

// Render writes the deck as PDF bytes. A page break separates every pair of
// adjacent slides; per-visual failures degrade to a bracketed description.
func (r *Renderer) Render(deck models.Deck) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, slide := range deck {
		pdf.AddPage()
		switch slide.Type {
		case models.TypeTitle:
			pdf.Ln(60)
			pdf.SetFont("Helvetica", "B", 32)
			pdf.MultiCell(0, 14, tr(slide.Title), "", "C", false)

		case models.TypeIntro:
			r.heading(pdf, tr, "Giriş")
			pdf.SetFont("Helvetica", "", 14)
			if slide.Aim != "" {
				r.labeled(pdf, tr, "Məqsəd", slide.Aim)
			}
			if slide.Summary != "" {
				r.labeled(pdf, tr, "Xülasə", slide.Summary)
			}

		case models.TypeMain:
			if slide.Title != "" {
				r.heading(pdf, tr, slide.Title)
			}
			pdf.SetFont("Helvetica", "", 14)
			for _, point := range slide.Points() {
				if point != "" {
					r.bullet(pdf, tr, point)
				}
			}
			r.visual(pdf, tr, i, slide.Visual)

		case models.TypeRecommendation:
			r.heading(pdf, tr, "Tövsiyələr")
			pdf.SetFont("Helvetica", "", 14)
			for _, rec := range slide.Recommendations() {
				if rec != "" {
					r.bullet(pdf, tr, rec)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(0, 10, tr(text), "", "L", false)
	pdf.Ln(4)
}

func (r *Renderer) labeled(pdf *fpdf.Fpdf, tr func(string) string, label, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(label+":"), "", "L", false)
	pdf.SetFont("Helvetica", "", 14)
	pdf.MultiCell(0, 7, tr(text), "", "L", false)
	pdf.Ln(3)
}

func (r *Renderer) bullet(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetX(pageMargin + 5)
	pdf.MultiCell(0, 7, tr("• "+text), "", "L", false)
	pdf.Ln(2)
}

// visual embeds the slide's chart or image below the points. Charts are
// rasterized in-process; image visuals are read from the generated asset
// path. Anything missing or broken becomes a bracketed description line.
func (r *Renderer) visual(pdf *fpdf.Fpdf, tr func(string) string, slideIndex int, v *models.Visual) {
	if v == nil || v.Type == "" || v.Type == models.VisualNone {
		return
	}

	switch v.Type {
	case models.VisualBar, models.VisualLine, models.VisualPie:
		png, err := renderChart(v)
		if err != nil {
			r.Log.Warn().Err(err).Int("slide", slideIndex).Msg("chart render failed, using text fallback")
			r.fallbackText(pdf, tr, v)
			return
		}
		name := fmt.Sprintf("chart-%d", slideIndex)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		pdf.Ln(4)
		pdf.ImageOptions(name, pageMargin, 0, imageWidth, imageHeight, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	case models.VisualImage:
		data, err := readImage(v.ImagePath)
		if err != nil {
			r.fallbackText(pdf, tr, v)
			return
		}
		kind := sniffImageType(data, v.ImagePath)
		name := fmt.Sprintf("image-%d", slideIndex)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
		pdf.Ln(4)
		pdf.ImageOptions(name, pageMargin, 0, imageWidth, imageHeight, true, fpdf.ImageOptions{ImageType: kind}, 0, "")

	default:
		r.fallbackText(pdf, tr, v)
	}
}

func renderChart(v *models.Visual) ([]byte, error) {
	if v.Type == models.VisualPie {
		return chart.Render(v.Type, v.Title, chart.Strings(v.Labels), chart.SafeNumeric(v.Sizes), "", "")
	}
	return chart.Render(v.Type, v.Title, chart.Strings(v.X), chart.SafeNumeric(v.Y), v.XLabel, v.YLabel)
}

func (r *Renderer) fallbackText(pdf *fpdf.Fpdf, tr func(string) string, v *models.Visual) {
	desc := v.Description
	if desc == "" {
		desc = v.Title
	}
	if desc == "" {
		return
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 14)
	pdf.MultiCell(0, 7, tr(fmt.Sprintf("[Vizual: %s]", desc)), "", "L", false)
	pdf.SetFont("Helvetica", "", 14)
}

func readImage(path string) ([]byte, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(path)
}

func sniffImageType(data []byte, path string) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "PNG"
	}
	if bytes.HasPrefix(data, []byte("\xff\xd8")) {
		return "JPG"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return "PNG"
	}
}

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Slide types produced by the generator. A deck always starts with a title
// slide and ends with a recommendation slide.
const (
	TypeTitle          = "title"
	TypeIntro          = "intro"
	TypeMain           = "main"
	TypeRecommendation = "recommendation"
)

// Visual kinds allowed on a main slide.
const (
	VisualNone  = "none"
	VisualImage = "image"
	VisualBar   = "bar"
	VisualPie   = "pie"
	VisualLine  = "line"
)

// KnownSlideType reports whether t is one of the four slide types.
func KnownSlideType(t string) bool {
	switch t {
	case TypeTitle, TypeIntro, TypeMain, TypeRecommendation:
		return true
	}
	return false
}

// Visual is the optional chart/image specification embedded in a main slide.
// Axis and size series are kept as raw JSON values because models frequently
// emit numbers as strings ("50%", "3.2"); coercion happens at render time.
type Visual struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	XLabel      string `json:"xlabel"`
	YLabel      string `json:"ylabel"`
	X           []any  `json:"x"`
	Y           []any  `json:"y"`
	Labels      []any  `json:"labels"`
	Sizes       []any  `json:"sizes"`
	// ImagePath is set once an image has been generated for this visual.
	ImagePath string `json:"image_path,omitempty"`
}

// Slide is a tagged union over the four slide variants, discriminated by Type.
// Only the fields belonging to the variant are meaningful.
type Slide struct {
	Type string `json:"type"`

	// title, main
	Title string `json:"title,omitempty"`

	// intro
	Aim     string `json:"aim,omitempty"`
	Summary string `json:"summary,omitempty"`

	// main
	Point1 string  `json:"point1,omitempty"`
	Point2 string  `json:"point2,omitempty"`
	Point3 string  `json:"point3,omitempty"`
	Point4 string  `json:"point4,omitempty"`
	Visual *Visual `json:"visual,omitempty"`

	// recommendation
	Recommendation1 string `json:"recommendation1,omitempty"`
	Recommendation2 string `json:"recommendation2,omitempty"`
	Recommendation3 string `json:"recommendation3,omitempty"`
	Recommendation4 string `json:"recommendation4,omitempty"`
	Recommendation5 string `json:"recommendation5,omitempty"`
}

// Points returns the four content points of a main slide in order,
// including empty ones.
func (s *Slide) Points() [4]string {
	return [4]string{s.Point1, s.Point2, s.Point3, s.Point4}
}

// Recommendations returns the five recommendation fields in order,
// including empty ones.
func (s *Slide) Recommendations() [5]string {
	return [5]string{s.Recommendation1, s.Recommendation2, s.Recommendation3, s.Recommendation4, s.Recommendation5}
}

// MarshalJSON emits only the fields that belong to the slide's variant, so a
// stored deck looks exactly like the schema the model was asked to produce.
// Main slides always carry all four points (possibly empty) and a visual.
func (s Slide) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": s.Type}
	switch s.Type {
	case TypeTitle:
		m["title"] = s.Title
	case TypeIntro:
		m["aim"] = s.Aim
		m["summary"] = s.Summary
	case TypeMain:
		m["title"] = s.Title
		m["point1"] = s.Point1
		m["point2"] = s.Point2
		m["point3"] = s.Point3
		m["point4"] = s.Point4
		v := s.Visual
		if v == nil {
			v = EmptyVisual()
		}
		m["visual"] = v
	case TypeRecommendation:
		for i, rec := range s.Recommendations() {
			if rec != "" {
				m[fmt.Sprintf("recommendation%d", i+1)] = rec
			}
		}
	}
	return json.Marshal(m)
}

// EmptyVisual returns a "none" visual with all chart fields empty.
func EmptyVisual() *Visual {
	return &Visual{
		Type:   VisualNone,
		X:      []any{},
		Y:      []any{},
		Labels: []any{},
		Sizes:  []any{},
	}
}

// Deck is the ordered, validated sequence of slides produced by the pipeline.
// Renderers read it; they never reorder, drop, or mutate slides.
type Deck []Slide

// Presentation is the persisted form of a generated deck.
type Presentation struct {
	ID       string   `json:"id"`
	Slides   Deck     `json:"slides"`
	Metadata Metadata `json:"metadata"`
}

// Title returns the text of the deck's title slide, or "" when absent.
func (p *Presentation) Title() string {
	for _, s := range p.Slides {
		if s.Type == TypeTitle {
			return s.Title
		}
	}
	return ""
}

// Metadata records how and when a presentation was generated.
type Metadata struct {
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	SlideCount       int       `json:"slide_count,omitempty"`
	IncludeVisuals   bool      `json:"include_visuals,omitempty"`
	SourceTextLength int       `json:"source_text_length,omitempty"`
}

// Summary is the listing view of a stored presentation.
type Summary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Metadata   Metadata `json:"metadata"`
	SlideCount int      `json:"slide_count"`
}

// Package deck renders a deck into a presentation file by filling a fixed
// base template: anchor shapes are matched by their exact text and replaced
// with deck content, prototype slides are cloned per content slide, and the
// prototypes themselves are dropped from the final output.
package deck

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/render/chart"
)

// Anchor texts are the renderer's contract with the base template. Each names
// a shape role; the renderer finds shapes by exact text match only.
const (
	anchorTitle   = "Təqdimatın adı"    // slide 1: presentation title
	anchorDate    = "Tarix"             // slide 1: generation date
	anchorAim     = "Məqsəd"            // slide 2: aim label, text appended below
	anchorSummary = "Layihənin məzmunu" // slide 2: summary label, text appended below
	anchorHeading = "Başlıq"            // slides 3 and 4: heading placeholder
	anchorPoint   = "xxxx"              // slide 3: one of four point placeholders
	anchorBody    = "Məzmun"            // slide 4: body content placeholder
)

const (
	contentTypesPart = "[Content_Types].xml"
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"

	slideContentType = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	slideRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	masterRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	layoutRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	imageRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Picture box for visual slides, a 16:9 area centered under the heading.
const (
	picX  = 2072640
	picY  = 1600200
	picCX = 8046720
	picCY = 4526280
)

// Translator turns a visual description into the image backend's language.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ImageGenerator produces raster bytes for a prompt; (nil, nil) means the
// backend is unconfigured and the caller should degrade.
type ImageGenerator interface {
	TextToImage(ctx context.Context, prompt string) ([]byte, error)
}

// Renderer fills the embedded base template from a deck. Translator and
// Images are optional; without them image visuals degrade to description
// text. The zero value renders charts and text but no generated images.
type Renderer struct {
	Log        zerolog.Logger
	Translator Translator
	Images     ImageGenerator
}

type renderedSlide struct {
	xml   string
	media *mediaRef
}

type mediaRef struct {
	target string // part name under ppt/
	data   []byte
}

// Render produces the presentation bytes for deck. Per-visual failures
// degrade to placeholder text and are logged; only archive-level problems
// return an error.
func (r *Renderer) Render(ctx context.Context, deck models.Deck) ([]byte, error) {
	p, err := openPkg(templatePPTX)
	if err != nil {
		return nil, err
	}
	titleProto := p.part("ppt/slides/slide1.xml")
	introProto := p.part("ppt/slides/slide2.xml")
	mainProto := p.part("ppt/slides/slide3.xml")
	bodyProto := p.part("ppt/slides/slide4.xml")

	b := &builder{shapeID: 100, imageID: 1}
	var slides []renderedSlide
	for i, slide := range deck {
		switch slide.Type {
		case models.TypeTitle:
			slides = append(slides, renderedSlide{xml: r.titleSlide(titleProto, slide)})
		case models.TypeIntro:
			slides = append(slides, renderedSlide{xml: b.introSlide(introProto, slide)})
		case models.TypeMain:
			slides = append(slides, renderedSlide{xml: mainSlide(mainProto, slide)})
			if slide.Visual != nil && slide.Visual.Type != "" && slide.Visual.Type != models.VisualNone {
				slides = append(slides, r.visualSlide(ctx, b, bodyProto, i, slide))
			}
		case models.TypeRecommendation:
			slides = append(slides, renderedSlide{xml: recommendationSlide(bodyProto, slide)})
		default:
			r.Log.Warn().Str("type", slide.Type).Int("slide", i).Msg("skipping slide of unknown type")
		}
	}

	assemble(p, slides)
	return p.write()
}

func (r *Renderer) titleSlide(proto string, slide models.Slide) string {
	out := replaceAnchor(proto, anchorTitle, slide.Title)
	return replaceAnchor(out, anchorDate, time.Now().Format("02/01/2006"))
}

func (b *builder) introSlide(proto string, slide models.Slide) string {
	out := proto
	if slide.Aim != "" {
		out = b.appendBelow(out, anchorAim, slide.Aim)
	}
	if slide.Summary != "" {
		out = b.appendBelow(out, anchorSummary, slide.Summary)
	}
	return out
}

func mainSlide(proto string, slide models.Slide) string {
	out := replaceAnchor(proto, anchorHeading, slide.Title)
	for _, point := range slide.Points() {
		out = replaceAnchor(out, anchorPoint, point)
	}
	return out
}

func recommendationSlide(proto string, slide models.Slide) string {
	out := replaceAnchor(proto, anchorHeading, "Tövsiyələr")
	var paras strings.Builder
	for _, rec := range slide.Recommendations() {
		if rec == "" {
			continue
		}
		fmt.Fprintf(&paras, `<a:p><a:pPr><a:buChar char="•"/></a:pPr><a:r><a:rPr lang="az-Latn-AZ" sz="2000" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, esc(rec))
	}
	return replaceParagraph(out, anchorBody, paras.String())
}

// visualSlide clones the body prototype into a chart or image slide. Any
// failure on the way to raster bytes turns into a text placeholder; the deck
// keeps rendering.
func (r *Renderer) visualSlide(ctx context.Context, b *builder, proto string, slideIndex int, slide models.Slide) renderedSlide {
	v := slide.Visual
	heading := v.Title
	if heading == "" {
		heading = slide.Title
	}
	out := replaceAnchor(proto, anchorHeading, heading)

	data, err := r.visualBytes(ctx, v)
	if err != nil {
		r.Log.Warn().Err(err).Int("slide", slideIndex).Str("visual", v.Type).Msg("visual failed, using text placeholder")
	}
	if data == nil {
		return renderedSlide{xml: replaceAnchor(out, anchorBody, fmt.Sprintf("[Şəkil təsviri: %s]", visualDescription(v)))}
	}

	imageID := b.imageID
	b.imageID++
	target := fmt.Sprintf("media/image%d%s", imageID, imageExt(data))
	out = replaceParagraph(out, anchorBody, "")
	out = appendShape(out, fmt.Sprintf(
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		b.nextShapeID(), imageID, picX, picY, picCX, picCY))
	return renderedSlide{xml: out, media: &mediaRef{target: "ppt/" + target, data: data}}
}

func (r *Renderer) visualBytes(ctx context.Context, v *models.Visual) ([]byte, error) {
	switch v.Type {
	case models.VisualBar, models.VisualLine:
		return chart.Render(v.Type, v.Title, chart.Strings(v.X), chart.SafeNumeric(v.Y), v.XLabel, v.YLabel)
	case models.VisualPie:
		return chart.Render(v.Type, v.Title, chart.Strings(v.Labels), chart.SafeNumeric(v.Sizes), "", "")
	case models.VisualImage:
		if v.ImagePath != "" {
			if data, err := os.ReadFile(v.ImagePath); err == nil {
				return data, nil
			}
		}
		if r.Images == nil {
			return nil, nil
		}
		prompt := visualDescription(v)
		if r.Translator != nil {
			if translated, err := r.Translator.Translate(ctx, prompt, "az", "en"); err == nil && translated != "" {
				prompt = translated
			} else if err != nil {
				r.Log.Warn().Err(err).Msg("description translation failed, using original text")
			}
		}
		return r.Images.TextToImage(ctx, prompt)
	default:
		return nil, fmt.Errorf("unsupported visual type %q", v.Type)
	}
}

func visualDescription(v *models.Visual) string {
	if v.Description != "" {
		return v.Description
	}
	return v.Title
}

type builder struct {
	shapeID int
	imageID int
}

func (b *builder) nextShapeID() int {
	b.shapeID++
	return b.shapeID
}

// appendBelow adds a text box directly under the shape whose text equals
// anchor, inheriting its horizontal extent. A missing anchor leaves the slide
// unchanged.
func (b *builder) appendBelow(slideXML, anchor, text string) string {
	x, y, cx, cy, ok := shapeGeometry(slideXML, anchor)
	if !ok {
		return slideXML
	}
	id := b.nextShapeID()
	box := fmt.Sprintf(
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/><a:p><a:r><a:rPr lang="az-Latn-AZ" sz="2000" dirty="0"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
		id, id, x, y+cy+91440, cx, 1828800, esc(text))
	return appendShape(slideXML, box)
}

func replaceAnchor(slideXML, anchor, value string) string {
	return strings.Replace(slideXML, "<a:t>"+anchor+"</a:t>", "<a:t>"+esc(value)+"</a:t>", 1)
}

// replaceParagraph swaps the whole <a:p> containing anchor for the given
// paragraph markup (already escaped), allowing multi-paragraph insertions.
func replaceParagraph(slideXML, anchor, paragraphs string) string {
	at := strings.Index(slideXML, "<a:t>"+anchor+"</a:t>")
	if at < 0 {
		return slideXML
	}
	start := strings.LastIndex(slideXML[:at], "<a:p>")
	end := strings.Index(slideXML[at:], "</a:p>")
	if start < 0 || end < 0 {
		return slideXML
	}
	end += at + len("</a:p>")
	return slideXML[:start] + paragraphs + slideXML[end:]
}

func appendShape(slideXML, shape string) string {
	return strings.Replace(slideXML, "</p:spTree>", shape+"</p:spTree>", 1)
}

var xfrmPattern = regexp.MustCompile(`<a:off x="(\d+)" y="(\d+)"/><a:ext cx="(\d+)" cy="(\d+)"/>`)

func shapeGeometry(slideXML, anchor string) (x, y, cx, cy int64, ok bool) {
	at := strings.Index(slideXML, "<a:t>"+anchor+"</a:t>")
	if at < 0 {
		return 0, 0, 0, 0, false
	}
	start := strings.LastIndex(slideXML[:at], "<p:sp>")
	if start < 0 {
		return 0, 0, 0, 0, false
	}
	m := xfrmPattern.FindStringSubmatch(slideXML[start:at])
	if m == nil {
		return 0, 0, 0, 0, false
	}
	return emu(m[1]), emu(m[2]), emu(m[3]), emu(m[4]), true
}

func emu(s string) int64 {
	var n int64
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	return n
}

var slideOverridePattern = regexp.MustCompile(`<Override PartName="/ppt/slides/[^"]*"[^>]*/>`)

// assemble replaces the template's slide set with the rendered slides,
// renumbering parts, relationships, and content-type overrides. The scaffold
// prototype slides disappear here: only rendered slides are written back.
func assemble(p *pkg, slides []renderedSlide) {
	for i := 1; i <= 4; i++ {
		p.deletePart(fmt.Sprintf("ppt/slides/slide%d.xml", i))
		p.deletePart(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i))
	}

	var sldIDs, presRels, overrides strings.Builder
	presRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	presRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	fmt.Fprintf(&presRels, `<Relationship Id="rId1" Type="%s" Target="slideMasters/slideMaster1.xml"/>`, masterRelType)

	for i, s := range slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		p.setPart(name, s.xml)

		var rels strings.Builder
		rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
		rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
		fmt.Fprintf(&rels, `<Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, layoutRelType)
		if s.media != nil {
			p.parts[s.media.target] = s.media.data
			fmt.Fprintf(&rels, `<Relationship Id="rId2" Type="%s" Target="../%s"/>`, imageRelType, strings.TrimPrefix(s.media.target, "ppt/"))
		}
		rels.WriteString(`</Relationships>`)
		p.setPart(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), rels.String())

		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, i+2, slideRelType, i+1)
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="%s"/>`, i+1, slideContentType)
	}
	presRels.WriteString(`</Relationships>`)

	pres := p.part(presentationPart)
	from := strings.Index(pres, "<p:sldIdLst>")
	to := strings.Index(pres, "</p:sldIdLst>")
	if from >= 0 && to > from {
		pres = pres[:from] + "<p:sldIdLst>" + sldIDs.String() + pres[to:]
	}
	p.setPart(presentationPart, pres)
	p.setPart(presentationRels, presRels.String())

	ct := slideOverridePattern.ReplaceAllString(p.part(contentTypesPart), "")
	ct = strings.Replace(ct, "</Types>", overrides.String()+"</Types>", 1)
	p.setPart(contentTypesPart, ct)
}

func imageExt(data []byte) string {
	if len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8 {
		return ".jpeg"
	}
	return ".png"
}

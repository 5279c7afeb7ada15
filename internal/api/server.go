// Package api exposes the generation pipeline and presentation store over
// HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/extract"
	"github.com/example/presentation-assistant/internal/models"
	"github.com/example/presentation-assistant/internal/parse"
	"github.com/example/presentation-assistant/internal/pipeline"
	"github.com/example/presentation-assistant/internal/render/deck"
	"github.com/example/presentation-assistant/internal/render/pdfdoc"
	"github.com/example/presentation-assistant/internal/storage"
)

const (
	minTextRunes  = 50
	minSlideCount = 4
	maxSlideCount = 20

	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Server wires the pipeline, store, and renderers into an HTTP handler.
// Images and Translator are optional; without them the image endpoints report
// the backend as unconfigured.
type Server struct {
	Log        zerolog.Logger
	Store      *storage.Store
	Gen        *pipeline.Generator
	Deck       *deck.Renderer
	PDF        *pdfdoc.Renderer
	Images     deck.ImageGenerator
	Translator deck.Translator
}

// Router builds the chi handler with CORS and request logging applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware, s.logMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/generate", s.handleGenerate)
	r.Get("/templates", s.handleTemplates)

	r.Route("/presentations", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Put("/", s.handleReplace)
			r.Delete("/", s.handleDelete)
			r.Post("/reorder", s.handleReorder)
			r.Get("/slides/{index}", s.handleGetSlide)
			r.Post("/slides/{index}", s.handleUpdateSlide)
			r.Get("/export/pptx", s.handleExportPPTX)
			r.Post("/export/pdf", s.handleExportPDF)
			r.Post("/slides/{index}/image", s.handleSlideImage)
			r.Post("/generate-all-images", s.handleAllImages)
		})
	})
	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(extract.MaxFileBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, extract.MaxFileBytes+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	text, err := extract.Text(data, header.Filename)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if utf8.RuneCountInString(text) < minTextRunes {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("document text too short: need at least %d characters", minTextRunes))
		return
	}

	slideCount := 7
	if v := r.FormValue("slide_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minSlideCount || n > maxSlideCount {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("slide_count must be between %d and %d", minSlideCount, maxSlideCount))
			return
		}
		slideCount = n
	}
	includeVisuals := boolValue(r.FormValue("include_visuals"))

	slides, p, err := s.Gen.Generate(r.Context(), text, slideCount, includeVisuals)
	if err != nil {
		switch {
		case errors.Is(err, parse.ErrBadInput):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, parse.ErrMalformed):
			s.respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.Log.Error().Err(err).Msg("generation failed")
			s.respondError(w, http.StatusInternalServerError, "generation failed")
		}
		return
	}

	if boolValue(r.FormValue("store")) {
		now := time.Now().UTC()
		pres := &models.Presentation{
			ID:     storage.NewID(),
			Slides: slides,
			Metadata: models.Metadata{
				CreatedAt:        now,
				UpdatedAt:        now,
				OriginalFilename: header.Filename,
				SlideCount:       slideCount,
				IncludeVisuals:   includeVisuals,
				SourceTextLength: len(text),
			},
		}
		if err := s.Store.Save(pres); err != nil {
			s.Log.Error().Err(err).Msg("saving presentation failed")
			s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
			return
		}
		resp := map[string]any{
			"presentation_id": pres.ID,
			"slide_count":     len(slides),
			"title":           pres.Title(),
		}
		if p.Uneven {
			resp["note"] = p.Note()
		}
		s.respondJSON(w, http.StatusCreated, resp)
		return
	}

	out, err := s.Deck.Render(r.Context(), slides)
	if err != nil {
		s.Log.Error().Err(err).Msg("deck render failed")
		s.respondError(w, http.StatusInternalServerError, "rendering failed")
		return
	}
	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="presentation.pptx"`)
	w.Write(out)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.Store.List()
	if err != nil {
		s.Log.Error().Err(err).Msg("listing presentations failed")
		s.respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"presentations": summaries})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, pres)
}

func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	var body struct {
		Slides models.Deck `json:"slides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Slides) == 0 {
		s.respondError(w, http.StatusBadRequest, "body must contain a non-empty slides array")
		return
	}
	for i, slide := range body.Slides {
		if !models.KnownSlideType(slide.Type) {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("slide %d has unknown type %q", i, slide.Type))
			return
		}
	}
	pres.Slides = body.Slides
	pres.Metadata.UpdatedAt = time.Now().UTC()
	if err := s.Store.Save(pres); err != nil {
		s.Log.Error().Err(err).Msg("saving presentation failed")
		s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
		return
	}
	s.respondJSON(w, http.StatusOK, pres)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	existed, err := s.Store.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.Log.Error().Err(err).Msg("deleting presentation failed")
		s.respondError(w, http.StatusInternalServerError, "deleting failed")
		return
	}
	if !existed {
		s.respondError(w, http.StatusNotFound, "presentation not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	var body struct {
		Order []int `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "body must contain an order array")
		return
	}
	if len(body.Order) != len(pres.Slides) {
		s.respondError(w, http.StatusBadRequest, "order must list every slide index exactly once")
		return
	}
	seen := make(map[int]bool, len(body.Order))
	reordered := make(models.Deck, 0, len(pres.Slides))
	for _, idx := range body.Order {
		if idx < 0 || idx >= len(pres.Slides) || seen[idx] {
			s.respondError(w, http.StatusBadRequest, "order must list every slide index exactly once")
			return
		}
		seen[idx] = true
		reordered = append(reordered, pres.Slides[idx])
	}
	pres.Slides = reordered
	pres.Metadata.UpdatedAt = time.Now().UTC()
	if err := s.Store.Save(pres); err != nil {
		s.Log.Error().Err(err).Msg("saving presentation failed")
		s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
		return
	}
	s.respondJSON(w, http.StatusOK, pres)
}

func (s *Server) handleGetSlide(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	idx, ok := s.slideIndex(w, r, pres)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, pres.Slides[idx])
}

func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	idx, ok := s.slideIndex(w, r, pres)
	if !ok {
		return
	}
	var slide models.Slide
	if err := json.NewDecoder(r.Body).Decode(&slide); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid slide body")
		return
	}
	if !models.KnownSlideType(slide.Type) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown slide type %q", slide.Type))
		return
	}
	pres.Slides[idx] = slide
	pres.Metadata.UpdatedAt = time.Now().UTC()
	if err := s.Store.Save(pres); err != nil {
		s.Log.Error().Err(err).Msg("saving presentation failed")
		s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
		return
	}
	s.respondJSON(w, http.StatusOK, pres.Slides[idx])
}

func (s *Server) handleExportPPTX(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	out, err := s.Deck.Render(r.Context(), pres.Slides)
	if err != nil {
		s.Log.Error().Err(err).Msg("deck render failed")
		s.respondError(w, http.StatusInternalServerError, "rendering failed")
		return
	}
	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pptx"`, pres.ID))
	w.Write(out)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	out, err := s.PDF.Render(pres.Slides)
	if err != nil {
		s.Log.Error().Err(err).Msg("pdf render failed")
		s.respondError(w, http.StatusInternalServerError, "rendering failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, pres.ID))
	w.Write(out)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"templates": []map[string]string{
			{"id": "default", "name": "Standart", "description": "Başlıq, giriş, məzmun və tövsiyə slaydları olan standart şablon"},
		},
	})
}

func (s *Server) loadPresentation(w http.ResponseWriter, r *http.Request) (*models.Presentation, bool) {
	pres, err := s.Store.Load(chi.URLParam(r, "id"))
	if err != nil {
		s.Log.Error().Err(err).Msg("loading presentation failed")
		s.respondError(w, http.StatusInternalServerError, "loading failed")
		return nil, false
	}
	if pres == nil {
		s.respondError(w, http.StatusNotFound, "presentation not found")
		return nil, false
	}
	return pres, true
}

func (s *Server) slideIndex(w http.ResponseWriter, r *http.Request, pres *models.Presentation) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= len(pres.Slides) {
		s.respondError(w, http.StatusBadRequest, "invalid slide index")
		return 0, false
	}
	return idx, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error().Err(err).Msg("encoding response failed")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func boolValue(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}

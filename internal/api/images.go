package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/presentation-assistant/internal/models"
)

// handleSlideImage generates the illustration for one slide's image visual
// and records its path on a fresh copy of the presentation.
func (s *Server) handleSlideImage(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	idx, ok := s.slideIndex(w, r, pres)
	if !ok {
		return
	}
	path, err := s.generateSlideImage(r.Context(), pres, idx)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if path == "" {
		s.respondError(w, http.StatusServiceUnavailable, "image backend is not configured")
		return
	}
	pres.Metadata.UpdatedAt = time.Now().UTC()
	if err := s.Store.Save(pres); err != nil {
		s.Log.Error().Err(err).Msg("saving presentation failed")
		s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"slide": idx, "image_path": path})
}

// handleAllImages generates illustrations for every image visual in the deck,
// reporting per-slide outcomes instead of failing the whole request.
func (s *Server) handleAllImages(w http.ResponseWriter, r *http.Request) {
	pres, ok := s.loadPresentation(w, r)
	if !ok {
		return
	}
	results := make([]map[string]any, 0)
	changed := false
	for idx, slide := range pres.Slides {
		if slide.Type != models.TypeMain || slide.Visual == nil || slide.Visual.Type != models.VisualImage {
			continue
		}
		path, err := s.generateSlideImage(r.Context(), pres, idx)
		entry := map[string]any{"slide": idx}
		switch {
		case err != nil:
			entry["error"] = err.Error()
		case path == "":
			entry["error"] = "image backend is not configured"
		default:
			entry["image_path"] = path
			changed = true
		}
		results = append(results, entry)
	}
	if changed {
		pres.Metadata.UpdatedAt = time.Now().UTC()
		if err := s.Store.Save(pres); err != nil {
			s.Log.Error().Err(err).Msg("saving presentation failed")
			s.respondError(w, http.StatusInternalServerError, "saving presentation failed")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) generateSlideImage(ctx context.Context, pres *models.Presentation, idx int) (string, error) {
	slide := pres.Slides[idx]
	if slide.Type != models.TypeMain || slide.Visual == nil || slide.Visual.Type != models.VisualImage {
		return "", fmt.Errorf("slide %d has no image visual", idx)
	}
	if s.Images == nil {
		return "", nil
	}

	prompt := slide.Visual.Description
	if prompt == "" {
		prompt = slide.Visual.Title
	}
	if prompt == "" {
		return "", fmt.Errorf("slide %d visual has no description", idx)
	}
	if s.Translator != nil {
		if translated, err := s.Translator.Translate(ctx, prompt, "az", "en"); err == nil && translated != "" {
			prompt = translated
		} else if err != nil {
			s.Log.Warn().Err(err).Msg("description translation failed, using original text")
		}
	}

	data, err := s.Images.TextToImage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if data == nil {
		return "", nil
	}

	path := filepath.Join(s.Store.Dir(), fmt.Sprintf("%s_slide%d.png", pres.ID, idx))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	visual := *slide.Visual
	visual.ImagePath = path
	slide.Visual = &visual
	pres.Slides[idx] = slide
	return path, nil
}

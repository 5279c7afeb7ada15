// Package storage persists generated presentations as one JSON document per
// identifier under a flat directory. Not-found is a normal outcome, reported
// as a nil presentation, distinct from I/O failure.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/presentation-assistant/internal/models"
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const maxIDLength = 120

// Store is a directory-backed key-value store of presentations.
type Store struct {
	dir string
	log zerolog.Logger
}

// Open ensures dir exists and returns a store over it.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the backing directory, for placing adjacent assets.
func (s *Store) Dir() string { return s.dir }

// NewID returns a fresh storage identifier.
func NewID() string { return uuid.NewString() }

// SanitizeID collapses characters unsafe in filenames, caps the length, and
// replaces empty or degenerate input with a freshly generated identifier.
func SanitizeID(id string) string {
	id = unsafeIDChars.ReplaceAllString(id, "_")
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	id = strings.Trim(id, "._")
	if id == "" {
		return NewID()
	}
	return id
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, SanitizeID(id)+".json")
}

// Save writes the presentation under its identifier, overwriting any
// previous version.
func (s *Store) Save(p *models.Presentation) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding presentation %s: %w", p.ID, err)
	}
	if err := os.WriteFile(s.path(p.ID), data, 0o644); err != nil {
		return fmt.Errorf("writing presentation %s: %w", p.ID, err)
	}
	return nil
}

// Load returns the stored presentation, or (nil, nil) when absent.
func (s *Store) Load(id string) (*models.Presentation, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading presentation %s: %w", id, err)
	}
	var p models.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding presentation %s: %w", id, err)
	}
	return &p, nil
}

// Delete removes the presentation and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting presentation %s: %w", id, err)
	}
	return true, nil
}

// List returns summaries of all stored presentations, newest first. Corrupt
// entries are skipped with a warning rather than failing the listing.
func (s *Store) List() ([]models.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing storage directory: %w", err)
	}
	summaries := make([]models.Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		p, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil || p == nil {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("skipping unreadable presentation")
			continue
		}
		summaries = append(summaries, models.Summary{
			ID:         p.ID,
			Title:      p.Title(),
			Metadata:   p.Metadata,
			SlideCount: len(p.Slides),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Metadata.CreatedAt.After(summaries[j].Metadata.CreatedAt)
	})
	return summaries, nil
}

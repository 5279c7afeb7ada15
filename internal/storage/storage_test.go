package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/presentation-assistant/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func samplePresentation(id string, createdAt time.Time) *models.Presentation {
	return &models.Presentation{
		ID: id,
		Slides: models.Deck{
			{Type: models.TypeTitle, Title: "Hesabat " + id},
		},
		Metadata: models.Metadata{CreatedAt: createdAt, UpdatedAt: createdAt},
	}
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "abc-123", SanitizeID("abc-123"))
	assert.Equal(t, "a_b_c", SanitizeID("a/b\\c"))
	assert.Equal(t, "x", SanitizeID("..x.."))
	assert.Len(t, SanitizeID(""), 36, "empty input gets a fresh uuid")
	assert.Len(t, SanitizeID("..."), 36, "degenerate input gets a fresh uuid")

	long := SanitizeID(stringOfLen(300))
	assert.LessOrEqual(t, len(long), maxIDLength)
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	p := samplePresentation("one", time.Now().UTC())
	require.NoError(t, s.Save(p))

	got, err := s.Load("one")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Hesabat one", got.Title())
}

func TestLoadAbsentIsNilNil(t *testing.T) {
	s := testStore(t)
	got, err := s.Load("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(samplePresentation("gone", time.Now())))

	existed, err := s.Delete("gone")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Delete("gone")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestListNewestFirstSkippingCorrupt(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(samplePresentation("old", base)))
	require.NoError(t, s.Save(samplePresentation("new", base.Add(time.Hour))))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{not json"), 0o644))

	summaries, err := s.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "new", summaries[0].ID)
	assert.Equal(t, "old", summaries[1].ID)
	assert.Equal(t, 1, summaries[0].SlideCount)
}

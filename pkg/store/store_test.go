package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyops/apodsync/pkg/config"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := NewStore(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, s.Stop())
	})

	return s
}

func TestStore_EnsureSchemaRepeatable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Start already ensured the schema once; repeated calls must be
	// no-ops, not errors.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.EnsureSchema(ctx))
	}

	require.NoError(t, s.UpsertEntry(ctx, &Entry{
		Date:     "2024-01-01",
		Title:    "Earthrise",
		MediaURL: "http://x/img.jpg",
	}))

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_UpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Entry{
		Date:        "2024-01-01",
		Title:       "Earthrise",
		Explanation: "desc",
		MediaURL:    "http://x/img.jpg",
		MediaType:   MediaTypeImage,
	}
	require.NoError(t, s.UpsertEntry(ctx, first))

	// Second run for the same date: replaced in place, last writer wins.
	second := &Entry{
		Date:        "2024-01-01",
		Title:       "Earthrise (reprocessed)",
		Explanation: "updated desc",
		MediaURL:    "http://x/img2.jpg",
		MediaType:   MediaTypeImage,
	}
	require.NoError(t, s.UpsertEntry(ctx, second))

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := s.GetEntry(ctx, "2024-01-01")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Earthrise (reprocessed)", stored.Title)
	assert.Equal(t, "updated desc", stored.Explanation)
	assert.Equal(t, "http://x/img2.jpg", stored.MediaURL)
}

func TestStore_DistinctDatesDoNotContend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for _, date := range dates {
		require.NoError(t, s.UpsertEntry(ctx, &Entry{
			Date:     date,
			Title:    "entry " + date,
			MediaURL: "http://x/" + date + ".jpg",
		}))
	}

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	latest, err := s.LatestEntry(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-01-03", latest.Date)
}

func TestStore_GetEntryMissing(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.GetEntry(context.Background(), "1999-12-31")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_LatestEntryEmpty(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.LatestEntry(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_UnsupportedDriver(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := NewStore(log, &config.DatabaseConfig{Driver: "oracle"})
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *ExportLog {
	t.Helper()
	log, err := NewExportLog(filepath.Join(t.TempDir(), "exports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	log := openTestLog(t)

	rec, err := log.Record(context.Background(), ExportRecord{
		Filename:   "My Site.png",
		Path:       "/tmp/My Site.png",
		Format:     "png",
		Size:       1234,
		Title:      "My Site",
		SourceText: "https://example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotZero(t, rec.CreatedAt)

	recs, err := log.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec, recs[0])
}

func TestListNewestFirstWithLimit(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()

	for i, name := range []string{"a.png", "b.png", "c.jpg"} {
		_, err := log.Record(ctx, ExportRecord{Filename: name, Path: name, Format: "png", CreatedAt: int64(100 + i)})
		require.NoError(t, err)
	}

	recs, err := log.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c.jpg", recs[0].Filename)
	assert.Equal(t, "b.png", recs[1].Filename)
}

func TestListEmpty(t *testing.T) {
	recs, err := openTestLog(t).List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordDuplicateID(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	_, err := log.Record(ctx, ExportRecord{ID: "x", Filename: "a", Path: "a", Format: "png"})
	require.NoError(t, err)
	_, err = log.Record(ctx, ExportRecord{ID: "x", Filename: "b", Path: "b", Format: "png"})
	assert.Error(t, err)
}

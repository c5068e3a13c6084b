package models_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/database"
	"github.com/graft-pt/graft/internal/models"
)

func setupIndexTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func mustCreateSite(t *testing.T, store *models.SiteStore, id string) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &models.Site{
		ID:       id,
		Name:     id,
		BaseURL:  "https://" + id + ".example",
		Template: models.TemplateNexusPHP,
		RPM:      10,
	}))
}

func TestIndexStore_FindMatches_ExactHash(t *testing.T) {
	db := setupIndexTestDB(t)
	ctx := context.Background()
	sites := models.NewSiteStore(db)
	idx := models.NewIndexStore(db)

	mustCreateSite(t, sites, "site-a")
	mustCreateSite(t, sites, "site-b")

	hash := "ABCDEF0000000000000000000000000000000001"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: hash, SiteID: "site-b", TorrentID: "42", Name: "thing", Size: 100,
	}))

	matches, err := idx.FindMatches(ctx, []string{hash}, []string{"site-b"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.Equal(t, toLowerHash(hash), matches[0].SourceHash)
	assert.Equal(t, toLowerHash(hash), matches[0].InfoHash)
}

func TestIndexStore_FindMatches_StructuralFingerprint(t *testing.T) {
	db := setupIndexTestDB(t)
	ctx := context.Background()
	sites := models.NewSiteStore(db)
	idx := models.NewIndexStore(db)
	fp := models.NewFingerprintStore(db)

	mustCreateSite(t, sites, "site-a")
	mustCreateSite(t, sites, "site-b")

	fingerprintID, err := fp.EnsureFingerprint(ctx, &models.Fingerprint{
		TotalSize: 500, FileCount: 2, LargestFileSize: 300,
	})
	require.NoError(t, err)

	sourceHash := "1111111111111111111111111111111111111111"
	targetHash := "2222222222222222222222222222222222222222"

	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: sourceHash, SiteID: "site-a", FingerprintID: fingerprintID, Name: "source", Size: 500,
	}))
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: targetHash, SiteID: "site-b", FingerprintID: fingerprintID, TorrentID: "77", Name: "target", Size: 500,
	}))

	matches, err := idx.FindMatches(ctx, []string{sourceHash}, []string{"site-b"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.7, matches[0].Confidence)
	assert.Equal(t, toLowerHash(sourceHash), matches[0].SourceHash)
	assert.Equal(t, toLowerHash(targetHash), matches[0].InfoHash)
}

func TestIndexStore_FindMatches_FullFingerprintOutranksStructural(t *testing.T) {
	db := setupIndexTestDB(t)
	ctx := context.Background()
	sites := models.NewSiteStore(db)
	idx := models.NewIndexStore(db)
	fp := models.NewFingerprintStore(db)

	mustCreateSite(t, sites, "site-a")
	mustCreateSite(t, sites, "site-b")

	fingerprintID, err := fp.EnsureFingerprint(ctx, &models.Fingerprint{
		TotalSize: 500, FileCount: 2, LargestFileSize: 300, FilesHash: "deadbeef",
	})
	require.NoError(t, err)

	sourceHash := "3333333333333333333333333333333333333333"
	targetHash := "4444444444444444444444444444444444444444"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: sourceHash, SiteID: "site-a", FingerprintID: fingerprintID, Size: 500,
	}))
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: targetHash, SiteID: "site-b", FingerprintID: fingerprintID, TorrentID: "9", Size: 500,
	}))

	matches, err := idx.FindMatches(ctx, []string{sourceHash}, []string{"site-b"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.9, matches[0].Confidence)
}

func TestIndexStore_FindMatches_NoSiteOverlapReturnsNothing(t *testing.T) {
	db := setupIndexTestDB(t)
	ctx := context.Background()
	sites := models.NewSiteStore(db)
	idx := models.NewIndexStore(db)

	mustCreateSite(t, sites, "site-a")
	mustCreateSite(t, sites, "site-c")

	hash := "5555555555555555555555555555555555555555"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{InfoHash: hash, SiteID: "site-a", Size: 10}))

	matches, err := idx.FindMatches(ctx, []string{hash}, []string{"site-c"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func toLowerHash(h string) string {
	out := make([]byte, len(h))
	for i := 0; i < len(h); i++ {
		c := h[i]
		if c >= 'A' && c <= 'F' {
			c = c - 'A' + 'a'
		}
		out[i] = c
	}
	return string(out)
}

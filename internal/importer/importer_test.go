package importer_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/database"
	"github.com/graft-pt/graft/internal/importer"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/tracker"
)

type fakeClient struct {
	torrents []clients.TorrentView
}

func (f *fakeClient) TestConnection(ctx context.Context) error { return nil }
func (f *fakeClient) ListTorrents(ctx context.Context) ([]clients.TorrentView, error) {
	return f.torrents, nil
}
func (f *fakeClient) AddTorrent(ctx context.Context, torrentBytes []byte, opts clients.AddOptions) (string, error) {
	return "", nil
}
func (f *fakeClient) Remove(ctx context.Context, infoHash string) error  { return nil }
func (f *fakeClient) Pause(ctx context.Context, infoHash string) error   { return nil }
func (f *fakeClient) Resume(ctx context.Context, infoHash string) error  { return nil }
func (f *fakeClient) Recheck(ctx context.Context, infoHash string) error { return nil }

func setupImporterTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "importer.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

// mustCreateSite inserts the sites row that torrent_index.site_id references.
func mustCreateSite(t *testing.T, db *database.DB, id string) {
	t.Helper()
	require.NoError(t, models.NewSiteStore(db).Create(context.Background(), &models.Site{
		ID: id, Name: id, BaseURL: "https://" + id + ".example", Template: models.TemplateNexusPHP, RPM: 10,
	}))
}

func TestImport_RecognizedTorrentIsIndexed(t *testing.T) {
	db := setupImporterTestDB(t)
	ctx := context.Background()

	idx := models.NewIndexStore(db)
	fp := models.NewFingerprintStore(db)
	ident := tracker.NewIdentifier()
	ident.Register("a.example", "site-a")
	mustCreateSite(t, db, "site-a")

	client := &fakeClient{torrents: []clients.TorrentView{
		{
			InfoHash: "1111111111111111111111111111111111111111",
			Name:     "show.s01",
			Size:     100,
			SavePath: "/downloads/show",
			Trackers: []string{"https://a.example/announce"},
			Files:    []clients.TorrentFile{{Path: "show/episode1.mkv", Size: 100}},
		},
	}}

	result, err := importer.Import(ctx, client, "client-a", idx, fp, ident)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Unrecognized)

	entry, err := idx.Get(ctx, "1111111111111111111111111111111111111111", "site-a")
	require.NoError(t, err)
	assert.Equal(t, "show.s01", entry.Name)
	assert.NotZero(t, entry.FingerprintID)
}

func TestImport_UnrecognizedTrackerIsSkipped(t *testing.T) {
	db := setupImporterTestDB(t)
	ctx := context.Background()

	idx := models.NewIndexStore(db)
	fp := models.NewFingerprintStore(db)
	ident := tracker.NewIdentifier()

	client := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: "2222222222222222222222222222222222222222", Trackers: []string{"https://unknown.example/announce"}},
	}}

	result, err := importer.Import(ctx, client, "client-a", idx, fp, ident)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Unrecognized)
}

func TestImport_AlreadyIndexedTorrentCountsAsSkipped(t *testing.T) {
	db := setupImporterTestDB(t)
	ctx := context.Background()

	idx := models.NewIndexStore(db)
	fp := models.NewFingerprintStore(db)
	ident := tracker.NewIdentifier()
	ident.Register("a.example", "site-a")
	mustCreateSite(t, db, "site-a")

	hash := "3333333333333333333333333333333333333333"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{InfoHash: hash, SiteID: "site-a", Name: "old"}))

	client := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: hash, Name: "renamed", Trackers: []string{"https://a.example/announce"}},
	}}

	result, err := importer.Import(ctx, client, "client-a", idx, fp, ident)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Imported)
}

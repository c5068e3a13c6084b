package reseed_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/database"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/reseed"
	"github.com/graft-pt/graft/internal/tracker"
)

type fakeClient struct {
	torrents []clients.TorrentView
	added    []string
}

func (f *fakeClient) TestConnection(ctx context.Context) error { return nil }
func (f *fakeClient) ListTorrents(ctx context.Context) ([]clients.TorrentView, error) {
	return f.torrents, nil
}
func (f *fakeClient) AddTorrent(ctx context.Context, torrentBytes []byte, opts clients.AddOptions) (string, error) {
	f.added = append(f.added, "added")
	return "", nil
}
func (f *fakeClient) Remove(ctx context.Context, infoHash string) error  { return nil }
func (f *fakeClient) Pause(ctx context.Context, infoHash string) error   { return nil }
func (f *fakeClient) Resume(ctx context.Context, infoHash string) error  { return nil }
func (f *fakeClient) Recheck(ctx context.Context, infoHash string) error { return nil }

func setupPlannerTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "planner.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestPlanner_Plan_FindsCrossSiteMatch(t *testing.T) {
	db := setupPlannerTestDB(t)
	ctx := context.Background()

	sites := models.NewSiteStore(db)
	require.NoError(t, sites.Create(ctx, &models.Site{ID: "site-a", Name: "a", BaseURL: "https://a", Template: models.TemplateNexusPHP, RPM: 10}))
	require.NoError(t, sites.Create(ctx, &models.Site{ID: "site-b", Name: "b", BaseURL: "https://b", Template: models.TemplateNexusPHP, RPM: 10}))

	idx := models.NewIndexStore(db)
	hash := "6666666666666666666666666666666666666666"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: hash, SiteID: "site-b", TorrentID: "99", Name: "match", Size: 100,
	}))

	ident := tracker.NewIdentifier()
	ident.Register("a.example", "site-a")
	ident.Register("b.example", "site-b")

	planner := reseed.NewPlanner(idx, ident)

	source := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: hash, Name: "thing", SavePath: "/downloads/thing", Trackers: []string{"https://a.example/announce"}},
	}}
	target := &fakeClient{}

	plan, err := planner.Plan(ctx, source, target, []string{"site-b"})
	require.NoError(t, err)
	require.Len(t, plan.Matches, 1)
	m := plan.Matches[0]
	assert.Equal(t, "site-a", m.SourceSite)
	assert.Equal(t, "site-b", m.TargetSite)
	assert.Equal(t, "99", m.TargetTorrentID)
	assert.Equal(t, "/downloads/thing", m.SavePath)
}

func TestPlanner_Plan_SuppressesSelfSiteMatch(t *testing.T) {
	db := setupPlannerTestDB(t)
	ctx := context.Background()

	sites := models.NewSiteStore(db)
	require.NoError(t, sites.Create(ctx, &models.Site{ID: "site-a", Name: "a", BaseURL: "https://a", Template: models.TemplateNexusPHP, RPM: 10}))

	idx := models.NewIndexStore(db)
	hash := "7777777777777777777777777777777777777777"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{
		InfoHash: hash, SiteID: "site-a", TorrentID: "1", Size: 10,
	}))

	ident := tracker.NewIdentifier()
	ident.Register("a.example", "site-a")

	planner := reseed.NewPlanner(idx, ident)

	source := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: hash, Trackers: []string{"https://a.example/announce"}},
	}}
	target := &fakeClient{}

	plan, err := planner.Plan(ctx, source, target, []string{"site-a"})
	require.NoError(t, err)
	assert.Empty(t, plan.Matches)
}

func TestPlanner_Plan_DropsMatchTargetAlreadyHas(t *testing.T) {
	db := setupPlannerTestDB(t)
	ctx := context.Background()

	sites := models.NewSiteStore(db)
	require.NoError(t, sites.Create(ctx, &models.Site{ID: "site-a", Name: "a", BaseURL: "https://a", Template: models.TemplateNexusPHP, RPM: 10}))
	require.NoError(t, sites.Create(ctx, &models.Site{ID: "site-b", Name: "b", BaseURL: "https://b", Template: models.TemplateNexusPHP, RPM: 10}))

	idx := models.NewIndexStore(db)
	hash := "8888888888888888888888888888888888888888"
	require.NoError(t, idx.UpsertEntry(ctx, &models.IndexEntry{InfoHash: hash, SiteID: "site-b", TorrentID: "5", Size: 10}))

	ident := tracker.NewIdentifier()
	ident.Register("a.example", "site-a")
	ident.Register("b.example", "site-b")

	planner := reseed.NewPlanner(idx, ident)

	source := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: hash, Trackers: []string{"https://a.example/announce"}},
	}}
	target := &fakeClient{torrents: []clients.TorrentView{
		{InfoHash: hash},
	}}

	plan, err := planner.Plan(ctx, source, target, []string{"site-b"})
	require.NoError(t, err)
	assert.Empty(t, plan.Matches)
}

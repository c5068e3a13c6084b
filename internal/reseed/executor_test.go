package reseed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/database"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/reseed"
	"github.com/graft-pt/graft/internal/sites"
	"github.com/graft-pt/graft/internal/tracker"
)

const validTorrentBytes = "d8:announce20:http://a.example/ann4:infod6:lengthi10e4:name4:file12:piece lengthi16384e6:pieces20:01234567890123456789ee"

func setupExecutorTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "executor.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestExecutor_Run_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validTorrentBytes))
	}))
	t.Cleanup(srv.Close)

	db := setupExecutorTestDB(t)
	ctx := context.Background()

	siteStore := models.NewSiteStore(db)
	require.NoError(t, siteStore.Create(ctx, &models.Site{
		ID: "site-b", Name: "b", BaseURL: srv.URL, Template: models.TemplateNexusPHP, Passkey: "pk", RPM: 6000,
	}))

	ident := tracker.NewIdentifier()
	registry := sites.NewRegistry(ident)
	site, err := siteStore.Get(ctx, "site-b")
	require.NoError(t, err)
	require.NoError(t, registry.Register(site))

	history := models.NewHistoryStore(db)
	executor := reseed.NewExecutor(registry, history)

	target := &fakeClient{}
	plan := &reseed.Plan{
		Matches: []reseed.Match{
			{
				SourceHash: "9999999999999999999999999999999999999999",
				TargetSite: "site-b", TargetTorrentID: "1",
				TargetHash: "9999999999999999999999999999999999999999",
				SavePath:   "/downloads", Size: 10, Confidence: 1.0,
			},
		},
	}

	counters := executor.Run(ctx, plan, target, reseed.ExecOptions{})
	assert.Equal(t, 1, counters.Total)
	assert.Equal(t, 1, counters.Success)
	assert.Equal(t, 0, counters.Failed)
	assert.Len(t, target.added, 1)

	entries, err := history.ListByTask(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryStatusSuccess, entries[0].Status)
}

func TestExecutor_Run_SkipsWhenTargetAlreadyHas(t *testing.T) {
	db := setupExecutorTestDB(t)
	ctx := context.Background()

	siteStore := models.NewSiteStore(db)
	require.NoError(t, siteStore.Create(ctx, &models.Site{
		ID: "site-b", Name: "b", BaseURL: "https://b.example", Template: models.TemplateNexusPHP, Passkey: "pk", RPM: 10,
	}))

	ident := tracker.NewIdentifier()
	registry := sites.NewRegistry(ident)
	site, err := siteStore.Get(ctx, "site-b")
	require.NoError(t, err)
	require.NoError(t, registry.Register(site))

	history := models.NewHistoryStore(db)
	executor := reseed.NewExecutor(registry, history)

	hash := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	target := &fakeClient{torrents: []clients.TorrentView{{InfoHash: hash}}}
	plan := &reseed.Plan{
		Matches: []reseed.Match{
			{TargetSite: "site-b", TargetTorrentID: "1", TargetHash: hash, Size: 10},
		},
	}

	counters := executor.Run(ctx, plan, target, reseed.ExecOptions{})
	assert.Equal(t, 1, counters.Skipped)
	assert.Empty(t, target.added)
}

func TestExecutor_Run_FailsWithoutPasskey(t *testing.T) {
	db := setupExecutorTestDB(t)
	ctx := context.Background()

	siteStore := models.NewSiteStore(db)
	require.NoError(t, siteStore.Create(ctx, &models.Site{
		ID: "site-b", Name: "b", BaseURL: "https://b.example", Template: models.TemplateNexusPHP, RPM: 10,
	}))

	ident := tracker.NewIdentifier()
	registry := sites.NewRegistry(ident)
	site, err := siteStore.Get(ctx, "site-b")
	require.NoError(t, err)
	require.NoError(t, registry.Register(site))

	history := models.NewHistoryStore(db)
	executor := reseed.NewExecutor(registry, history)

	target := &fakeClient{}
	plan := &reseed.Plan{
		Matches: []reseed.Match{
			{TargetSite: "site-b", TargetTorrentID: "1", TargetHash: "bbbb", Size: 10},
		},
	}

	counters := executor.Run(ctx, plan, target, reseed.ExecOptions{})
	assert.Equal(t, 1, counters.Failed)
}

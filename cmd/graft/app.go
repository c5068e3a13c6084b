package main

import (
	"context"
	"strconv"

	"github.com/graft-pt/graft/internal/clients"
	qbtclient "github.com/graft-pt/graft/internal/clients/qbittorrent"
	transmissionclient "github.com/graft-pt/graft/internal/clients/transmission"
	"github.com/graft-pt/graft/internal/config"
	"github.com/graft-pt/graft/internal/database"
	"github.com/graft-pt/graft/internal/logging"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/reseed"
	"github.com/graft-pt/graft/internal/sites"
	"github.com/graft-pt/graft/internal/tracker"
)

// app bundles every wired component a CLI command needs. It is built fresh
// per command invocation; there is no long-lived shared global.
type app struct {
	cfg *config.Config
	db  *database.DB

	clientStore *models.ClientStore
	siteStore   *models.SiteStore
	domainStore *models.TrackerDomainStore
	idx         *models.IndexStore
	fingerprint *models.FingerprintStore
	history     *models.HistoryStore
	settings    *models.SettingsStore
	taskStore   *models.ReseedTaskStore

	ident    *tracker.Identifier
	registry *sites.Registry
	planner  *reseed.Planner
	dialers  clients.Dialers
}

func bootstrap(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.LogLevel, cfg.LogPath)

	db, err := database.New(cfg.DataDir + "/graft.db")
	if err != nil {
		return nil, err
	}

	ident := tracker.NewIdentifier()
	registry := sites.NewRegistry(ident)
	if err := registry.LoadBuiltins(); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := models.NewIndexStore(db)

	a := &app{
		cfg:         cfg,
		db:          db,
		clientStore: models.NewClientStore(db),
		siteStore:   models.NewSiteStore(db),
		domainStore: models.NewTrackerDomainStore(db),
		idx:         idx,
		fingerprint: models.NewFingerprintStore(db),
		history:     models.NewHistoryStore(db),
		settings:    models.NewSettingsStore(db),
		taskStore:   models.NewReseedTaskStore(db),
		ident:       ident,
		registry:    registry,
		planner:     reseed.NewPlanner(idx, ident),
		dialers: clients.Dialers{
			models.ClientTypeQBittorrent:  dialQBittorrent,
			models.ClientTypeTransmission: dialTransmission,
		},
	}

	if err := loadUserSites(context.Background(), a); err != nil {
		_ = db.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// loadUserSites registers every persisted site (on top of the built-in
// table already loaded) and binds its domains into the identifier.
func loadUserSites(ctx context.Context, a *app) error {
	sitesList, err := a.siteStore.List(ctx)
	if err != nil {
		return err
	}
	for _, site := range sitesList {
		if err := a.registry.Register(site); err != nil {
			return err
		}
	}

	domains, err := a.domainStore.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range domains {
		a.ident.Register(d.Domain, d.SiteID)
	}
	return nil
}

func dialQBittorrent(ctx context.Context, c *models.Client) (clients.Client, error) {
	host := clients.Scheme(c.HTTPS) + "://" + hostPort(c)
	return qbtclient.NewAdapter(ctx, host, c.Username, c.PasswordEncrypted)
}

func dialTransmission(ctx context.Context, c *models.Client) (clients.Client, error) {
	return transmissionclient.NewAdapter(hostPort(c), c.HTTPS, c.Username, c.PasswordEncrypted), nil
}

func hostPort(c *models.Client) string {
	if c.Port == 0 {
		return c.Host
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

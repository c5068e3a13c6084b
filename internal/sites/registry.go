package sites

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/tracker"
)

// Registry owns the compiled Template per site and the shared rate-limiter
// pool, and is the only thing in this package that talks to the tracker
// Identifier — keeping the identifier itself ignorant of templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	sites     map[string]*models.Site
	limiters  *LimiterRegistry
	ident     *tracker.Identifier
}

func NewRegistry(ident *tracker.Identifier) *Registry {
	return &Registry{
		templates: make(map[string]Template),
		sites:     make(map[string]*models.Site),
		limiters:  NewLimiterRegistry(),
		ident:     ident,
	}
}

// LoadBuiltins registers the static table into both this registry and the
// tracker identifier, ahead of any user-added site. Builtins are inert
// (disabled, no passkey) until an operator supplies credentials and enables
// them; this call only wires identification and template selection.
func (r *Registry) LoadBuiltins() error {
	for _, b := range BuiltinSites {
		site := &models.Site{
			ID:       b.ID,
			Name:     b.Name,
			BaseURL:  b.BaseURL,
			Template: b.Template,
			Enabled:  false,
			RPM:      b.RPM,
		}
		if err := r.Register(site); err != nil {
			return errors.Wrapf(err, "register builtin site %s", b.ID)
		}
		for _, domain := range b.Domains {
			r.ident.Register(domain, b.ID)
		}
	}
	log.Info().Int("count", len(BuiltinSites)).Msg("loaded built-in site table")
	return nil
}

// Register compiles and caches the Template for a site and attaches its
// torrent-id extraction pattern to the identifier.
func (r *Registry) Register(site *models.Site) error {
	tmpl, err := NewTemplate(site.Template)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates[site.ID] = tmpl
	r.sites[site.ID] = site
	r.mu.Unlock()

	r.ident.RegisterPattern(site.ID, tmpl.IDPattern())
	return nil
}

func (r *Registry) Site(siteID string) (*models.Site, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sites[siteID]
	return s, ok
}

func (r *Registry) Template(siteID string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[siteID]
	return t, ok
}

// DownloadTorrent fetches a .torrent's bytes from siteID for torrentID,
// waiting on the site's rate-limit token first.
func (r *Registry) DownloadTorrent(ctx context.Context, siteID, torrentID string) ([]byte, error) {
	site, ok := r.Site(siteID)
	if !ok {
		return nil, graft.New(graft.KindConfig, "Registry.DownloadTorrent", fmt.Errorf("unknown site %q", siteID))
	}
	if site.Passkey == "" {
		return nil, graft.New(graft.KindConfig, "Registry.DownloadTorrent", fmt.Errorf("site %q has no passkey configured", siteID))
	}

	tmpl, ok := r.Template(siteID)
	if !ok {
		return nil, graft.New(graft.KindConfig, "Registry.DownloadTorrent", fmt.Errorf("no template registered for site %q", siteID))
	}

	if err := r.limiters.Get(siteID, site.RPM).Wait(ctx); err != nil {
		return nil, graft.New(graft.KindCancelled, "Registry.DownloadTorrent", err)
	}

	url := tmpl.DownloadURL(site.BaseURL, torrentID, site.Passkey)
	return Fetch(ctx, SharedHTTPClient, url, site.CookieEncrypted)
}

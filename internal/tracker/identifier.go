// Package tracker resolves an arbitrary announce URL to a canonical site
// identity and extracts the site's internal torrent id from it.
package tracker

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

const unknownTorrentID = "unknown"

// Identifier holds the domain table and per-site URL patterns used to
// extract a torrent id. Sites can be added or removed at runtime while
// importer and planner goroutines read concurrently, so an RWMutex guards
// both maps — the same narrow-lock shape used for health-check fields
// elsewhere in this codebase, rather than one coarse service-wide lock.
type Identifier struct {
	mu       sync.RWMutex
	domains  map[string]string         // domain -> site id
	patterns map[string]*regexp.Regexp // site id -> compiled torrent-id pattern
}

func NewIdentifier() *Identifier {
	return &Identifier{
		domains:  make(map[string]string),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Register binds a domain to a site id. A domain is globally unique within
// the identifier: registering it again, even for a different site, replaces
// the previous binding (last writer wins, per the data model's tracker-domain
// semantics). Register does not report the binding it replaces.
func (id *Identifier) Register(domain, siteID string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.domains[strings.ToLower(domain)] = siteID
}

// RegisterPattern attaches a compiled torrent-id extraction pattern to a
// site. The identifier itself has no notion of templates; internal/sites
// compiles the pattern and hands it over, keeping package boundaries
// narrow.
func (id *Identifier) RegisterPattern(siteID string, pattern *regexp.Regexp) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.patterns[siteID] = pattern
}

// Remove drops a domain binding. Removal is immediate: nothing below the
// identifier caches resolved identities.
func (id *Identifier) Remove(domain string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	delete(id.domains, strings.ToLower(domain))
}

// Resolution is the outcome of identifying an announce URL.
type Resolution struct {
	SiteID    string
	TorrentID string
}

// Identify resolves announceURL to a (site id, torrent id) pair, or
// reports ok=false when no site claims the URL's host.
func (id *Identifier) Identify(announceURL string) (Resolution, bool) {
	u, err := url.Parse(announceURL)
	if err != nil {
		return Resolution{}, false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Resolution{}, false
	}

	siteID, ok := id.matchDomain(host)
	if !ok {
		return Resolution{}, false
	}

	return Resolution{
		SiteID:    siteID,
		TorrentID: id.extractTorrentID(u, siteID),
	}, true
}

// matchDomain tries an exact host match first, then strips leading labels
// one at a time (registrable-domain fallback), stopping once fewer than two
// labels remain to avoid ever matching a bare TLD.
func (id *Identifier) matchDomain(host string) (string, bool) {
	id.mu.RLock()
	defer id.mu.RUnlock()

	if siteID, ok := id.domains[host]; ok {
		return siteID, true
	}

	labels := strings.Split(host, ".")
	for len(labels) > 2 {
		labels = labels[1:]
		candidate := strings.Join(labels, ".")
		if siteID, ok := id.domains[candidate]; ok {
			return siteID, true
		}
	}
	return "", false
}

// extractTorrentID scans query parameters in order for the first of
// torrent_id, id, tid; failing that, runs the site's compiled pattern
// against the full URL and takes capture group 1; failing that, returns the
// "unknown" sentinel.
func (id *Identifier) extractTorrentID(u *url.URL, siteID string) string {
	query := u.Query()
	for _, key := range []string{"torrent_id", "id", "tid"} {
		if v := query.Get(key); v != "" {
			return v
		}
	}

	id.mu.RLock()
	pattern, ok := id.patterns[siteID]
	id.mu.RUnlock()
	if ok && pattern != nil {
		if m := pattern.FindStringSubmatch(u.String()); len(m) > 1 {
			return m[1]
		}
	}

	return unknownTorrentID
}

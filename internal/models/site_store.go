package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/graft-pt/graft/internal/dbinterface"
	"github.com/graft-pt/graft/internal/graft"
)

// SiteStore persists configured tracker sites.
type SiteStore struct {
	db dbinterface.Querier
}

func NewSiteStore(db dbinterface.Querier) *SiteStore {
	return &SiteStore{db: db}
}

func (s *SiteStore) Create(ctx context.Context, site *Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (id, name, base_url, template, passkey, cookie_encrypted, enabled, rpm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, site.ID, site.Name, site.BaseURL, string(site.Template), site.Passkey, site.CookieEncrypted, site.Enabled, site.RPM)
	if err != nil {
		return wrapIndexIO("SiteStore.Create", err)
	}
	return nil
}

func (s *SiteStore) Get(ctx context.Context, id string) (*Site, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, base_url, template, passkey, cookie_encrypted, enabled, rpm, created_at, updated_at
		FROM sites WHERE id = ?
	`, id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graft.New(graft.KindNotFound, "SiteStore.Get", err)
	}
	if err != nil {
		return nil, wrapIndexIO("SiteStore.Get", err)
	}
	return site, nil
}

func (s *SiteStore) List(ctx context.Context) ([]*Site, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, base_url, template, passkey, cookie_encrypted, enabled, rpm, created_at, updated_at
		FROM sites ORDER BY name
	`)
	if err != nil {
		return nil, wrapIndexIO("SiteStore.List", err)
	}
	defer rows.Close()

	var out []*Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, wrapIndexIO("SiteStore.List", err)
		}
		out = append(out, site)
	}
	return out, wrapIndexIO("SiteStore.List", rows.Err())
}

func (s *SiteStore) Update(ctx context.Context, site *Site) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sites
		SET name = ?, base_url = ?, template = ?, passkey = ?, cookie_encrypted = ?,
		    enabled = ?, rpm = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, site.Name, site.BaseURL, string(site.Template), site.Passkey, site.CookieEncrypted, site.Enabled, site.RPM, site.ID)
	if err != nil {
		return wrapIndexIO("SiteStore.Update", err)
	}
	return nil
}

// Delete removes a site; tracker_domains and torrent_index rows referencing
// it cascade per the schema's ON DELETE CASCADE.
func (s *SiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return wrapIndexIO("SiteStore.Delete", err)
	}
	return nil
}

func scanSite(row rowScanner) (*Site, error) {
	var site Site
	var template string
	if err := row.Scan(&site.ID, &site.Name, &site.BaseURL, &template, &site.Passkey, &site.CookieEncrypted,
		&site.Enabled, &site.RPM, &site.CreatedAt, &site.UpdatedAt); err != nil {
		return nil, err
	}
	site.Template = TemplateType(template)
	return &site, nil
}

// TrackerDomainStore persists the domain → site id bindings that populate
// the Tracker Identifier at startup.
type TrackerDomainStore struct {
	db dbinterface.Querier
}

func NewTrackerDomainStore(db dbinterface.Querier) *TrackerDomainStore {
	return &TrackerDomainStore{db: db}
}

// Set registers or re-registers a domain. A domain is globally unique: if
// another site already claims it, the last writer wins — callers that want
// conflict detection should Get first.
func (s *TrackerDomainStore) Set(ctx context.Context, domain, siteID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracker_domains (domain, site_id) VALUES (?, ?)
		ON CONFLICT(domain) DO UPDATE SET site_id = excluded.site_id
	`, domain, siteID)
	if err != nil {
		return wrapIndexIO("TrackerDomainStore.Set", err)
	}
	return nil
}

func (s *TrackerDomainStore) Get(ctx context.Context, domain string) (string, error) {
	var siteID string
	err := s.db.QueryRowContext(ctx, `SELECT site_id FROM tracker_domains WHERE domain = ?`, domain).Scan(&siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", graft.New(graft.KindNotFound, "TrackerDomainStore.Get", err)
	}
	if err != nil {
		return "", wrapIndexIO("TrackerDomainStore.Get", err)
	}
	return siteID, nil
}

func (s *TrackerDomainStore) List(ctx context.Context) ([]TrackerDomain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain, site_id FROM tracker_domains ORDER BY domain`)
	if err != nil {
		return nil, wrapIndexIO("TrackerDomainStore.List", err)
	}
	defer rows.Close()

	var out []TrackerDomain
	for rows.Next() {
		var td TrackerDomain
		if err := rows.Scan(&td.Domain, &td.SiteID); err != nil {
			return nil, wrapIndexIO("TrackerDomainStore.List", err)
		}
		out = append(out, td)
	}
	return out, wrapIndexIO("TrackerDomainStore.List", rows.Err())
}

func (s *TrackerDomainStore) Delete(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tracker_domains WHERE domain = ?`, domain)
	if err != nil {
		return wrapIndexIO("TrackerDomainStore.Delete", err)
	}
	return nil
}

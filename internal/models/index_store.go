package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/graft-pt/graft/internal/dbinterface"
)

// IndexStore is the content-fingerprint index: the persisted
// (info-hash, site) ↔ fingerprint map and its query API.
type IndexStore struct {
	db dbinterface.Querier
}

func NewIndexStore(db dbinterface.Querier) *IndexStore {
	return &IndexStore{db: db}
}

// UpsertEntry inserts a new index entry, or on (info_hash, site_id) conflict
// updates the mutable columns while preserving created_at and fingerprint_id
// (a richer fingerprint is attached separately, never clobbered by a later
// import that saw less metadata).
func (s *IndexStore) UpsertEntry(ctx context.Context, e *IndexEntry) error {
	var fingerprintID any
	if e.FingerprintID != 0 {
		fingerprintID = e.FingerprintID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO torrent_index (info_hash, site_id, torrent_id, fingerprint_id, name, size, save_path, source_client)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(info_hash, site_id) DO UPDATE SET
			torrent_id = excluded.torrent_id,
			name = excluded.name,
			size = excluded.size,
			save_path = excluded.save_path,
			source_client = excluded.source_client
	`, strings.ToLower(e.InfoHash), e.SiteID, e.TorrentID, fingerprintID, e.Name, e.Size, e.SavePath, e.SourceClient)
	if err != nil {
		return wrapIndexIO("IndexStore.UpsertEntry", err)
	}
	return nil
}

// AttachFingerprint sets fingerprint_id on an existing entry that was
// originally indexed without file-list metadata, without disturbing any
// other column; the fingerprint row itself is never mutated, only the
// index entry's pointer to it.
func (s *IndexStore) AttachFingerprint(ctx context.Context, infoHash, siteID string, fingerprintID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE torrent_index SET fingerprint_id = ? WHERE info_hash = ? AND site_id = ?
	`, fingerprintID, strings.ToLower(infoHash), siteID)
	if err != nil {
		return wrapIndexIO("IndexStore.AttachFingerprint", err)
	}
	return nil
}

func (s *IndexStore) Exists(ctx context.Context, infoHash, siteID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM torrent_index WHERE info_hash = ? AND site_id = ?
	`, strings.ToLower(infoHash), siteID).Scan(&count)
	if err != nil {
		return false, wrapIndexIO("IndexStore.Exists", err)
	}
	return count > 0, nil
}

func (s *IndexStore) Get(ctx context.Context, infoHash, siteID string) (*IndexEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, info_hash, site_id, torrent_id, fingerprint_id, name, size, save_path, source_client, created_at
		FROM torrent_index WHERE info_hash = ? AND site_id = ?
	`, strings.ToLower(infoHash), siteID)
	e, err := scanIndexEntry(row)
	if err != nil {
		return nil, wrapIndexIO("IndexStore.Get", err)
	}
	return e, nil
}

// FindMatches is the index's critical query: every entry whose site is in
// targetSites AND either its info-hash is in hashes (an exact match) or its
// fingerprint is shared with an entry for one of hashes (a structural
// match). Confidence is 1.0 for info-hash, 0.9 for a fingerprint carrying a
// files_hash digest (Full fidelity), 0.7 for a structural-only (tuple-only)
// fingerprint match. Ordering: confidence desc, size desc, then
// (site_id, info_hash) lexicographic for stability across equal keys.
//
// Each returned Match also carries the SourceHash from hashes that
// triggered it, so a caller grouping matches by source torrent (as the
// reseed planner does) doesn't need a second query: for an exact match
// SourceHash equals the entry's own info_hash; for a structural match it is
// whichever of hashes shares the entry's fingerprint (ties broken by
// picking the lexicographically smallest, which only matters when two
// source torrents coincidentally share one fingerprint).
func (s *IndexStore) FindMatches(ctx context.Context, hashes []string, targetSites []string) ([]Match, error) {
	if len(hashes) == 0 || len(targetSites) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(hashes))
	for i, h := range hashes {
		normalized[i] = strings.ToLower(h)
	}

	hashPlaceholders := placeholders(len(normalized))
	sitePlaceholders := placeholders(len(targetSites))

	query := fmt.Sprintf(`
		WITH source_entries AS (
			SELECT info_hash AS source_hash, fingerprint_id
			FROM torrent_index
			WHERE info_hash IN (%s) AND fingerprint_id IS NOT NULL
		)
		SELECT ti.id, ti.info_hash, ti.site_id, ti.torrent_id, ti.fingerprint_id, ti.name, ti.size,
		       ti.save_path, ti.source_client, ti.created_at,
		       CASE
		           WHEN ti.info_hash IN (%s) THEN ti.info_hash
		           ELSE MIN(se.source_hash)
		       END AS source_hash,
		       CASE
		           WHEN ti.info_hash IN (%s) THEN 1.0
		           WHEN cf.files_hash IS NOT NULL THEN 0.9
		           ELSE 0.7
		       END AS confidence
		FROM torrent_index ti
		LEFT JOIN content_fingerprints cf ON cf.id = ti.fingerprint_id
		LEFT JOIN source_entries se ON se.fingerprint_id = ti.fingerprint_id
		WHERE ti.site_id IN (%s)
		  AND (ti.info_hash IN (%s) OR se.source_hash IS NOT NULL)
		GROUP BY ti.id
		ORDER BY confidence DESC, ti.size DESC, ti.site_id ASC, ti.info_hash ASC
	`, hashPlaceholders, hashPlaceholders, hashPlaceholders, sitePlaceholders, hashPlaceholders)

	var args []any
	args = append(args, toAny(normalized)...) // source_entries CTE
	args = append(args, toAny(normalized)...) // source_hash CASE
	args = append(args, toAny(normalized)...) // confidence CASE
	args = append(args, toAny(targetSites)...)
	args = append(args, toAny(normalized)...) // WHERE clause

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapIndexIO("IndexStore.FindMatches", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var fingerprintID sql.NullInt64
		var torrentID, name, savePath, sourceClient, sourceHash sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&m.ID, &m.InfoHash, &m.SiteID, &torrentID, &fingerprintID, &name, &size,
			&savePath, &sourceClient, &m.CreatedAt, &sourceHash, &m.Confidence); err != nil {
			return nil, wrapIndexIO("IndexStore.FindMatches", err)
		}
		m.TorrentID = torrentID.String
		m.FingerprintID = fingerprintID.Int64
		m.Name = name.String
		m.Size = size.Int64
		m.SavePath = savePath.String
		m.SourceClient = sourceClient.String
		m.SourceHash = sourceHash.String
		out = append(out, m)
	}
	return out, wrapIndexIO("IndexStore.FindMatches", rows.Err())
}

func (s *IndexStore) Stats(ctx context.Context) (*IndexStats, error) {
	var stats IndexStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM torrent_index`).Scan(&stats.Total); err != nil {
		return nil, wrapIndexIO("IndexStore.Stats", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id, COUNT(*) AS count FROM torrent_index
		GROUP BY site_id ORDER BY count DESC
	`)
	if err != nil {
		return nil, wrapIndexIO("IndexStore.Stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sic SiteIndexCount
		if err := rows.Scan(&sic.SiteID, &sic.Count); err != nil {
			return nil, wrapIndexIO("IndexStore.Stats", err)
		}
		stats.BySite = append(stats.BySite, sic)
	}
	return &stats, wrapIndexIO("IndexStore.Stats", rows.Err())
}

// Clear deletes every index entry. Fingerprint rows are left in place —
// they become harmless orphans, reclaimable later, matching the store's
// bulk-delete semantics (no cascade to content_fingerprints).
func (s *IndexStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM torrent_index`)
	if err != nil {
		return wrapIndexIO("IndexStore.Clear", err)
	}
	return nil
}

func (s *IndexStore) ClearBySite(ctx context.Context, siteID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM torrent_index WHERE site_id = ?`, siteID)
	if err != nil {
		return wrapIndexIO("IndexStore.ClearBySite", err)
	}
	return nil
}

func scanIndexEntry(row rowScanner) (*IndexEntry, error) {
	var e IndexEntry
	var fingerprintID sql.NullInt64
	var torrentID, name, savePath, sourceClient sql.NullString
	var size sql.NullInt64
	if err := row.Scan(&e.ID, &e.InfoHash, &e.SiteID, &torrentID, &fingerprintID, &name, &size,
		&savePath, &sourceClient, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.TorrentID = torrentID.String
	e.FingerprintID = fingerprintID.Int64
	e.Name = name.String
	e.Size = size.Int64
	e.SavePath = savePath.String
	e.SourceClient = sourceClient.String
	return &e, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

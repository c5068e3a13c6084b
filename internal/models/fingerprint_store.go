package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/graft-pt/graft/internal/dbinterface"
)

// FingerprintStore persists content fingerprints. Rows are immutable once
// written; there is no Update method.
type FingerprintStore struct {
	db dbinterface.Querier
}

func NewFingerprintStore(db dbinterface.Querier) *FingerprintStore {
	return &FingerprintStore{db: db}
}

// EnsureFingerprint is content-addressed: a row with an identical
// (total_size, file_count, largest_file_size, files_hash) tuple is reused
// rather than duplicated. files_hash is nullable (Structural fidelity has
// none), and SQL NULL never equals NULL, so the lookup is done explicitly
// here with an "IS" comparison instead of relying solely on the table's
// unique index.
func (s *FingerprintStore) EnsureFingerprint(ctx context.Context, fp *Fingerprint) (int64, error) {
	var filesHash any
	if fp.FilesHash != "" {
		filesHash = fp.FilesHash
	}

	var existing int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM content_fingerprints
		WHERE total_size = ? AND file_count = ? AND largest_file_size = ? AND files_hash IS ?
	`, fp.TotalSize, fp.FileCount, fp.LargestFileSize, filesHash).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, wrapIndexIO("FingerprintStore.EnsureFingerprint", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO content_fingerprints (total_size, file_count, largest_file_size, files_hash)
		VALUES (?, ?, ?, ?)
	`, fp.TotalSize, fp.FileCount, fp.LargestFileSize, filesHash)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race against a concurrent insert of the identical
			// tuple; re-query rather than retry the insert.
			var id int64
			selErr := s.db.QueryRowContext(ctx, `
				SELECT id FROM content_fingerprints
				WHERE total_size = ? AND file_count = ? AND largest_file_size = ? AND files_hash IS ?
			`, fp.TotalSize, fp.FileCount, fp.LargestFileSize, filesHash).Scan(&id)
			if selErr != nil {
				return 0, wrapIndexIO("FingerprintStore.EnsureFingerprint", selErr)
			}
			return id, nil
		}
		return 0, wrapIndexIO("FingerprintStore.EnsureFingerprint", err)
	}
	return res.LastInsertId()
}

func (s *FingerprintStore) Get(ctx context.Context, id int64) (*Fingerprint, error) {
	var fp Fingerprint
	var filesHash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, total_size, file_count, largest_file_size, files_hash, created_at
		FROM content_fingerprints WHERE id = ?
	`, id).Scan(&fp.ID, &fp.TotalSize, &fp.FileCount, &fp.LargestFileSize, &filesHash, &fp.CreatedAt)
	if err != nil {
		return nil, wrapIndexIO("FingerprintStore.Get", err)
	}
	fp.FilesHash = filesHash.String
	return &fp, nil
}

package models

import (
	"context"

	"github.com/graft-pt/graft/internal/dbinterface"
)

// HistoryStore is an append-only log of reseed attempt outcomes; no update
// or delete method is exposed at all.
type HistoryStore struct {
	db dbinterface.Querier
}

func NewHistoryStore(db dbinterface.Querier) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Record(ctx context.Context, e *HistoryEntry) error {
	var taskID any
	if e.TaskID != "" {
		taskID = e.TaskID
	}
	var sourceSite any
	if e.SourceSite != "" {
		sourceSite = e.SourceSite
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reseed_history (task_id, info_hash, source_site, target_site, status, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, taskID, e.InfoHash, sourceSite, e.TargetSite, string(e.Status), e.Message)
	if err != nil {
		return wrapIndexIO("HistoryStore.Record", err)
	}
	return nil
}

func (s *HistoryStore) ListByTask(ctx context.Context, taskID string, limit int) ([]*HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(task_id, ''), info_hash, COALESCE(source_site, ''), target_site, status,
		       COALESCE(message, ''), created_at
		FROM reseed_history WHERE COALESCE(task_id, '') = ?
		ORDER BY created_at DESC LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, wrapIndexIO("HistoryStore.ListByTask", err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var status string
		if err := rows.Scan(&h.ID, &h.TaskID, &h.InfoHash, &h.SourceSite, &h.TargetSite, &status,
			&h.Message, &h.CreatedAt); err != nil {
			return nil, wrapIndexIO("HistoryStore.ListByTask", err)
		}
		h.Status = HistoryStatus(status)
		out = append(out, &h)
	}
	return out, wrapIndexIO("HistoryStore.ListByTask", rows.Err())
}

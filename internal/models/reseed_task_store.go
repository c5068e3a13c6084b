package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/graft-pt/graft/internal/dbinterface"
	"github.com/graft-pt/graft/internal/graft"
)

// ReseedTaskStore persists user-configured automated reseed jobs.
type ReseedTaskStore struct {
	db dbinterface.Querier
}

func NewReseedTaskStore(db dbinterface.Querier) *ReseedTaskStore {
	return &ReseedTaskStore{db: db}
}

func (s *ReseedTaskStore) Create(ctx context.Context, t *ReseedTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reseed_tasks (id, name, source_client_id, target_client_id, target_site_ids, cron_expr, add_paused, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.SourceClientID, t.TargetClientID, strings.Join(t.TargetSiteIDs, ","), t.CronExpr, t.AddPaused, t.Enabled)
	if err != nil {
		return wrapIndexIO("ReseedTaskStore.Create", err)
	}
	return nil
}

func (s *ReseedTaskStore) Get(ctx context.Context, id string) (*ReseedTask, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, source_client_id, target_client_id, target_site_ids, COALESCE(cron_expr, ''),
		       add_paused, enabled, last_run, created_at, updated_at
		FROM reseed_tasks WHERE id = ?
	`, id)
	t, err := scanReseedTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graft.New(graft.KindNotFound, "ReseedTaskStore.Get", err)
	}
	if err != nil {
		return nil, wrapIndexIO("ReseedTaskStore.Get", err)
	}
	return t, nil
}

// ListSchedulable returns enabled tasks that carry a non-empty cron
// expression, the set the scheduler loads at startup and on Reload.
func (s *ReseedTaskStore) ListSchedulable(ctx context.Context) ([]*ReseedTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source_client_id, target_client_id, target_site_ids, COALESCE(cron_expr, ''),
		       add_paused, enabled, last_run, created_at, updated_at
		FROM reseed_tasks WHERE enabled = 1 AND cron_expr IS NOT NULL AND cron_expr != ''
	`)
	if err != nil {
		return nil, wrapIndexIO("ReseedTaskStore.ListSchedulable", err)
	}
	defer rows.Close()

	var out []*ReseedTask
	for rows.Next() {
		t, err := scanReseedTask(rows)
		if err != nil {
			return nil, wrapIndexIO("ReseedTaskStore.ListSchedulable", err)
		}
		out = append(out, t)
	}
	return out, wrapIndexIO("ReseedTaskStore.ListSchedulable", rows.Err())
}

func (s *ReseedTaskStore) List(ctx context.Context) ([]*ReseedTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source_client_id, target_client_id, target_site_ids, COALESCE(cron_expr, ''),
		       add_paused, enabled, last_run, created_at, updated_at
		FROM reseed_tasks ORDER BY name
	`)
	if err != nil {
		return nil, wrapIndexIO("ReseedTaskStore.List", err)
	}
	defer rows.Close()

	var out []*ReseedTask
	for rows.Next() {
		t, err := scanReseedTask(rows)
		if err != nil {
			return nil, wrapIndexIO("ReseedTaskStore.List", err)
		}
		out = append(out, t)
	}
	return out, wrapIndexIO("ReseedTaskStore.List", rows.Err())
}

func (s *ReseedTaskStore) Update(ctx context.Context, t *ReseedTask) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reseed_tasks
		SET name = ?, source_client_id = ?, target_client_id = ?, target_site_ids = ?, cron_expr = ?,
		    add_paused = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, t.Name, t.SourceClientID, t.TargetClientID, strings.Join(t.TargetSiteIDs, ","), t.CronExpr, t.AddPaused, t.Enabled, t.ID)
	if err != nil {
		return wrapIndexIO("ReseedTaskStore.Update", err)
	}
	return nil
}

func (s *ReseedTaskStore) MarkRun(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reseed_tasks SET last_run = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return wrapIndexIO("ReseedTaskStore.MarkRun", err)
	}
	return nil
}

func (s *ReseedTaskStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reseed_tasks WHERE id = ?`, id)
	if err != nil {
		return wrapIndexIO("ReseedTaskStore.Delete", err)
	}
	return nil
}

func scanReseedTask(row rowScanner) (*ReseedTask, error) {
	var t ReseedTask
	var targetSiteIDs string
	var lastRun sql.NullTime
	if err := row.Scan(&t.ID, &t.Name, &t.SourceClientID, &t.TargetClientID, &targetSiteIDs, &t.CronExpr,
		&t.AddPaused, &t.Enabled, &lastRun, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if targetSiteIDs != "" {
		t.TargetSiteIDs = strings.Split(targetSiteIDs, ",")
	}
	if lastRun.Valid {
		t.LastRun = &lastRun.Time
	}
	return &t, nil
}

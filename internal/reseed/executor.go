package reseed

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/sites"
	"github.com/graft-pt/graft/internal/torrentfile"
)

// defaultInterOpDelay smooths target-client load even when the site rate
// limit is loose; ExecOptions.InterOpDelay overrides it when set.
const defaultInterOpDelay = 500 * time.Millisecond

// ExecOptions carries the knobs beyond the plan itself.
type ExecOptions struct {
	TaskID       string
	AddPaused    bool
	SkipChecking bool
	InterOpDelay time.Duration // zero means defaultInterOpDelay
}

// Counters is the executor's user-visible result.
type Counters struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

// Executor drives a Plan to completion: fetch, validate, add, record,
// one match at a time, under the site's rate limit and a bounded retry
// policy on transient failures.
type Executor struct {
	registry *sites.Registry
	history  *models.HistoryStore
}

func NewExecutor(registry *sites.Registry, history *models.HistoryStore) *Executor {
	return &Executor{registry: registry, history: history}
}

// Run processes plan.Matches sequentially in the order the planner produced
// them (confidence-descending). A cancelled ctx stops the loop at the next
// iteration boundary and returns the counters accumulated so far.
func (x *Executor) Run(ctx context.Context, plan *Plan, targetClient clients.Client, opts ExecOptions) Counters {
	var counters Counters

	delay := opts.InterOpDelay
	if delay <= 0 {
		delay = defaultInterOpDelay
	}

	for _, m := range plan.Matches {
		if err := ctx.Err(); err != nil {
			break
		}
		counters.Total++

		status, message := x.runOne(ctx, m, targetClient, opts)
		switch status {
		case models.HistoryStatusSuccess:
			counters.Success++
		case models.HistoryStatusFailed:
			counters.Failed++
		case models.HistoryStatusSkipped:
			counters.Skipped++
		}

		x.record(ctx, opts.TaskID, m, status, message)

		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	return counters
}

// runOne executes steps 1-6 of the per-match loop and returns the outcome
// to record, never an error — every failure mode here is terminal for this
// match alone.
func (x *Executor) runOne(ctx context.Context, m Match, targetClient clients.Client, opts ExecOptions) (models.HistoryStatus, string) {
	existing, err := targetClient.ListTorrents(ctx)
	if err == nil {
		for _, t := range existing {
			if t.InfoHash == m.TargetHash {
				return models.HistoryStatusSkipped, "already present on target client"
			}
		}
	}

	site, ok := x.registry.Site(m.TargetSite)
	if !ok || site.Passkey == "" {
		return models.HistoryStatusFailed, "no credentials"
	}

	var torrentBytes []byte
	retryErr := retry.Do(
		func() error {
			b, fetchErr := x.registry.DownloadTorrent(ctx, m.TargetSite, m.TargetTorrentID)
			if fetchErr != nil {
				return fetchErr
			}
			torrentBytes = b
			return nil
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		// 250ms, then 1s: each wait is four times the previous one.
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return (250 * time.Millisecond) << (2 * n)
		}),
		retry.MaxDelay(4*time.Second),
		retry.RetryIf(graft.Retryable),
		retry.Context(ctx),
	)
	if retryErr != nil {
		log.Warn().Err(retryErr).Str("site", m.TargetSite).Str("hash", m.TargetHash).Msg("failed to fetch torrent")
		return models.HistoryStatusFailed, retryErr.Error()
	}

	if err := torrentfile.Validate(torrentBytes); err != nil {
		return models.HistoryStatusFailed, fmt.Sprintf("malformed torrent: %v", err)
	}

	_, err = targetClient.AddTorrent(ctx, torrentBytes, clients.AddOptions{
		SavePath:     m.SavePath,
		Paused:       opts.AddPaused,
		SkipChecking: opts.SkipChecking,
	})
	if err != nil {
		return models.HistoryStatusFailed, err.Error()
	}

	return models.HistoryStatusSuccess, ""
}

// record is best-effort: a history-write failure never fails the match it
// describes.
func (x *Executor) record(ctx context.Context, taskID string, m Match, status models.HistoryStatus, message string) {
	err := x.history.Record(ctx, &models.HistoryEntry{
		TaskID:     taskID,
		InfoHash:   m.TargetHash,
		SourceSite: m.SourceSite,
		TargetSite: m.TargetSite,
		Status:     status,
		Message:    message,
	})
	if err != nil {
		log.Warn().Err(err).Str("hash", m.TargetHash).Msg("failed to record reseed history")
	}
}

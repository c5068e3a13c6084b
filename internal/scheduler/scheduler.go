// Package scheduler fires reseed tasks on their configured cron expression,
// skipping a tick if the same task is still running from a previous one.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/reseed"
	"github.com/graft-pt/graft/internal/sites"
)

// Scheduler owns one cron.Cron instance for the process and dispatches each
// fired task's reseed run onto its own goroutine so a slow run never
// delays the next tick's bookkeeping.
type Scheduler struct {
	cron     *cron.Cron
	tasks    *models.ReseedTaskStore
	clients  *models.ClientStore
	idx      *models.IndexStore
	history  *models.HistoryStore
	registry *sites.Registry
	planner  *reseed.Planner
	dialers  clients.Dialers

	running sync.Map // task id -> struct{}
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func New(
	taskStore *models.ReseedTaskStore,
	clientStore *models.ClientStore,
	idx *models.IndexStore,
	history *models.HistoryStore,
	registry *sites.Registry,
	planner *reseed.Planner,
	dialers clients.Dialers,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		tasks:    taskStore,
		clients:  clientStore,
		idx:      idx,
		history:  history,
		registry: registry,
		planner:  planner,
		dialers:  dialers,
		entries:  make(map[string]cron.EntryID),
	}
}

// Start loads every enabled, cron-carrying task and begins firing them.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Reload drops every scheduled entry and re-reads schedulable tasks from
// storage, picking up additions, edits, and removals made since the last
// load.
func (s *Scheduler) Reload(ctx context.Context) error {
	tasks, err := s.tasks.ListSchedulable(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = make(map[string]cron.EntryID)

	for _, task := range tasks {
		task := task
		entryID, err := s.cron.AddFunc(task.CronExpr, func() { s.fire(task) })
		if err != nil {
			log.Warn().Err(err).Str("task", task.ID).Str("cron", task.CronExpr).Msg("invalid cron expression, skipping task")
			continue
		}
		s.entries[task.ID] = entryID
	}

	log.Info().Int("count", len(s.entries)).Msg("loaded scheduled reseed tasks")
	return nil
}

// fire runs on the cron library's own goroutine; it only decides whether to
// skip (already in flight) before handing the actual run to a fresh
// goroutine so the cron thread is never blocked.
func (s *Scheduler) fire(task *models.ReseedTask) {
	if _, alreadyRunning := s.running.LoadOrStore(task.ID, struct{}{}); alreadyRunning {
		log.Warn().Str("task", task.ID).Msg("skipping scheduled reseed: previous run still in flight")
		return
	}

	go func() {
		defer s.running.Delete(task.ID)
		s.run(task)
	}()
}

func (s *Scheduler) run(task *models.ReseedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	log.Info().Str("task", task.ID).Str("name", task.Name).Msg("starting scheduled reseed")

	sourceRecord, err := s.clients.Get(ctx, task.SourceClientID)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("reseed task source client lookup failed")
		return
	}
	targetRecord, err := s.clients.Get(ctx, task.TargetClientID)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("reseed task target client lookup failed")
		return
	}

	sourceClient, err := s.dialers.Connect(ctx, sourceRecord)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("reseed task source client dial failed")
		return
	}
	targetClient, err := s.dialers.Connect(ctx, targetRecord)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("reseed task target client dial failed")
		return
	}

	plan, err := s.planner.Plan(ctx, sourceClient, targetClient, task.TargetSiteIDs)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("reseed task planning failed")
		return
	}

	executor := reseed.NewExecutor(s.registry, s.history)
	counters := executor.Run(ctx, plan, targetClient, reseed.ExecOptions{
		TaskID:    task.ID,
		AddPaused: task.AddPaused,
	})

	if err := s.tasks.MarkRun(ctx, task.ID); err != nil {
		log.Warn().Err(err).Str("task", task.ID).Msg("failed to record task last-run timestamp")
	}

	log.Info().Str("task", task.ID).
		Int("total", counters.Total).Int("success", counters.Success).
		Int("failed", counters.Failed).Int("skipped", counters.Skipped).
		Msg("scheduled reseed finished")
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graft-pt/graft/internal/reseed"
)

// runReseedCommand lets an operator manually plan and execute a cross-site
// reseed between two configured clients, outside of the cron scheduler.
func runReseedCommand() *cobra.Command {
	var (
		sourceClientID string
		targetClientID string
		targetSitesCSV string
		dryRun         bool
		addPaused      bool
	)

	cmd := &cobra.Command{
		Use:   "reseed",
		Short: "Plan (and optionally execute) a cross-site reseed between two clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceClientID == "" || targetClientID == "" {
				return fmt.Errorf("--source and --target are required")
			}

			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			sourceRecord, err := a.clientStore.Get(ctx, sourceClientID)
			if err != nil {
				return err
			}
			targetRecord, err := a.clientStore.Get(ctx, targetClientID)
			if err != nil {
				return err
			}

			sourceClient, err := a.dialers.Connect(ctx, sourceRecord)
			if err != nil {
				return err
			}
			targetClient, err := a.dialers.Connect(ctx, targetRecord)
			if err != nil {
				return err
			}

			var targetSites []string
			if targetSitesCSV != "" {
				targetSites = strings.Split(targetSitesCSV, ",")
			} else {
				configured, err := a.siteStore.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range configured {
					targetSites = append(targetSites, s.ID)
				}
			}

			plan, err := a.planner.Plan(ctx, sourceClient, targetClient, targetSites)
			if err != nil {
				return err
			}

			fmt.Printf("plan: %d matches, %d bytes total\n", len(plan.Matches), plan.TotalSize)
			for _, m := range plan.Matches {
				fmt.Printf("  %s -> %s (%s) confidence=%.2f\n", m.SourceSite, m.TargetSite, m.SourceName, m.Confidence)
			}

			if dryRun {
				return nil
			}

			executor := reseed.NewExecutor(a.registry, a.history)
			counters := executor.Run(ctx, plan, targetClient, reseed.ExecOptions{
				AddPaused: addPaused,
			})

			fmt.Printf("done: total=%d success=%d failed=%d skipped=%d\n",
				counters.Total, counters.Success, counters.Failed, counters.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceClientID, "source", "", "id of the client to scan for seedable content")
	cmd.Flags().StringVar(&targetClientID, "target", "", "id of the client to add reseeded torrents to")
	cmd.Flags().StringVar(&targetSitesCSV, "sites", "", "comma-separated target site ids (empty means all configured sites)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print the plan, do not execute it")
	cmd.Flags().BoolVar(&addPaused, "add-paused", false, "add reseeded torrents in a paused state")
	return cmd
}

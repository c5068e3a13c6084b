package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/graft-pt/graft/internal/scheduler"
)

func runServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reseed scheduler as a long-lived daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			sched := scheduler.New(a.taskStore, a.clientStore, a.idx, a.history, a.registry, a.planner, a.dialers)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := sched.Start(ctx); err != nil {
				return err
			}
			log.Info().Str("dataDir", a.cfg.DataDir).Msg("graft serve started")

			<-ctx.Done()
			log.Info().Msg("shutting down")
			sched.Stop()

			return nil
		},
	}
}

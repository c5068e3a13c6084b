package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "graft",
		Short:         "Self-hosted cross-seeding assistant for private BitTorrent trackers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")

	root.AddCommand(runServeCommand())
	root.AddCommand(runDBCommand())
	root.AddCommand(runImportCommand())
	root.AddCommand(runReseedCommand())
	root.AddCommand(runManageCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

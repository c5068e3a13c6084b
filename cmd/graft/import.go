package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graft-pt/graft/internal/importer"
)

// runImportCommand lets an operator manually trigger the import flow
// (client id -> tracker identification -> fingerprint index) for one
// configured client, outside of a scheduled reseed run.
func runImportCommand() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Walk a download client's torrents into the fingerprint index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				return fmt.Errorf("--client is required")
			}

			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			record, err := a.clientStore.Get(ctx, clientID)
			if err != nil {
				return err
			}
			client, err := a.dialers.Connect(ctx, record)
			if err != nil {
				return err
			}

			result, err := importer.Import(ctx, client, record.ID, a.idx, a.fingerprint, a.ident)
			if err != nil {
				return err
			}

			fmt.Printf("total=%d imported=%d skipped=%d unrecognized=%d\n",
				result.Total, result.Imported, result.Skipped, result.Unrecognized)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "id of the configured download client to import from")
	return cmd
}

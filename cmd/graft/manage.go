package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/graft-pt/graft/internal/models"
)

// runManageCommand groups the commands that create clients, sites, and
// reseed tasks: the configuration an operator needs before
// serve/import/reseed have anything to act on. There are no list, update or
// delete subcommands.
func runManageCommand() *cobra.Command {
	manage := &cobra.Command{
		Use:   "manage",
		Short: "Create clients, sites, and reseed tasks",
	}
	manage.AddCommand(runAddClientCommand())
	manage.AddCommand(runAddSiteCommand())
	manage.AddCommand(runAddTaskCommand())
	return manage
}

func runAddClientCommand() *cobra.Command {
	var (
		id, name, variant, host, username, password string
		port                                         int
		https                                        bool
	)
	cmd := &cobra.Command{
		Use:   "add-client",
		Short: "Register a download client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			c := &models.Client{
				ID:                id,
				Name:              name,
				Variant:           models.ClientType(variant),
				Host:              host,
				Port:              port,
				Username:          username,
				PasswordEncrypted: password,
				HTTPS:             https,
				Enabled:           true,
			}
			if err := a.clientStore.Create(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "client id (generated if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&variant, "variant", string(models.ClientTypeQBittorrent), "qbittorrent or transmission")
	cmd.Flags().StringVar(&host, "host", "", "client host")
	cmd.Flags().IntVar(&port, "port", 0, "client port")
	cmd.Flags().StringVar(&username, "username", "", "client username")
	cmd.Flags().StringVar(&password, "password", "", "client password")
	cmd.Flags().BoolVar(&https, "https", false, "connect over https")
	return cmd
}

func runAddSiteCommand() *cobra.Command {
	var (
		id, name, baseURL, template, passkey, cookie string
		rpm                                           int
	)
	cmd := &cobra.Command{
		Use:   "add-site",
		Short: "Register a private tracker site",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if rpm <= 0 {
				rpm = a.cfg.ReseedDefaultRPM
			}

			s := &models.Site{
				ID:              id,
				Name:            name,
				BaseURL:         baseURL,
				Template:        models.TemplateType(template),
				Passkey:         passkey,
				CookieEncrypted: cookie,
				Enabled:         true,
				RPM:             rpm,
			}
			if err := a.siteStore.Create(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "site id (generated if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "site base URL")
	cmd.Flags().StringVar(&template, "template", string(models.TemplateNexusPHP), "nexusphp, unit3d, or gazelle")
	cmd.Flags().StringVar(&passkey, "passkey", "", "site passkey")
	cmd.Flags().StringVar(&cookie, "cookie", "", "site session cookie")
	cmd.Flags().IntVar(&rpm, "rpm", 0, "requests per minute (defaults to the configured default)")
	return cmd
}

func runAddTaskCommand() *cobra.Command {
	var (
		id, name, sourceClientID, targetClientID, cronExpr, targetSitesCSV string
		addPaused                                                         bool
	)
	cmd := &cobra.Command{
		Use:   "add-task",
		Short: "Register a scheduled reseed task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}
			a, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var targetSites []string
			if targetSitesCSV != "" {
				targetSites = strings.Split(targetSitesCSV, ",")
			}

			t := &models.ReseedTask{
				ID:             id,
				Name:           name,
				SourceClientID: sourceClientID,
				TargetClientID: targetClientID,
				TargetSiteIDs:  targetSites,
				CronExpr:       cronExpr,
				AddPaused:      addPaused,
				Enabled:        true,
			}
			if err := a.taskStore.Create(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "task id (generated if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&sourceClientID, "source", "", "source client id")
	cmd.Flags().StringVar(&targetClientID, "target", "", "target client id")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression")
	cmd.Flags().StringVar(&targetSitesCSV, "sites", "", "comma-separated target site ids")
	cmd.Flags().BoolVar(&addPaused, "add-paused", false, "add reseeded torrents paused")
	return cmd
}

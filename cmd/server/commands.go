package main

import (
	"fmt"
	"os"

	"github.com/diewo77/go-collect/internal/db"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "go-collect",
		Short: "Debt-collection back office API",
		Long: `go-collect serves the REST API for users, clients, debtors, debts and
follow-up actions. Without a subcommand it starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				defer a.close()
				if err := db.Migrate(a.db, a.cfg); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				a.log.Info("migrations completed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create or promote the admin account from ADMIN_EMAIL/ADMIN_PASSWORD",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				defer a.close()
				_, err = db.EnsureAdmin(cmd.Context(), a.db, a.cfg.App.AdminEmail, a.cfg.App.AdminPassword, a.log)
				return err
			},
		},
	)
	return root
}

func runServe(cmd *cobra.Command) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	return a.serve(cmd.Context())
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"

	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/config"
	"github.com/Veraticus/mood-journal/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Bring the local database up to the current schema. Every command does this
on start; run it directly to check the schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			if status, _ := cmd.Flags().GetBool("status"); status {
				db, err := storage.NewSQLiteStorage(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer func() { _ = db.Close() }()

				version, err := db.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "database:  %s\n", cfg.Database.Path)
				fmt.Fprintf(out, "schema:    %d (latest %d)\n", version, storage.ExpectedSchemaVersion)
				if version < storage.ExpectedSchemaVersion {
					fmt.Fprintln(out, cli.FormatWarning("Migrations pending. Run journal migrate."))
				}
				return nil
			}

			db, err := openDatabase(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database is at schema version %d.", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "show the schema version without migrating")
	return cmd
}

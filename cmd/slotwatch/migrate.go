package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelwms/slotwatch/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the metadata database schema to the latest version.
Other commands migrate automatically; this exists for provisioning scripts
that want the schema ready before first use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, err := databasePath()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Database at %s migrated to schema version %d.\n", dbPath, storage.ExpectedSchemaVersion)
			return nil
		},
	}
}

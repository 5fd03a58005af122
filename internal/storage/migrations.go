package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS locations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					warehouse_id TEXT NOT NULL,
					code TEXT NOT NULL,
					capacity INTEGER NOT NULL DEFAULT 1,
					unit_type TEXT NOT NULL DEFAULT 'PALLET',
					location_type TEXT NOT NULL DEFAULT 'STORAGE',
					is_special BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(warehouse_id, code)
				)`,
				`CREATE INDEX idx_locations_warehouse ON locations(warehouse_id)`,

				`CREATE TABLE IF NOT EXISTS warehouse_templates (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					aisles INTEGER NOT NULL,
					racks_per_aisle INTEGER NOT NULL,
					positions_per_rack INTEGER NOT NULL,
					level_names TEXT NOT NULL,
					default_capacity INTEGER NOT NULL DEFAULT 1,
					default_zone TEXT NOT NULL DEFAULT 'AMBIENT',
					zone_ranges TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS special_areas (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					template_id TEXT NOT NULL,
					code TEXT NOT NULL,
					area_type TEXT NOT NULL,
					zone TEXT NOT NULL DEFAULT '',
					capacity INTEGER NOT NULL DEFAULT 1,
					UNIQUE(template_id, code),
					FOREIGN KEY (template_id) REFERENCES warehouse_templates(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					rule_type TEXT NOT NULL,
					parameters TEXT,
					precedence INTEGER NOT NULL DEFAULT 100,
					active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add soft-delete flag to locations",
		Up: func(tx *sql.Tx) error {
			// NULL means active: rows predating this column stay visible.
			_, err := tx.Exec(`ALTER TABLE locations ADD COLUMN active BOOLEAN`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Index rules for precedence-ordered reads",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_rules_active_precedence ON rules(active, precedence, id)`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
